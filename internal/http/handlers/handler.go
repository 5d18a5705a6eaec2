package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/servicer-desk/backend/internal/metrics"
	"github.com/servicer-desk/backend/internal/models"
	"github.com/servicer-desk/backend/internal/service"
)

type Handler struct {
	Store     service.Store
	Tasks     *service.TaskService
	Reports   *service.ReportService
	Mutations *service.MutationService
	Validator *validator.Validate
	Logger    zerolog.Logger
	Demo      bool
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type ModeResponse struct {
	Mode     string `json:"mode"`
	ReadOnly bool   `json:"read_only"`
}

// @Summary Data source mode
// @Description "demo" when no store is configured and sample data is served read-only
// @Tags meta
// @Produce json
// @Success 200 {object} ModeResponse
// @Router /api/mode [get]
func (h *Handler) Mode(c *gin.Context) {
	mode := "live"
	if h.Demo {
		mode = "demo"
	}
	c.JSON(http.StatusOK, ModeResponse{Mode: mode, ReadOnly: h.Demo})
}

// @Summary Operational counters
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/ops/metrics [get]
func (h *Handler) Metrics(c *gin.Context) {
	pending := 0
	if h.Mutations != nil && h.Mutations.Coalescer != nil {
		pending = h.Mutations.Coalescer.Pending()
	}
	c.JSON(http.StatusOK, gin.H{"counters": metrics.Snapshot(), "pending_writes": pending})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// writeRead answers a read endpoint. A fetch failure still returns 200 with
// whatever loaded and "degraded": true so the client can render an empty
// state while telling broken apart from empty.
func (h *Handler) writeRead(c *gin.Context, body gin.H, err error) {
	switch {
	case err == nil:
		body["degraded"] = false
	case errors.Is(err, service.ErrFetchFailed):
		body["degraded"] = true
	case errors.Is(err, models.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	case errors.Is(err, service.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	default:
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Read failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, body)
}

// writeMutationError maps a write failure onto the error envelope.
func writeMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrReadOnly):
		writeError(c, http.StatusForbidden, "DEMO_MODE", "Demo mode is read-only", nil)
	case errors.Is(err, models.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	case errors.Is(err, service.ErrInvalidStatus), errors.Is(err, service.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
	case errors.Is(err, service.ErrSubmissionInFlight):
		writeError(c, http.StatusConflict, "SUBMISSION_IN_FLIGHT", "A submission for this customer is already running", nil)
	case errors.Is(err, service.ErrSuperseded):
		writeError(c, http.StatusConflict, "SUPERSEDED", "A newer edit replaced this one", nil)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(c, http.StatusGatewayTimeout, "TIMEOUT", "Request timed out", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Write failed", err.Error())
	}
}

// bind decodes and validates a JSON payload, writing the error response
// itself when either step fails.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return false
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}
