package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/servicer-desk/backend/internal/models"
	"github.com/servicer-desk/backend/internal/service"
)

// @Summary List servicers
// @Tags servicers
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/servicers [get]
func (h *Handler) ServicersList(c *gin.Context) {
	items, err := h.Tasks.ListServicers(c.Request.Context())
	h.writeRead(c, gin.H{"items": items}, err)
}

// @Summary Dashboard
// @Description Stats, per-servicer rollups, urgent tasks and the recent updates feed
// @Tags dashboard
// @Produce json
// @Param servicer query string false "Servicer id or name"
// @Success 200 {object} service.Dashboard
// @Router /api/dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.Tasks.Dashboard(c.Request.Context(), strings.TrimSpace(c.Query("servicer")))
	h.writeRead(c, gin.H{
		"stats":          d.Stats,
		"servicers":      d.Servicers,
		"urgent_tasks":   d.UrgentTasks,
		"recent_updates": d.RecentUpdates,
	}, err)
}

// @Summary List tasks
// @Description All tasks with their sub-category, category and customer. Filter by servicer or customer phone.
// @Tags tasks
// @Produce json
// @Param servicer query string false "Servicer id or name"
// @Param customer query string false "Customer phone"
// @Success 200 {object} map[string]any
// @Router /api/tasks [get]
func (h *Handler) TasksList(c *gin.Context) {
	ctx := c.Request.Context()
	servicer := strings.TrimSpace(c.Query("servicer"))
	phone := strings.TrimSpace(c.Query("customer"))

	var (
		items []models.Task
		err   error
	)
	switch {
	case phone != "":
		items, err = h.Tasks.FetchCustomerTasks(ctx, phone)
	case servicer != "":
		items, err = h.Tasks.FetchServicerTasks(ctx, servicer)
	default:
		items, err = h.Tasks.FetchAllTasksWithRelationships(ctx)
	}
	h.writeRead(c, gin.H{"items": items}, err)
}

// @Summary Stale tasks
// @Tags tasks
// @Produce json
// @Param days query int false "Days without an update" default(3)
// @Param servicer query string false "Servicer id or name"
// @Success 200 {object} map[string]any
// @Router /api/tasks/stale [get]
func (h *Handler) StaleTasks(c *gin.Context) {
	days := queryInt(c, "days", service.DefaultNeedsUpdateDays)
	if days <= 0 {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "days must be positive", nil)
		return
	}
	items, err := h.Tasks.FetchStaleTasks(c.Request.Context(), days, strings.TrimSpace(c.Query("servicer")))
	h.writeRead(c, gin.H{"items": items, "days": days}, err)
}

// @Summary Up Next queue
// @Description Open tasks ordered by status priority, then longest without an update
// @Tags tasks
// @Produce json
// @Param servicer query string false "Servicer id or name"
// @Param limit query int false "Maximum items" default(50)
// @Success 200 {object} map[string]any
// @Router /api/up-next [get]
func (h *Handler) UpNext(c *gin.Context) {
	limit := queryInt(c, "limit", service.DefaultUpNextLimit)
	items, err := h.Tasks.UpNext(c.Request.Context(), strings.TrimSpace(c.Query("servicer")), limit)
	h.writeRead(c, gin.H{"items": items}, err)
}

// @Summary List customers
// @Tags customers
// @Produce json
// @Param servicer query string false "Servicer id or name"
// @Success 200 {object} map[string]any
// @Router /api/customers [get]
func (h *Handler) CustomersList(c *gin.Context) {
	items, err := h.Tasks.Customers(c.Request.Context(), strings.TrimSpace(c.Query("servicer")))
	h.writeRead(c, gin.H{"items": items}, err)
}

// @Summary Customer detail
// @Description Customer record, services with their checklists, rollup, savings, contact channels and recent audit rows
// @Tags customers
// @Produce json
// @Param phone path string true "Customer phone"
// @Success 200 {object} service.CustomerDetail
// @Failure 404 {object} map[string]any
// @Router /api/customers/{phone} [get]
func (h *Handler) CustomerDetail(c *gin.Context) {
	d, err := h.Tasks.CustomerDetail(c.Request.Context(), c.Param("phone"))
	h.writeRead(c, gin.H{
		"customer":         d.Customer,
		"sub_categories":   d.SubCategories,
		"rollup":           d.Rollup,
		"stats":            d.Stats,
		"contact_channels": d.Channels,
		"updates":          d.Updates,
	}, err)
}

// @Summary Audit feed
// @Tags updates
// @Produce json
// @Param date query string false "Update date (YYYY-MM-DD)"
// @Param servicer query string false "Servicer id or name"
// @Param customer query string false "Customer phone"
// @Param communicated query bool false "Only updates that contacted the customer"
// @Param limit query int false "Maximum rows" default(100)
// @Success 200 {object} map[string]any
// @Router /api/updates [get]
func (h *Handler) UpdatesList(c *gin.Context) {
	ctx := c.Request.Context()
	filter := models.UpdateFilter{
		Date:             strings.TrimSpace(c.Query("date")),
		CustomerPhone:    strings.TrimSpace(c.Query("customer")),
		CommunicatedOnly: c.Query("communicated") == "true",
		Limit:            queryInt(c, "limit", 100),
	}
	if servicer := strings.TrimSpace(c.Query("servicer")); servicer != "" {
		id, ok, err := h.Tasks.ResolveServicer(ctx, servicer)
		if err != nil || !ok {
			h.writeRead(c, gin.H{"items": []models.DailyUpdate{}}, err)
			return
		}
		filter.UpdatedBy = id
	}
	items, err := h.Reports.Updates(ctx, filter)
	h.writeRead(c, gin.H{"items": items}, err)
}

// @Summary Daily servicer report
// @Tags reports
// @Produce json
// @Param date query string false "Report date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} service.DailyReport
// @Failure 400 {object} map[string]any
// @Router /api/reports/daily [get]
func (h *Handler) DailyReport(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	report, err := h.Reports.Daily(c.Request.Context(), date)
	h.writeRead(c, gin.H{"date": report.Date, "totals": report.Totals, "servicers": report.Servicers}, err)
}
