package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/servicer-desk/backend/internal/demo"
	"github.com/servicer-desk/backend/internal/models"
	"github.com/servicer-desk/backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newDemoHandler(t *testing.T) *Handler {
	t.Helper()
	store, err := demo.Load(time.Now(), time.UTC)
	if err != nil {
		t.Fatalf("load demo: %v", err)
	}
	return &Handler{
		Store:     store,
		Tasks:     &service.TaskService{Store: store, Logger: zerolog.Nop()},
		Reports:   &service.ReportService{Store: store, Logger: zerolog.Nop()},
		Mutations: &service.MutationService{Store: store, Guard: &service.SubmitGuard{}, Logger: zerolog.Nop()},
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
	}
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func envelopeCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return body.Error.Code
}

func TestTaskStatusPayloadValidation(t *testing.T) {
	h := newDemoHandler(t)
	r := gin.New()
	r.PATCH("/tasks/:id/status", h.UpdateTaskStatus)

	cases := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"status":`, "INVALID_REQUEST"},
		{"missing status", `{}`, "VALIDATION_ERROR"},
		{"custom without label", `{"status":"Custom..."}`, "VALIDATION_ERROR"},
		{"unknown method", `{"status":"Sent Info","communicated":true,"communication_method":"Fax"}`, "VALIDATION_ERROR"},
		{"updater not an id", `{"status":"Sent Info","updated_by":"Sarah"}`, "VALIDATION_ERROR"},
	}
	for _, tc := range cases {
		w := serve(r, http.MethodPatch, "/tasks/abc/status", tc.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, w.Code)
		}
		if code := envelopeCode(t, w); code != tc.code {
			t.Fatalf("%s: code = %q, want %q", tc.name, code, tc.code)
		}
	}
}

func TestMoneySavedPayloadValidation(t *testing.T) {
	h := newDemoHandler(t)
	r := gin.New()
	r.PATCH("/sub-categories/:id/money-saved", h.UpdateMoneySaved)

	for _, body := range []string{`{}`, `{"money_saved":-5}`} {
		w := serve(r, http.MethodPatch, "/sub-categories/x/money-saved", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestStoreRejectsWritesWithoutMiddleware(t *testing.T) {
	h := newDemoHandler(t)
	r := gin.New()
	r.POST("/customers/:phone/flags", h.ToggleCustomerFlag)

	w := serve(r, http.MethodPost, "/customers/+64-21-123-4567/flags", `{"flag":"VIP"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
	if code := envelopeCode(t, w); code != "DEMO_MODE" {
		t.Fatalf("code = %q", code)
	}
}

func TestWriteMutationErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{models.ErrReadOnly, http.StatusForbidden, "DEMO_MODE"},
		{fmt.Errorf("get: %w", models.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("%w: bad", service.ErrInvalidStatus), http.StatusBadRequest, "VALIDATION_ERROR"},
		{fmt.Errorf("%w: bad", service.ErrInvalidInput), http.StatusBadRequest, "VALIDATION_ERROR"},
		{service.ErrSubmissionInFlight, http.StatusConflict, "SUBMISSION_IN_FLIGHT"},
		{service.ErrSuperseded, http.StatusConflict, "SUPERSEDED"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
		{errors.New("connection reset"), http.StatusInternalServerError, "DB_ERROR"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		writeMutationError(c, tc.err)
		if w.Code != tc.status {
			t.Fatalf("%v: status = %d, want %d", tc.err, w.Code, tc.status)
		}
		if code := envelopeCode(t, w); code != tc.code {
			t.Fatalf("%v: code = %q, want %q", tc.err, code, tc.code)
		}
	}
}

type unreachableStore struct {
	service.Store
}

func (unreachableStore) FetchTasks(context.Context, models.TaskFilter) ([]models.Task, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestFetchFailureIsDegradedNotError(t *testing.T) {
	h := &Handler{
		Tasks:     &service.TaskService{Store: unreachableStore{}, Logger: zerolog.Nop()},
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
	}
	r := gin.New()
	r.GET("/tasks", h.TasksList)

	w := serve(r, http.MethodGet, "/tasks", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Items    []any `json:"items"`
		Degraded bool  `json:"degraded"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Degraded {
		t.Fatalf("expected degraded response")
	}
	if body.Items == nil || len(body.Items) != 0 {
		t.Fatalf("expected an empty items array, got %v", body.Items)
	}
}
