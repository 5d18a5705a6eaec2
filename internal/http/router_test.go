package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/servicer-desk/backend/internal/cache"
	"github.com/servicer-desk/backend/internal/config"
	"github.com/servicer-desk/backend/internal/demo"
	"github.com/servicer-desk/backend/internal/service"
)

func demoRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := demo.Load(time.Now(), time.UTC)
	if err != nil {
		t.Fatalf("load demo: %v", err)
	}
	logger := zerolog.Nop()
	tasks := &service.TaskService{Store: store, Servicers: cache.NewServicerCache(0, 0), Logger: logger}
	reports := &service.ReportService{Store: store, Logger: logger, Loc: time.UTC}
	mutations := &service.MutationService{Store: store, Coalescer: service.NewCoalescer(time.Millisecond), Guard: &service.SubmitGuard{}, Logger: logger}
	t.Cleanup(mutations.Coalescer.Flush)

	cfg := config.Config{CORSAllowed: "*", RequestTimeout: 5 * time.Second}
	return Router(cfg, store, tasks, reports, mutations, logger)
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, w)
	e, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error envelope in %s", w.Body.String())
	}
	code, _ := e["code"].(string)
	return code
}

func TestModeReportsDemo(t *testing.T) {
	r := demoRouter(t)
	w := do(r, http.MethodGet, "/api/mode", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mode := decode(t, w)["mode"]; mode != "demo" {
		t.Fatalf("mode = %v, want demo", mode)
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestDashboardServesSampleData(t *testing.T) {
	r := demoRouter(t)
	w := do(r, http.MethodGet, "/api/dashboard", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["degraded"] != false {
		t.Fatalf("degraded = %v", body["degraded"])
	}
	stats := body["stats"].(map[string]any)
	if stats["total_tasks"].(float64) == 0 {
		t.Fatalf("expected sample tasks, got %v", stats)
	}
}

func TestReadEndpoints(t *testing.T) {
	r := demoRouter(t)
	for _, path := range []string{
		"/api/servicers",
		"/api/tasks",
		"/api/tasks?servicer=Sarah%20Johnson",
		"/api/tasks?customer=%2B64-21-555-0123",
		"/api/tasks/stale?days=5",
		"/api/up-next?servicer=Mike%20Chen",
		"/api/customers",
		"/api/updates?communicated=true",
		"/api/reports/daily",
		"/api/ops/metrics",
		"/healthz",
	} {
		w := do(r, http.MethodGet, path, "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, w.Code, w.Body.String())
		}
	}
}

func TestCustomerDetailByPhone(t *testing.T) {
	r := demoRouter(t)
	w := do(r, http.MethodGet, "/api/customers/+64-21-123-4567", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	subs := decode(t, w)["sub_categories"].([]any)
	if len(subs) != 4 {
		t.Fatalf("sub_categories = %d, want 4", len(subs))
	}

	w = do(r, http.MethodGet, "/api/customers/000", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestVocabulariesCoverEveryCategory(t *testing.T) {
	r := demoRouter(t)
	w := do(r, http.MethodGet, "/api/vocabularies", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Statuses        []string            `json:"statuses"`
		Categories      []string            `json:"categories"`
		SubCategories   map[string][]string `json:"sub_categories"`
		PredefinedTasks map[string][]string `json:"predefined_tasks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Statuses) == 0 || body.Statuses[len(body.Statuses)-1] != "Custom..." {
		t.Fatalf("statuses should end with Custom..., got %v", body.Statuses)
	}
	for _, cat := range body.Categories {
		subs := body.SubCategories[cat]
		if len(subs) == 0 {
			t.Fatalf("category %q has no sub-categories", cat)
		}
		for _, sub := range subs {
			if len(body.PredefinedTasks[sub]) == 0 {
				t.Fatalf("sub-category %q has no checklist", sub)
			}
		}
	}
}

func TestBadQueryParameters(t *testing.T) {
	r := demoRouter(t)
	if w := do(r, http.MethodGet, "/api/reports/daily?date=21-01-2024", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad date: expected 400, got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/tasks/stale?days=0", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("zero days: expected 400, got %d", w.Code)
	}
}

func TestWritesRejectedInDemoMode(t *testing.T) {
	r := demoRouter(t)
	cases := []struct{ method, path, body string }{
		{http.MethodPatch, "/api/tasks/abc/status", `{"status":"In Progress"}`},
		{http.MethodPatch, "/api/tasks/abc/notes", `{"notes":"x"}`},
		{http.MethodPatch, "/api/sub-categories/abc/money-saved", `{"money_saved":10}`},
		{http.MethodDelete, "/api/sub-categories/abc", ""},
		{http.MethodPost, "/api/customers/123/communications", `{"method":"Email"}`},
	}
	for _, tc := range cases {
		w := do(r, tc.method, tc.path, tc.body)
		if w.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d", tc.method, tc.path, w.Code)
		}
		if code := errorCode(t, w); code != "DEMO_MODE" {
			t.Fatalf("%s %s: code = %q", tc.method, tc.path, code)
		}
	}
}
