package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"aper/internal/domain/audit"
	"aper/internal/platform/config"
)

func memoryConfig() config.Config {
	return config.Config{
		Environment:        "test",
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		DraftBackend:       config.DraftBackendMemory,
		DraftTTL:           time.Hour,
		DefaultDueWindow:   24 * time.Hour,
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 1000,
		MetricsEnabled:     true,
		MigrationsDir:      "../../../migrations",
	}
}

func newTestApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	app, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

func call(t *testing.T, h http.Handler, method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler, name, email, role string) string {
	t.Helper()
	body := `{"name":"` + name + `","email":"` + email + `","role":"` + role + `"}`
	rec := call(t, h, http.MethodPost, "/api/v1/auth/login", "", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", role, rec.Code, rec.Body.String())
	}
	var env struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return env.Data.Token
}

func dataField(t *testing.T, rec *httptest.ResponseRecorder, field string) string {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	value, _ := env.Data[field].(string)
	return value
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := memoryConfig()
	cfg.DraftBackend = "disk"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected invalid draft backend to fail")
	}

	cfg = memoryConfig()
	cfg.RulesPath = "does-not-exist.yaml"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected missing rules file to fail")
	}
}

func TestOperationalEndpoints(t *testing.T) {
	app := newTestApp(t, memoryConfig())

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rec := call(t, app.Router, http.MethodGet, path, "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		if rec.Header().Get("X-Request-ID") == "" || rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Fatalf("%s: missing standard headers", path)
		}
	}

	cfg := memoryConfig()
	cfg.MetricsEnabled = false
	disabled := newTestApp(t, cfg)
	if rec := call(t, disabled.Router, http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected metrics route to be absent, got %d", rec.Code)
	}
}

func TestInMemoryLifecycle(t *testing.T) {
	app := newTestApp(t, memoryConfig())
	h := app.Router

	employee := login(t, h, "Asha Rao", "asha@example.com", "employee")
	officer := login(t, h, "Ravi Menon", "ravi@example.com", "reporting-officer")
	countersigner := login(t, h, "Meera Iyer", "meera@example.com", "countersigning-officer")

	created := call(t, h, http.MethodPost, "/api/v1/evaluations", employee, "")
	if created.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", created.Code, created.Body.String())
	}
	id := dataField(t, created, "id")

	steps := []struct {
		token string
		body  string
		stage string
	}{
		{employee, `{"fullName":"Asha Rao","employeeId":"E-1","department":"Finance"}`, "submitted_by_employee"},
		{officer, `{"overallRating":"5","officerComments":"Excellent"}`, "assessed_by_officer"},
		{countersigner, `{"finalApprovalStatus":"approved","countersignComments":"Agreed","authorizationAcknowledged":true}`, "countersigned"},
	}
	for _, step := range steps {
		rec := call(t, h, http.MethodPost, "/api/v1/evaluations/"+id+"/submit", step.token, step.body)
		if rec.Code != http.StatusOK {
			t.Fatalf("submit to %s: %d %s", step.stage, rec.Code, rec.Body.String())
		}
		if got := dataField(t, rec, "stage"); got != step.stage {
			t.Fatalf("expected %s, got %s", step.stage, got)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		total, err := app.Audit.Count(context.Background(), auditFilter(id))
		if err != nil {
			t.Fatalf("audit count: %v", err)
		}
		if total == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 3 audit events from the job queue, got %d", total)
		}
		time.Sleep(10 * time.Millisecond)
	}

	metricsRec := call(t, h, http.MethodGet, "/metrics", "", "")
	if !strings.Contains(metricsRec.Body.String(), `"completed":1`) {
		t.Fatalf("expected completed counter in %s", metricsRec.Body.String())
	}
}

func TestPostgresLifecycleWithIdempotency(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	cfg := memoryConfig()
	cfg.DatabaseURL = dsn
	cfg.RunMigrations = true
	cfg.DraftBackend = config.DraftBackendPostgres
	app := newTestApp(t, cfg)
	h := app.Router

	employee := login(t, h, "Asha Rao", "asha+"+time.Now().Format("150405.000000")+"@example.com", "employee")
	created := call(t, h, http.MethodPost, "/api/v1/evaluations", employee, `{"dueAt":"2030-01-31"}`)
	if created.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", created.Code, created.Body.String())
	}
	id := dataField(t, created, "id")

	draft := call(t, h, http.MethodPut, "/api/v1/evaluations/"+id+"/draft", employee, `{"fullName":"Asha Rao","employeeId":"E-1","department":"Finance"}`)
	if draft.Code != http.StatusOK {
		t.Fatalf("save draft: %d %s", draft.Code, draft.Body.String())
	}

	key := "submit-" + id
	first := call(t, h, http.MethodPost, "/api/v1/evaluations/"+id+"/submit", employee, "", "Idempotency-Key", key)
	if first.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", first.Code, first.Body.String())
	}
	replay := call(t, h, http.MethodPost, "/api/v1/evaluations/"+id+"/submit", employee, "", "Idempotency-Key", key)
	if replay.Code != http.StatusOK || dataField(t, replay, "stage") != "submitted_by_employee" {
		t.Fatalf("expected replayed response, got %d %s", replay.Code, replay.Body.String())
	}
	duplicate := call(t, h, http.MethodPost, "/api/v1/evaluations/"+id+"/submit", employee, "")
	if duplicate.Code != http.StatusConflict {
		t.Fatalf("expected wrong_stage for a fresh duplicate, got %d", duplicate.Code)
	}
}

func auditFilter(id string) audit.Filter {
	return audit.Filter{EntityType: audit.EntityEvaluation, EntityID: id}
}
