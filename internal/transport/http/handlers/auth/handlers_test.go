package authhandler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"aper/internal/domain/auth"
	"aper/internal/domain/evaluation"
	"aper/internal/transport/http/middleware"
)

const testSecret = "test-secret"

func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Auth(auth.NewService(testSecret, time.Hour)))
	NewHandler(auth.NewService(testSecret, time.Hour)).RegisterRoutes(r)
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestLoginIssuesTokenAndMeEchoesIdentity(t *testing.T) {
	router := newRouter()

	body := bytes.NewBufferString(`{"name":"Asha Rao","email":"asha@example.com","role":"countersigning-officer"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp tokenResponse
	if err := json.Unmarshal(decode(t, rec).Data, &resp); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if resp.Token == "" || resp.User.Role != evaluation.RoleCountersigningOfficer {
		t.Fatalf("unexpected response %+v", resp)
	}

	me := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	me.Header.Set("Authorization", "Bearer "+resp.Token)
	meRec := httptest.NewRecorder()
	router.ServeHTTP(meRec, me)
	if meRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", meRec.Code)
	}
	var user auth.UserContext
	if err := json.Unmarshal(decode(t, meRec).Data, &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if user != resp.User {
		t.Fatalf("expected %+v, got %+v", resp.User, user)
	}
}

func TestSignupValidation(t *testing.T) {
	router := newRouter()
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "created", body: `{"name":"A","email":"a@example.com","role":"employee"}`, status: http.StatusCreated},
		{name: "malformed", body: `{"name":`, status: http.StatusBadRequest, code: "invalid_payload"},
		{name: "unknown role", body: `{"name":"A","email":"a@example.com","role":"hr"}`, status: http.StatusBadRequest, code: "invalid_identity"},
		{name: "bad email", body: `{"name":"A","email":"nope","role":"employee"}`, status: http.StatusBadRequest, code: "invalid_identity"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			env := decode(t, rec)
			if tc.code != "" && (env.Error == nil || env.Error.Code != tc.code) {
				t.Fatalf("expected error code %s, got %+v", tc.code, env.Error)
			}
		})
	}
}

func TestMeRequiresToken(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
