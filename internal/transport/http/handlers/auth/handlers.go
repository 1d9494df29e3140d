package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aper/internal/domain/auth"
	"aper/internal/domain/evaluation"
	"aper/internal/transport/http/api"
	"aper/internal/transport/http/middleware"
)

type Handler struct {
	Service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{Service: service}
}

type identityRequest struct {
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  evaluation.Role `json:"role"`
}

type tokenResponse struct {
	Token string           `json:"token"`
	User  auth.UserContext `json:"user"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/signup", h.handleSignup)
		r.With(middleware.RequireUser).Get("/me", h.handleMe)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	resp, ok := h.issue(w, r)
	if !ok {
		return
	}
	api.Success(w, resp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	resp, ok := h.issue(w, r)
	if !ok {
		return
	}
	api.Created(w, resp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) (tokenResponse, bool) {
	var payload identityRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return tokenResponse{}, false
	}
	token, user, err := h.Service.Issue(payload.Name, payload.Email, payload.Role)
	if errors.Is(err, auth.ErrInvalidIdentity) {
		api.Fail(w, http.StatusBadRequest, "invalid_identity", err.Error(), middleware.GetRequestID(r.Context()))
		return tokenResponse{}, false
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return tokenResponse{}, false
	}
	return tokenResponse{Token: token, User: user}, true
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	api.Success(w, user, middleware.GetRequestID(r.Context()))
}
