package evaluationhandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"aper/internal/domain/evaluation"
	"aper/internal/transport/http/api"
	"aper/internal/transport/http/middleware"
)

const endpointSubmit = "evaluations.submit"

type transitionResponse struct {
	ID     string                   `json:"id"`
	Stage  evaluation.Stage         `json:"stage"`
	Status evaluation.DisplayStatus `json:"status"`
}

// readBody returns the trimmed request body. An empty body is allowed;
// anything else must be valid JSON.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Body == nil {
		return nil, true
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "request body could not be read", middleware.GetRequestID(r.Context()))
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && !json.Valid(raw) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return nil, false
	}
	return raw, true
}

func (h *Handler) transition(rec *evaluation.Record) transitionResponse {
	return transitionResponse{ID: rec.ID, Stage: rec.Stage, Status: evaluation.Project(rec, h.Service.Now())}
}

func (h *Handler) handleLoadDraft(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	entry, err := h.Service.LoadDraft(r.Context(), chi.URLParam(r, "evaluationID"), user.Actor())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	entry, err := h.Service.SaveDraft(r.Context(), chi.URLParam(r, "evaluationID"), user.Actor(), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "evaluationID")
	if err := h.Service.DiscardDraft(r.Context(), id, user.Actor()); err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, map[string]any{"id": id, "discarded": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "evaluationID")
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	requestHash := middleware.RequestHash(append([]byte(id+"\n"), body...))
	if idempotencyKey != "" {
		stored, found, err := h.Idem.Check(r.Context(), user.Email, endpointSubmit, idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", err.Error(), middleware.GetRequestID(r.Context()))
			return
		}
		if err != nil {
			h.Logger.Warn("idempotency check failed", zap.Error(err))
		}
		if found {
			api.Success(w, json.RawMessage(stored), middleware.GetRequestID(r.Context()))
			return
		}
	}

	rec, err := h.Service.Submit(r.Context(), id, user.Actor(), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := h.transition(rec)

	if idempotencyKey != "" {
		payload, err := json.Marshal(resp)
		if err == nil {
			err = h.Idem.Save(r.Context(), user.Email, endpointSubmit, idempotencyKey, requestHash, payload)
		}
		if err != nil {
			h.Logger.Warn("idempotency save failed", zap.Error(err))
		}
	}
	api.Success(w, resp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var section *evaluation.CountersignSection
	if len(body) > 0 {
		section = &evaluation.CountersignSection{}
		if err := json.Unmarshal(body, section); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
			return
		}
	}
	rec, err := h.Service.Reject(r.Context(), chi.URLParam(r, "evaluationID"), user.Actor(), section)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, h.transition(rec), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReopen(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	rec, err := h.Service.Reopen(r.Context(), chi.URLParam(r, "evaluationID"), user.Actor())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, h.transition(rec), middleware.GetRequestID(r.Context()))
}
