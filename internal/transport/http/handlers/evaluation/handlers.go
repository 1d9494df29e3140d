package evaluationhandler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"aper/internal/domain/audit"
	"aper/internal/domain/auth"
	"aper/internal/domain/evaluation"
	"aper/internal/transport/http/api"
	"aper/internal/transport/http/middleware"
	"aper/internal/transport/http/shared"
)

// DenialRecorder counts gate denials surfaced to clients.
type DenialRecorder interface {
	RecordDenial(reason string)
}

type Handler struct {
	Service *evaluation.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
	Idem    *middleware.IdempotencyStore
	Denials DenialRecorder
	Logger  *zap.Logger
}

func NewHandler(service *evaluation.Service, perms middleware.PermissionStore, auditSvc *audit.Service, idem *middleware.IdempotencyStore, denials DenialRecorder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Idem: idem, Denials: denials, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/evaluations", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEvaluationCreate, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermEvaluationRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEvaluationRead, h.Perms)).Get("/summary", h.handleSummary)
		r.With(middleware.RequirePermission(auth.PermEvaluationExport, h.Perms)).Get("/export.xlsx", h.handleExportList)
		r.With(middleware.RequirePermission(auth.PermEvaluationRead, h.Perms)).Get("/{evaluationID}", h.handleView)
		r.With(middleware.RequirePermission(auth.PermEvaluationExport, h.Perms)).Get("/{evaluationID}/export.pdf", h.handleExportView)
		r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/{evaluationID}/events", h.handleEvents)
		r.With(middleware.RequirePermission(auth.PermEvaluationWrite, h.Perms)).Get("/{evaluationID}/draft", h.handleLoadDraft)
		r.With(middleware.RequirePermission(auth.PermEvaluationWrite, h.Perms)).Put("/{evaluationID}/draft", h.handleSaveDraft)
		r.With(middleware.RequirePermission(auth.PermEvaluationWrite, h.Perms)).Delete("/{evaluationID}/draft", h.handleDiscardDraft)
		r.With(middleware.RequirePermission(auth.PermEvaluationWrite, h.Perms)).Post("/{evaluationID}/submit", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermEvaluationReject, h.Perms)).Post("/{evaluationID}/reject", h.handleReject)
		r.With(middleware.RequirePermission(auth.PermEvaluationReopen, h.Perms)).Post("/{evaluationID}/reopen", h.handleReopen)
	})
}

type createRequest struct {
	DueAt string `json:"dueAt"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var payload createRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
			return
		}
	}

	var dueAt *time.Time
	if strings.TrimSpace(payload.DueAt) != "" {
		v := shared.NewValidator()
		parsed, valid := v.Date("dueAt", payload.DueAt)
		if v.Reject(w, middleware.GetRequestID(r.Context())) {
			return
		}
		if valid {
			dueAt = &parsed
		}
	}

	rec, err := h.Service.Create(r.Context(), user.Actor(), dueAt)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Created(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) listFilter(r *http.Request) (evaluation.Filter, bool) {
	query := r.URL.Query()
	filter := evaluation.Filter{
		Query:         strings.TrimSpace(query.Get("q")),
		ActionableFor: evaluation.Role(strings.TrimSpace(query.Get("actionableFor"))),
	}
	for _, raw := range query["status"] {
		for _, part := range strings.Split(raw, ",") {
			status := evaluation.DisplayStatus(strings.TrimSpace(part))
			if status == "" {
				continue
			}
			if !validStatus(status) {
				return evaluation.Filter{}, false
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	return filter, true
}

func validStatus(status evaluation.DisplayStatus) bool {
	for _, s := range evaluation.DisplayStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.listFilter(r)
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_status", "unknown status filter", middleware.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	filter.Limit = page.Limit
	filter.Offset = page.Offset

	result, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", itoa(result.Total))
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Summary(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	view, err := h.Service.View(r.Context(), chi.URLParam(r, "evaluationID"), user.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "evaluationID")
	if _, err := h.Service.View(r.Context(), id, user.Role); err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.Audit == nil {
		api.Success(w, []audit.Event{}, middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	includeDetails := r.URL.Query().Get("includeDetails") == "true"
	filter := audit.Filter{EntityType: audit.EntityEvaluation, EntityID: id}
	events, err := h.Audit.List(r.Context(), filter, includeDetails, page.Limit, page.Offset)
	if err == nil {
		var total int
		total, err = h.Audit.Count(r.Context(), filter)
		w.Header().Set("X-Total-Count", itoa(total))
	}
	if err != nil {
		h.Logger.Warn("audit list failed", zap.String("recordId", id), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}
