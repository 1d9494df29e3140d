package evaluationhandler

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"aper/internal/domain/evaluation"
	"aper/internal/transport/http/api"
	"aper/internal/transport/http/middleware"
)

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())

	var denial *evaluation.Denial
	if errors.As(err, &denial) {
		if h.Denials != nil {
			h.Denials.RecordDenial(denial.Reason)
		}
		switch denial.Reason {
		case evaluation.ReasonWrongStage:
			api.Fail(w, http.StatusConflict, denial.Reason, "action not allowed in the current stage", reqID)
		case evaluation.ReasonWrongRole:
			api.Fail(w, http.StatusForbidden, denial.Reason, "action not allowed for this role", reqID)
		default:
			fields := denial.Fields
			if fields == nil {
				fields = []string{}
			}
			api.FailWithDetails(w, http.StatusUnprocessableEntity, denial.Reason, "section is incomplete", map[string]any{"fields": fields}, reqID)
		}
		return
	}

	switch {
	case errors.Is(err, evaluation.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "evaluation not found", reqID)
	case errors.Is(err, evaluation.ErrDraftNotFound):
		api.Fail(w, http.StatusNotFound, "draft_not_found", "no draft saved for this stage", reqID)
	case errors.Is(err, evaluation.ErrInvalidPayload):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid section payload", reqID)
	case errors.Is(err, evaluation.ErrStorageUnavailable):
		h.Logger.Warn("evaluation storage unavailable", zap.String("requestId", reqID), zap.Error(err))
		api.Fail(w, http.StatusServiceUnavailable, "storage_unavailable", "storage is unavailable, retry later", reqID)
	default:
		h.Logger.Error("evaluation request failed", zap.String("requestId", reqID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", reqID)
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
