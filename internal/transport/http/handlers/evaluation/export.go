package evaluationhandler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"aper/internal/platform/export"
	"aper/internal/transport/http/api"
	"aper/internal/transport/http/middleware"
)

func (h *Handler) handleExportView(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "evaluationID")
	view, err := h.Service.View(r.Context(), id, user.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	doc, err := export.RenderPDF(view)
	if err != nil {
		h.Logger.Warn("pdf render failed", zap.String("recordId", id), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render report", middleware.GetRequestID(r.Context()))
		return
	}
	writeFile(w, export.ContentTypePDF, fmt.Sprintf("evaluation-%s.pdf", id), doc)
}

func (h *Handler) handleExportList(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.listFilter(r)
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_status", "unknown status filter", middleware.GetRequestID(r.Context()))
		return
	}
	result, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	data, err := export.RenderXLSX(result.Items)
	if err != nil {
		h.Logger.Warn("xlsx render failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render spreadsheet", middleware.GetRequestID(r.Context()))
		return
	}
	writeFile(w, export.ContentTypeXLSX, "evaluations.xlsx", data)
}

func writeFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
