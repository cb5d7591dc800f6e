package handler

import (
	"net/http"

	"github.com/akvora-api/internal/application/report"
	"github.com/akvora-api/internal/domain"
	"github.com/akvora-api/internal/transport/http/middleware"
)

// ReportHandler forwards user issue reports to the support inbox.
type ReportHandler struct {
	svc report.Service
}

func NewReportHandler(svc report.Service) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func (h *ReportHandler) ReportIssue(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.ReportIssueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ReportIssue(r.Context(), u, req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Your issue has been sent to the Akvora team."})
}
