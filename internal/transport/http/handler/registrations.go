package handler

import (
	"net/http"

	"github.com/akvora-api/internal/application/registration"
	"github.com/akvora-api/internal/domain"
	"github.com/akvora-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// RegistrationHandler handles event registration endpoints.
type RegistrationHandler struct {
	svc registration.Service
}

func NewRegistrationHandler(svc registration.Service) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

func (h *RegistrationHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CreateRegistrationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reg, err := h.svc.Create(r.Context(), u, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

func (h *RegistrationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Mine(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *RegistrationHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListByEvent(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *RegistrationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateRegistrationStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reg, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}
