package handler

import (
	"net/http"

	"github.com/akvora-api/internal/application/video"
	"github.com/akvora-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// VideoHandler handles the embedded video library. Reads are public.
type VideoHandler struct {
	svc video.Service
}

func NewVideoHandler(svc video.Service) *VideoHandler {
	return &VideoHandler{svc: svc}
}

func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	adminID, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.CreateVideoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := h.svc.Create(r.Context(), adminID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateVideoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "video deleted"})
}
