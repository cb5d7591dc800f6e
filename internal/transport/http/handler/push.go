package handler

import (
	"net/http"

	"github.com/akvora-api/internal/application/push"
	"github.com/akvora-api/internal/domain"
)

// PushHandler handles web-push subscription endpoints.
type PushHandler struct {
	svc push.Service
}

func NewPushHandler(svc push.Service) *PushHandler { return &PushHandler{svc: svc} }

func (h *PushHandler) PublicKey(w http.ResponseWriter, _ *http.Request) {
	key := h.svc.VAPIDPublicKey()
	if key == "" {
		writeError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": key})
}

func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.SubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserAgent == "" {
		req.UserAgent = r.UserAgent()
	}
	ep, created, err := h.svc.Subscribe(r.Context(), userID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, ep)
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	var req domain.UnsubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Unsubscribe(r.Context(), userID, req.Endpoint); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "unsubscribed"})
}
