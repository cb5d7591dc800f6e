package handler

import (
	"context"
	"net/http"
	"slices"

	"github.com/akvora-api/internal/domain"
	jwtinfra "github.com/akvora-api/internal/infrastructure/jwt"
	"github.com/akvora-api/internal/infrastructure/realtime"
	"github.com/gorilla/websocket"
)

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*jwtinfra.Claims, *domain.User, error)
}

// RealtimeHandler upgrades authenticated requests to websocket connections
// and attaches them to the hub.
type RealtimeHandler struct {
	auth     authenticator
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

func NewRealtimeHandler(auth authenticator, hub *realtime.Hub, allowedOrigins []string) *RealtimeHandler {
	return &RealtimeHandler{
		auth: auth,
		hub:  hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Connect authenticates the token query parameter before upgrading, since
// browsers cannot set headers on websocket requests.
func (h *RealtimeHandler) Connect(w http.ResponseWriter, r *http.Request) {
	claims, _, err := h.auth.Authenticate(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		httpError(w, err)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		return
	}
	rooms := []string{realtime.UserRoom(claims.UserID)}
	if claims.Role == domain.RoleAdmin {
		rooms = append(rooms, realtime.AdminRoom)
	}
	h.hub.Attach(conn, claims.UserID, rooms...)
}
