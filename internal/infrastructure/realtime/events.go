package realtime

import (
	"context"
	"encoding/json"
	"fmt"
)

// Event names understood by the web client.
const (
	EventNotificationNew     = "notification:new"
	EventAnnouncementNew     = "announcement:new"
	EventAnnouncementUpdated = "announcement:updated"
	EventAnnouncementDeleted = "announcement:deleted"
	EventRegistrationStatus  = "registration:status-updated"
)

// AdminRoom receives events addressed to every connected admin.
const AdminRoom = "admin"

// UserRoom is the room a user's connections join.
func UserRoom(userID string) string { return "user:" + userID }

// Emitter pushes events to connected clients. Delivery is fire-and-forget:
// offline recipients simply miss the event.
type Emitter interface {
	EmitToUser(ctx context.Context, userID, event string, data any) error
	EmitToRoom(ctx context.Context, room, event string, data any) error
	Broadcast(ctx context.Context, event string, data any) error
}

// frame is the wire shape of every server-to-client message.
type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func encodeFrame(event string, data any) ([]byte, error) {
	b, err := json.Marshal(frame{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", event, err)
	}
	return b, nil
}
