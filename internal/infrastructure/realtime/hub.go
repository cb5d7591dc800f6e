package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/akvora-api/internal/infrastructure/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub tracks this instance's websocket clients and the rooms they joined.
// All sends happen under the read lock and removals under the write lock,
// so a client's send channel is never written after it is closed.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

// Attach registers conn in the given rooms and starts its pumps.
func (h *Hub) Attach(conn *websocket.Conn, userID string, rooms ...string) *Client {
	c := &Client{
		id:     uuid.NewString(),
		userID: userID,
		rooms:  rooms,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		hub:    h,
	}
	h.join(c)
	go c.writePump()
	go c.readPump()
	return c
}

func (h *Hub) join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	for _, room := range c.rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[*Client]struct{})
			h.rooms[room] = members
		}
		members[c] = struct{}{}
	}
	metrics.RealtimeConnections.Inc()
	slog.Debug("realtime client joined", "client_id", c.id, "user_id", c.userID, "rooms", c.rooms)
}

func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for _, room := range c.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	close(c.send)
	metrics.RealtimeConnections.Dec()
	slog.Debug("realtime client left", "client_id", c.id, "user_id", c.userID)
}

// Deliver sends an encoded frame to every client in room, or to every
// client when room is empty. Clients whose buffers are full are dropped.
// It returns the number of clients the frame was queued for.
func (h *Hub) Deliver(room string, msg []byte) int {
	var slow []*Client
	queued := 0

	h.mu.RLock()
	targets := h.clients
	if room != "" {
		targets = h.rooms[room]
	}
	for c := range targets {
		select {
		case c.send <- msg:
			queued++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Warn("dropping slow realtime client", "client_id", c.id, "user_id", c.userID)
		h.leave(c)
	}
	return queued
}

// Connections returns the number of attached clients.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) EmitToUser(ctx context.Context, userID, event string, data any) error {
	return h.EmitToRoom(ctx, UserRoom(userID), event, data)
}

func (h *Hub) EmitToRoom(_ context.Context, room, event string, data any) error {
	msg, err := encodeFrame(event, data)
	if err != nil {
		return err
	}
	metrics.RealtimeEvents.WithLabelValues(event).Inc()
	h.Deliver(room, msg)
	return nil
}

func (h *Hub) Broadcast(_ context.Context, event string, data any) error {
	msg, err := encodeFrame(event, data)
	if err != nil {
		return err
	}
	metrics.RealtimeEvents.WithLabelValues(event).Inc()
	h.Deliver("", msg)
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.leave(c)
	}
}
