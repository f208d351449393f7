package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

const writeWait = 5 * time.Second

// client serializes writes; gorilla connections allow one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub keeps the open push connections of each user.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*client]struct{}
	log     *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*client]struct{}),
		log:     logger.With("adapter", "ws_hub"),
	}
}

// Serve registers conn for userID and blocks until the peer disconnects.
// Inbound messages are discarded.
func (h *Hub) Serve(userID uuid.UUID, conn *websocket.Conn) {
	c := h.add(userID, conn)
	defer h.remove(userID, c)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Connections returns the number of open connections of a user.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Send pushes the notification to every open connection of the recipient.
// A recipient with no connection is not an error.
func (h *Hub) Send(ctx context.Context, n domain.Notification) error {
	data, err := encode(n)
	if err != nil {
		return err
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[n.RecipientID]))
	for c := range h.clients[n.RecipientID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(data); err != nil {
			h.log.WarnContext(ctx, "ws write failed",
				slog.String("user_id", n.RecipientID.String()),
				slog.String("error", err.Error()),
			)
			h.remove(n.RecipientID, c)
		}
	}
	return nil
}

func (h *Hub) add(userID uuid.UUID, conn *websocket.Conn) *client {
	c := &client{conn: conn}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.log.Debug("ws connected", slog.String("user_id", userID.String()), slog.Int("total", len(h.clients[userID])))
	return c
}

func (h *Hub) remove(userID uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	c.conn.Close()
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
	h.log.Debug("ws disconnected", slog.String("user_id", userID.String()))
}

// Close sends a going-away frame to every connection and drops them.
// http.Server.Shutdown does not touch hijacked connections, so the hub
// must be closed explicitly on shutdown.
func (h *Hub) Close() error {
	h.mu.Lock()
	all := h.clients
	h.clients = make(map[uuid.UUID]map[*client]struct{})
	h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown")
	for _, conns := range all {
		for c := range conns {
			c.mu.Lock()
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			c.mu.Unlock()
			c.conn.Close()
		}
	}
	return nil
}
