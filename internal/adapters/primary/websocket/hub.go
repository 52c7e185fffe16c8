package websocket

import (
	"log/slog"
	"sync"

	"github.com/tapdine/ordersync-backend/internal/core/ports"
	"github.com/tapdine/ordersync-backend/pkg/realtime"
)

// Hub maintains the set of active Clients and fans envelopes out to the
// rooms they joined. All envelopes pass through one Run loop, so two notify
// calls issued in order on one emitting path reach every subscriber in that
// order.
type Hub struct {
	// clients maps user IDs to their active connections.
	// A single user can have multiple connections (multiple tabs/devices).
	clients map[string]map[*Client]bool

	// rooms maps room keys to subscribed clients.
	rooms map[realtime.Room]map[*Client]bool

	// broadcast is the ordered output path for envelopes.
	broadcast chan realtime.Envelope

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// mu protects the clients and rooms maps
	mu sync.RWMutex

	// logger for the hub
	logger *slog.Logger
}

// Ensure Hub implements the broadcaster and stats ports.
var (
	_ ports.EventBroadcaster = (*Hub)(nil)
	_ ports.HubStats         = (*Hub)(nil)
)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		rooms:      make(map[realtime.Room]map[*Client]bool),
		broadcast:  make(chan realtime.Envelope, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast queues an envelope on the hub's ordered output path. It never
// blocks the caller; when the channel is full the envelope is dropped with a
// warning, matching the fire-and-forget delivery contract.
func (h *Hub) Broadcast(env realtime.Envelope) error {
	select {
	case h.broadcast <- env:
		return nil
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event", env.Event.String(),
			"room", string(env.Room),
		)
		return nil
	}
}

// Run starts the hub's event loop. This MUST be run as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case env := <-h.broadcast:
			h.broadcastEnvelope(env)
		}
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]bool)
	}
	h.clients[client.UserID][client] = true

	h.logger.Info("client registered",
		"user_id", client.UserID,
		"role", client.Role,
		"total_connections", len(h.clients[client.UserID]),
	)
}

// unregisterClient removes a client from the hub and all of its rooms in one
// critical section, so no envelope broadcast after unregistration can reach
// it.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	memberships := client.Memberships()

	// 1. Remove from the global user map
	if userClients, ok := h.clients[client.UserID]; ok {
		if _, exists := userClients[client]; exists {
			delete(userClients, client)
			if len(userClients) == 0 {
				delete(h.clients, client.UserID)
			}
		}
	}

	// 2. Remove from all joined rooms
	for _, room := range memberships {
		if members, ok := h.rooms[room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}

	// 3. Close the network connection so both pumps stop promptly instead
	// of draining stale envelopes against write deadlines, then close the
	// send channel.
	if client.Conn != nil {
		_ = client.Conn.Close()
	}
	client.CloseSend()

	h.logger.Info("client unregistered",
		"user_id", client.UserID,
		"rooms_left", len(memberships),
	)
}

// broadcastEnvelope delivers an envelope to every client currently in its
// room. An empty room is silent success.
func (h *Hub) broadcastEnvelope(env realtime.Envelope) {
	h.mu.RLock()
	members, ok := h.rooms[env.Room]
	if !ok {
		h.mu.RUnlock()
		return
	}

	// Copy the client list to avoid holding the lock while sending
	clients := make([]*Client, 0, len(members))
	for client := range members {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting event",
		"event", env.Event.String(),
		"room", string(env.Room),
		"client_count", len(clients),
	)

	for _, client := range clients {
		select {
		case client.Send <- env:
			// Successfully queued
		default:
			// Client's send buffer is full, unregister them
			h.logger.Warn("client send buffer full, unregistering",
				"user_id", client.UserID,
			)
			h.unregisterClient(client)
		}
	}
}

// joinRoom adds a client to a room. Joining a room twice is idempotent.
// Joins from an already unregistered client are refused: the eviction path
// closes the client's Send channel, and a resurrected membership would make
// the next fan-out panic the Run loop.
func (h *Hub) joinRoom(client *Client, room realtime.Room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !client.addMembership(room) {
		h.logger.Warn("ignoring join from unregistered client",
			"user_id", client.UserID,
			"room", string(room),
		)
		return
	}

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true

	h.logger.Debug("client joined room",
		"user_id", client.UserID,
		"room", string(room),
	)
}

// leaveRoom removes a client from a room. Leaving a room the client never
// joined is a no-op.
func (h *Hub) leaveRoom(client *Client, room realtime.Room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	client.removeMembership(room)

	h.logger.Debug("client left room",
		"user_id", client.UserID,
		"room", string(room),
	)
}

// ClientCount returns the total number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, userClients := range h.clients {
		count += len(userClients)
	}
	return count
}

// RoomCount returns the number of rooms with at least one member
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// ClientsInRoom returns the number of clients currently in a room
func (h *Hub) ClientsInRoom(room realtime.Room) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if members, ok := h.rooms[room]; ok {
		return len(members)
	}
	return 0
}

// IsUserConnected checks if a user has any active connections
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.clients[userID]
	return ok && len(clients) > 0
}
