package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tapdine/ordersync-backend/internal/auth"
	"github.com/tapdine/ordersync-backend/pkg/realtime"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound envelopes.
	Send chan realtime.Envelope

	// Identity from the connection's token.
	UserID       string
	Role         string
	RestaurantID string

	// memberships holds the rooms this client has joined.
	memberships map[realtime.Room]bool

	// closed is set once the hub has unregistered the client. A closed
	// client must never re-enter a room: its Send channel is gone.
	closed bool

	// closeOnce ensures the Send channel is only closed once
	closeOnce sync.Once

	// mu protects the memberships map and the closed flag
	mu sync.RWMutex

	// logger for this client
	logger *slog.Logger
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, conn *websocket.Conn, claims *auth.Claims, logger *slog.Logger) *Client {
	return &Client{
		Hub:          hub,
		Conn:         conn,
		Send:         make(chan realtime.Envelope, 256),
		UserID:       claims.UserID,
		Role:         claims.Role,
		RestaurantID: claims.RestaurantID,
		memberships:  make(map[realtime.Room]bool),
		logger:       logger.With("user_id", claims.UserID, "role", claims.Role),
	}
}

// CloseSend safely closes the Send channel exactly once
func (c *Client) CloseSend() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.Send)
	})
}

// addMembership records a joined room. It reports false once the client has
// been unregistered: a control message read after eviction must not put the
// connection back into a room whose fan-out would hit the closed Send
// channel.
func (c *Client) addMembership(room realtime.Room) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.memberships[room] = true
	return true
}

// removeMembership forgets a room
func (c *Client) removeMembership(room realtime.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.memberships, room)
}

// InRoom checks if the client has joined a room
func (c *Client) InRoom(room realtime.Room) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.memberships[room]
}

// Memberships returns a copy of all joined rooms
func (c *Client) Memberships() []realtime.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]realtime.Room, 0, len(c.memberships))
	for room := range c.memberships {
		rooms = append(rooms, room)
	}
	return rooms
}

// ReadPump pumps messages from the websocket connection to the hub.
// This method runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		c.handleIncomingMessage(message)
	}
}

// WritePump pumps envelopes from the hub to the websocket connection.
// This method runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the channel. Send close message.
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug("failed to send close message", "error", err)
				}
				return
			}

			if err := c.writeJSON(env); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}

			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

// writeJSON writes a JSON envelope to the websocket connection
func (c *Client) writeJSON(env realtime.Envelope) error {
	w, err := c.Conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(env); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// --- Incoming Message Handling ---

// handleIncomingMessage processes control messages received from the client.
// Membership is mutated only here: the server never adds a connection to a
// room it did not ask for.
func (c *Client) handleIncomingMessage(message []byte) {
	var msg realtime.ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		return
	}

	switch msg.Type {
	case realtime.MsgJoinOrder:
		if id, ok := c.scopeID(msg.Payload); ok {
			c.Hub.joinRoom(c, realtime.OrderRoom(id))
		}

	case realtime.MsgLeaveOrder:
		if id, ok := c.scopeID(msg.Payload); ok {
			c.Hub.leaveRoom(c, realtime.OrderRoom(id))
		}

	case realtime.MsgJoinRestaurant:
		id, ok := c.scopeID(msg.Payload)
		if !ok {
			return
		}
		if c.Role != auth.RoleSuperadmin && !(c.Role == auth.RoleAdmin && c.RestaurantID == id) {
			c.logger.Warn("rejected restaurant room join", "restaurant_id", id)
			return
		}
		c.Hub.joinRoom(c, realtime.RestaurantRoom(id))

	case realtime.MsgLeaveRestaurant:
		if id, ok := c.scopeID(msg.Payload); ok {
			c.Hub.leaveRoom(c, realtime.RestaurantRoom(id))
		}

	case realtime.MsgJoinAdmin:
		id, ok := c.scopeID(msg.Payload)
		if !ok {
			return
		}
		if c.Role != auth.RoleSuperadmin && !(c.Role == auth.RoleAdmin && c.UserID == id) {
			c.logger.Warn("rejected admin room join", "admin_id", id)
			return
		}
		c.Hub.joinRoom(c, realtime.AdminRoom(id))

	case realtime.MsgLeaveAdmin:
		if id, ok := c.scopeID(msg.Payload); ok {
			c.Hub.leaveRoom(c, realtime.AdminRoom(id))
		}

	case realtime.MsgJoinSuperadmin:
		if c.Role != auth.RoleSuperadmin {
			c.logger.Warn("rejected superadmin room join")
			return
		}
		c.Hub.joinRoom(c, realtime.SuperadminRoom)

	case realtime.MsgLeaveSuperadmin:
		c.Hub.leaveRoom(c, realtime.SuperadminRoom)

	case realtime.MsgPublish:
		c.handlePublish(msg.Payload)

	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}

// scopeID extracts the entity id from a join/leave payload.
func (c *Client) scopeID(payload json.RawMessage) (string, bool) {
	var p realtime.ScopePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn("failed to unmarshal scope payload", "error", err)
		return "", false
	}
	if p.ID == "" {
		c.logger.Warn("empty scope id in join/leave request")
		return "", false
	}
	return p.ID, true
}

// handlePublish echoes a client-emitted event to the rooms the client is in.
// Client publishes are advisory; dashboards drive state changes through the
// REST API, which emits authoritative events.
func (c *Client) handlePublish(payload json.RawMessage) {
	var p realtime.PublishPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn("failed to unmarshal publish payload", "error", err)
		return
	}
	if !p.Event.Valid() {
		c.logger.Warn("dropping publish of unregistered event")
		return
	}

	for _, room := range c.Memberships() {
		_ = c.Hub.Broadcast(realtime.Envelope{
			Event:   p.Event,
			Room:    room,
			Payload: p.Payload,
		})
	}
}
