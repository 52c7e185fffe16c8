package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

// State is the lifecycle state of a Client's underlying connection.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateDisconnected
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ErrClosed is returned by Connect after the client has been closed.
var ErrClosed = errors.New("realtime: client closed")

// Handler is invoked for every received envelope matching a subscription.
// Handlers for one connection run sequentially in delivery order.
type Handler func(Envelope)

// Subscription is the handle returned by Subscribe. Unsubscribing twice is a
// no-op. A handler may still fire once after Unsubscribe if delivery was
// already scheduled; that race is accepted.
type Subscription struct {
	client *Client
	event  Event
	id     uint64
	once   sync.Once
}

// Unsubscribe removes the handler. Safe to call multiple times.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.client.mu.Lock()
		defer s.client.mu.Unlock()
		if handlers, ok := s.client.subs[s.event]; ok {
			delete(handlers, s.id)
			if len(handlers) == 0 {
				delete(s.client.subs, s.event)
			}
		}
	})
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Discarded by default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithToken sets the auth token appended to the endpoint as the "token"
// query parameter.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithOnStateChange registers a callback observing connect/disconnect
// transitions. Transport failures are surfaced only through this callback,
// never as errors from Publish or the join/leave operations.
func WithOnStateChange(fn func(State)) Option {
	return func(c *Client) { c.onState = fn }
}

// WithBackoff overrides the reconnect policy. The factory is invoked once per
// Connect call.
func WithBackoff(factory func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackoff = factory }
}

// WithSendBuffer sets the outbound queue size.
func WithSendBuffer(n int) Option {
	return func(c *Client) { c.sendBuf = n }
}

// Client owns exactly one realtime connection. Acquire with New, connect with
// Connect, and release with Close; Close must run on every exit path of the
// owning scope, even if Connect never reached StateConnected.
type Client struct {
	endpoint string
	token    string
	dialer   *websocket.Dialer
	logger   *slog.Logger
	onState  func(State)
	sendBuf  int

	newBackoff func() backoff.BackOff

	mu     sync.Mutex
	state  State
	subs   map[Event]map[uint64]Handler
	scopes map[Room]bool
	nextID uint64
	send   chan ClientMessage

	closed    chan struct{}
	closeOnce sync.Once
}

// New creates an idle client for the given ws:// or wss:// endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		dialer:   websocket.DefaultDialer,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		sendBuf:  64,
		state:    StateIdle,
		subs:     make(map[Event]map[uint64]Handler),
		scopes:   make(map[Room]bool),
		closed:   make(chan struct{}),
	}
	c.newBackoff = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 250 * time.Millisecond
		b.MaxInterval = 30 * time.Second
		b.MaxElapsedTime = 0 // retry until closed
		return b
	}
	for _, opt := range opts {
		opt(c)
	}
	c.send = make(chan ClientMessage, c.sendBuf)
	return c
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts the connection manager. It is idempotent: if the client is
// already connecting or connected the call is a no-op. The manager keeps
// reconnecting with backoff until ctx is cancelled or Close is called; both
// paths tear the connection down.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()
	c.notifyState(StateConnecting)

	go c.run(ctx)
	return nil
}

// Close tears the connection down and transitions to StateDisconnected.
// Safe to call multiple times.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	c.setState(StateDisconnected)
	return nil
}

// Publish sends an event to the server. If the client is not currently
// connected the message is dropped, not queued and not an error: the UI
// cannot block on network state.
func (c *Client) Publish(event Event, payload any) {
	if !event.Valid() {
		c.logger.Warn("dropping publish of unregistered event", "event", int(event))
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		c.logger.Warn("dropping unserializable publish payload", "event", event.String(), "error", err)
		return
	}
	body, err := json.Marshal(PublishPayload{Event: event, Payload: raw})
	if err != nil {
		return
	}
	c.enqueue(ClientMessage{Type: MsgPublish, Payload: body})
}

// Subscribe registers a handler for one event. Multiple handlers per event
// are supported; each receives every matching envelope.
func (c *Client) Subscribe(event Event, h Handler) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	if c.subs[event] == nil {
		c.subs[event] = make(map[uint64]Handler)
	}
	c.subs[event][id] = h

	return &Subscription{client: c, event: event, id: id}
}

// JoinOrder requests membership in the order's room.
func (c *Client) JoinOrder(orderID string) { c.joinScope(OrderRoom(orderID)) }

// LeaveOrder requests removal from the order's room. Leaving a room that was
// never joined is a no-op on the server.
func (c *Client) LeaveOrder(orderID string) { c.leaveScope(OrderRoom(orderID)) }

// JoinRestaurant requests membership in the restaurant's room. The server
// grants it only to connections whose claims cover that restaurant.
func (c *Client) JoinRestaurant(restaurantID string) { c.joinScope(RestaurantRoom(restaurantID)) }

// LeaveRestaurant requests removal from the restaurant's room.
func (c *Client) LeaveRestaurant(restaurantID string) { c.leaveScope(RestaurantRoom(restaurantID)) }

// JoinAdmin requests membership in the admin's notification room.
func (c *Client) JoinAdmin(adminID string) { c.joinScope(AdminRoom(adminID)) }

// LeaveAdmin requests removal from the admin's notification room.
func (c *Client) LeaveAdmin(adminID string) { c.leaveScope(AdminRoom(adminID)) }

// JoinSuperadmin requests membership in the shared superadmin room.
func (c *Client) JoinSuperadmin() { c.joinScope(SuperadminRoom) }

// LeaveSuperadmin requests removal from the superadmin room.
func (c *Client) LeaveSuperadmin() { c.leaveScope(SuperadminRoom) }

// joinScope records the scope and, when connected, sends the join request.
// Recorded scopes are re-requested after a reconnect because the server drops
// all memberships on disconnect.
func (c *Client) joinScope(room Room) {
	c.mu.Lock()
	c.scopes[room] = true
	connected := c.state == StateConnected
	c.mu.Unlock()

	if connected {
		if msg, ok := scopeMessage(room, true); ok {
			c.enqueue(msg)
		}
	}
}

func (c *Client) leaveScope(room Room) {
	c.mu.Lock()
	delete(c.scopes, room)
	connected := c.state == StateConnected
	c.mu.Unlock()

	if connected {
		if msg, ok := scopeMessage(room, false); ok {
			c.enqueue(msg)
		}
	}
}

// scopeMessage builds the join or leave control message for a room.
func scopeMessage(room Room, join bool) (ClientMessage, bool) {
	var msgType string
	switch room.Domain() {
	case DomainOrder:
		msgType = MsgJoinOrder
		if !join {
			msgType = MsgLeaveOrder
		}
	case DomainRestaurant:
		msgType = MsgJoinRestaurant
		if !join {
			msgType = MsgLeaveRestaurant
		}
	case DomainAdmin:
		msgType = MsgJoinAdmin
		if !join {
			msgType = MsgLeaveAdmin
		}
	case DomainSuperadmin:
		msgType = MsgJoinSuperadmin
		if !join {
			msgType = MsgLeaveSuperadmin
		}
	default:
		return ClientMessage{}, false
	}

	payload, err := json.Marshal(ScopePayload{ID: room.EntityID()})
	if err != nil {
		return ClientMessage{}, false
	}
	return ClientMessage{Type: msgType, Payload: payload}, true
}

// enqueue places a message on the outbound queue without blocking. Messages
// are dropped when the queue is full or the client is not connected.
func (c *Client) enqueue(msg ClientMessage) {
	c.mu.Lock()
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected {
		return
	}

	select {
	case c.send <- msg:
	default:
		c.logger.Warn("outbound queue full, dropping message", "type", msg.Type)
	}
}

// run is the connection manager loop: dial, pump, and on failure back off
// and redial until the context is cancelled or the client is closed.
func (c *Client) run(ctx context.Context) {
	endpoint, err := c.dialURL()
	if err != nil {
		c.logger.Error("invalid endpoint", "endpoint", c.endpoint, "error", err)
		c.setState(StateDisconnected)
		return
	}

	policy := c.newBackoff()

	for {
		if c.stopped(ctx) {
			c.setState(StateDisconnected)
			return
		}

		conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
		if err != nil {
			wait := policy.NextBackOff()
			if wait == backoff.Stop {
				c.logger.Warn("giving up on reconnect", "error", err)
				c.setState(StateDisconnected)
				return
			}
			c.logger.Debug("dial failed, retrying", "error", err, "wait", wait)
			select {
			case <-time.After(wait):
				continue
			case <-ctx.Done():
				c.setState(StateDisconnected)
				return
			case <-c.closed:
				c.setState(StateDisconnected)
				return
			}
		}

		policy.Reset()
		c.setState(StateConnected)
		c.rejoinScopes()

		c.pump(ctx, conn)
		_ = conn.Close()

		if c.stopped(ctx) {
			c.setState(StateDisconnected)
			return
		}
		c.setState(StateConnecting)
	}
}

// pump runs the read and write loops for one connection epoch and returns
// when either side fails.
func (c *Client) pump(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})

	// Writer: the only goroutine writing to this conn.
	go func() {
		for {
			select {
			case msg := <-c.send:
				if err := conn.WriteJSON(msg); err != nil {
					c.logger.Debug("write failed", "error", err)
					_ = conn.Close()
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				_ = conn.Close()
				return
			case <-c.closed:
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				_ = conn.Close()
				return
			}
		}
	}()

	defer close(done)

	// Reader: dispatches envelopes in arrival order.
	for {
		var inbound struct {
			Event   Event           `json:"event"`
			Room    Room            `json:"room"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("read error", "error", err)
			}
			return
		}
		c.dispatch(Envelope{Event: inbound.Event, Room: inbound.Room, Payload: inbound.Payload})
	}
}

// dispatch invokes every handler registered for the envelope's event.
func (c *Client) dispatch(env Envelope) {
	c.mu.Lock()
	handlers := make([]Handler, 0, len(c.subs[env.Event]))
	for _, h := range c.subs[env.Event] {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(env)
	}
}

// rejoinScopes re-requests membership in every tracked scope after a
// (re)connect.
func (c *Client) rejoinScopes() {
	c.mu.Lock()
	rooms := make([]Room, 0, len(c.scopes))
	for room := range c.scopes {
		rooms = append(rooms, room)
	}
	c.mu.Unlock()

	for _, room := range rooms {
		if msg, ok := scopeMessage(room, true); ok {
			select {
			case c.send <- msg:
			default:
				c.logger.Warn("outbound queue full, dropping rejoin", "room", string(room))
			}
		}
	}
}

func (c *Client) stopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()
	c.notifyState(s)
}

func (c *Client) notifyState(s State) {
	if c.onState != nil {
		c.onState(s)
	}
}

// dialURL appends the auth token to the configured endpoint.
func (c *Client) dialURL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", err
	}
	if c.token != "" {
		q := u.Query()
		q.Set("token", c.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
