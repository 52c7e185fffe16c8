package websocket

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapdine/ordersync-backend/internal/auth"
	"github.com/tapdine/ordersync-backend/pkg/realtime"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()
	return hub
}

func newTestClient(hub *Hub, userID, role string) *Client {
	return NewClient(hub, nil, &auth.Claims{
		UserID: userID,
		Role:   role,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// register adds the client through the hub's Run loop and waits for it to
// be visible.
func register(t *testing.T, hub *Hub, client *Client) {
	t.Helper()
	hub.Register <- client
	require.Eventually(t, func() bool {
		return hub.IsUserConnected(client.UserID)
	}, time.Second, 5*time.Millisecond)
}

// receive reads the next envelope from a client's send queue or fails.
func receive(t *testing.T, client *Client) realtime.Envelope {
	t.Helper()
	select {
	case env, ok := <-client.Send:
		require.True(t, ok, "send channel closed unexpectedly")
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for envelope")
		return realtime.Envelope{}
	}
}

func TestHubRoomDelivery(t *testing.T) {
	hub := newTestHub(t)

	inRoom := newTestClient(hub, "user-1", auth.RoleUser)
	outOfRoom := newTestClient(hub, "user-2", auth.RoleUser)
	register(t, hub, inRoom)
	register(t, hub, outOfRoom)

	room := realtime.OrderRoom("ord-1")
	hub.joinRoom(inRoom, room)

	require.NoError(t, hub.Broadcast(realtime.Envelope{
		Event:   realtime.EventOrderCreated,
		Room:    room,
		Payload: map[string]string{"id": "ord-1"},
	}))

	env := receive(t, inRoom)
	assert.Equal(t, realtime.EventOrderCreated, env.Event)
	assert.Equal(t, room, env.Room)

	// The client outside the room must see nothing.
	select {
	case env := <-outOfRoom.Send:
		t.Fatalf("unexpected envelope for non-member: %v", env.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubEmptyRoomIsSilentSuccess(t *testing.T) {
	hub := newTestHub(t)

	require.NoError(t, hub.Broadcast(realtime.Envelope{
		Event: realtime.EventOrderCreated,
		Room:  realtime.OrderRoom("nobody-here"),
	}))
}

func TestHubPerRoomOrdering(t *testing.T) {
	hub := newTestHub(t)

	client := newTestClient(hub, "user-1", auth.RoleUser)
	register(t, hub, client)

	room := realtime.OrderRoom("ord-1")
	hub.joinRoom(client, room)

	const n = 50
	for i := 0; i < n; i++ {
		require.NoError(t, hub.Broadcast(realtime.Envelope{
			Event:   realtime.EventOrderStatusUpdated,
			Room:    room,
			Payload: fmt.Sprintf("seq-%d", i),
		}))
	}

	for i := 0; i < n; i++ {
		env := receive(t, client)
		assert.Equal(t, fmt.Sprintf("seq-%d", i), env.Payload)
	}
}

func TestHubMultipleConnectionsPerUser(t *testing.T) {
	hub := newTestHub(t)

	tab1 := newTestClient(hub, "user-1", auth.RoleUser)
	tab2 := newTestClient(hub, "user-1", auth.RoleUser)
	register(t, hub, tab1)
	register(t, hub, tab2)

	assert.Equal(t, 2, hub.ClientCount())

	room := realtime.OrderRoom("ord-1")
	hub.joinRoom(tab1, room)
	hub.joinRoom(tab2, room)

	require.NoError(t, hub.Broadcast(realtime.Envelope{
		Event: realtime.EventOrderCreated,
		Room:  room,
	}))

	// Both tabs receive the event independently.
	receive(t, tab1)
	receive(t, tab2)
}

func TestHubJoinIsIdempotent(t *testing.T) {
	hub := newTestHub(t)

	client := newTestClient(hub, "user-1", auth.RoleUser)
	register(t, hub, client)

	room := realtime.OrderRoom("ord-1")
	hub.joinRoom(client, room)
	hub.joinRoom(client, room)

	assert.Equal(t, 1, hub.ClientsInRoom(room))

	require.NoError(t, hub.Broadcast(realtime.Envelope{
		Event: realtime.EventOrderCreated,
		Room:  room,
	}))
	receive(t, client)

	// Exactly one copy was queued.
	select {
	case <-client.Send:
		t.Fatal("received duplicate envelope after double join")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubLeaveUnknownRoomIsNoop(t *testing.T) {
	hub := newTestHub(t)

	client := newTestClient(hub, "user-1", auth.RoleUser)
	register(t, hub, client)

	hub.leaveRoom(client, realtime.OrderRoom("never-joined"))
	assert.Equal(t, 0, hub.RoomCount())
}

func TestHubUnregisterRemovesAllMemberships(t *testing.T) {
	hub := newTestHub(t)

	client := newTestClient(hub, "user-1", auth.RoleAdmin)
	register(t, hub, client)

	hub.joinRoom(client, realtime.OrderRoom("ord-1"))
	hub.joinRoom(client, realtime.RestaurantRoom("rest-1"))
	assert.Equal(t, 2, hub.RoomCount())

	hub.Unregister <- client

	require.Eventually(t, func() bool {
		return !hub.IsUserConnected("user-1")
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, hub.RoomCount())
	assert.Equal(t, 0, hub.ClientsInRoom(realtime.OrderRoom("ord-1")))

	// Send channel is closed so the write pump terminates.
	_, ok := <-client.Send
	assert.False(t, ok)
}

// newTestConnPair upgrades one real websocket connection and returns both
// ends of it.
func newTestConnPair(t *testing.T) (serverConn, clientConn *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientConn.Close() })

	select {
	case serverConn = <-conns:
		return serverConn, clientConn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for websocket upgrade")
		return nil, nil
	}
}

func TestHubUnregisterClosesConnection(t *testing.T) {
	hub := newTestHub(t)

	serverConn, clientConn := newTestConnPair(t)
	client := NewClient(hub, serverConn, &auth.Claims{
		UserID: "user-1",
		Role:   auth.RoleUser,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	register(t, hub, client)

	hub.Unregister <- client
	require.Eventually(t, func() bool {
		return !hub.IsUserConnected("user-1")
	}, time.Second, 5*time.Millisecond)

	// The peer observes the teardown right away rather than after the write
	// pump drains its backlog against write deadlines.
	require.NoError(t, clientConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := clientConn.ReadMessage()
	assert.Error(t, err)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := newTestHub(t)

	slow := newTestClient(hub, "user-1", auth.RoleUser)
	register(t, hub, slow)

	room := realtime.OrderRoom("ord-1")
	hub.joinRoom(slow, room)

	// Nothing drains slow.Send; once its buffer is full the hub must cut
	// the connection instead of blocking the broadcast loop. Keep pushing
	// until the hub reacts, since the broadcast queue itself may shed load.
	require.Eventually(t, func() bool {
		_ = hub.Broadcast(realtime.Envelope{
			Event: realtime.EventOrderStatusUpdated,
			Room:  room,
		})
		return !hub.IsUserConnected("user-1")
	}, 5*time.Second, time.Millisecond)
}

func TestHubEvictedClientCannotRejoin(t *testing.T) {
	hub := newTestHub(t)

	evicted := newTestClient(hub, "user-1", auth.RoleUser)
	healthy := newTestClient(hub, "user-2", auth.RoleUser)
	register(t, hub, evicted)
	register(t, hub, healthy)

	room := realtime.OrderRoom("ord-1")
	hub.joinRoom(evicted, room)

	// Fill the stalled client's buffer until the hub cuts it loose.
	require.Eventually(t, func() bool {
		_ = hub.Broadcast(realtime.Envelope{
			Event: realtime.EventOrderStatusUpdated,
			Room:  room,
		})
		return !hub.IsUserConnected("user-1")
	}, 5*time.Second, time.Millisecond)

	waitFor := func(want string) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case env, ok := <-healthy.Send:
				require.True(t, ok, "send channel closed unexpectedly")
				if env.Payload == want {
					return
				}
			case <-deadline:
				t.Fatalf("timed out waiting for %q", want)
			}
		}
	}

	// Wait for the broadcast queue to drain past the flood before putting a
	// live client into the contested room. Broadcast sheds load when the
	// queue is full, so keep pushing the sentinel until it lands.
	sentinel := realtime.OrderRoom("sentinel")
	hub.joinRoom(healthy, sentinel)
	require.Eventually(t, func() bool {
		_ = hub.Broadcast(realtime.Envelope{
			Event:   realtime.EventOrderStatusUpdated,
			Room:    sentinel,
			Payload: "drained",
		})
		select {
		case env := <-healthy.Send:
			return env.Payload == "drained"
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	// A join control message read after the eviction must not restore the
	// dead connection's membership.
	evicted.handleIncomingMessage([]byte(`{"type":"join-order","payload":{"id":"ord-1"}}`))
	assert.Equal(t, 0, hub.ClientsInRoom(room))

	// The hub keeps running and delivering to live members.
	hub.joinRoom(healthy, room)
	require.NoError(t, hub.Broadcast(realtime.Envelope{
		Event:   realtime.EventOrderStatusUpdated,
		Room:    room,
		Payload: "after-eviction",
	}))
	waitFor("after-eviction")
	assert.Equal(t, 1, hub.ClientsInRoom(room))
}
