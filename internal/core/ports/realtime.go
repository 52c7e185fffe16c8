package ports

import (
	"github.com/tapdine/ordersync-backend/pkg/realtime"
)

// EventBroadcaster is the output port of the realtime core: something able to
// deliver an envelope to every connection currently in its room. Delivery is
// fire-and-forget; fan-out to an empty room is silent success.
type EventBroadcaster interface {
	Broadcast(env realtime.Envelope) error
}

// RoomNotifier is the input port domain handlers call after a successful
// state mutation. Each operation targets exactly one scope; events are
// validated against the scope's domain before they reach the wire.
type RoomNotifier interface {
	NotifyRestaurant(restaurantID string, event realtime.Event, payload any) error
	NotifyOrder(orderID string, event realtime.Event, payload any) error
	NotifyAdmin(adminID string, event realtime.Event, payload any) error
	NotifySuperadmins(event realtime.Event, payload any) error
}

// HubStats exposes connection counts for the platform stats event.
type HubStats interface {
	ClientCount() int
	RoomCount() int
}
