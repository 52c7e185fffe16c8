// Package realtime defines the wire protocol shared by the server and its
// clients: the catalog of event tags, room keys, the message envelope, and a
// managed websocket client.
package realtime

import (
	"encoding/json"
	"fmt"
)

// Domain groups events by the dashboard surface they belong to.
type Domain int

const (
	DomainUnknown Domain = iota
	DomainOrder
	DomainRestaurant
	DomainAdmin
	DomainSuperadmin
)

// String returns a human-readable name for the domain.
func (d Domain) String() string {
	switch d {
	case DomainOrder:
		return "order"
	case DomainRestaurant:
		return "restaurant"
	case DomainAdmin:
		return "admin"
	case DomainSuperadmin:
		return "superadmin"
	default:
		return "unknown"
	}
}

// Event identifies a kind of realtime notification. The set is closed: events
// are declared here once and mapped to wire tags only at the serialization
// boundary, so a mistyped tag is a compile error rather than a silent
// delivery failure. The zero value is invalid.
type Event int

const (
	eventInvalid Event = iota

	// Order lifecycle
	EventOrderCreated
	EventOrderStatusUpdated
	EventOrderCancelled
	EventPaymentStatusUpdated

	// Restaurant dashboard
	EventRestaurantStatusUpdated
	EventNewOrderNotification

	// Admin dashboard
	EventAdminNotification

	// Superadmin dashboard
	EventSuperadminNotification
	EventPlatformStatsUpdated
)

// eventTags maps each event to its wire-level tag.
var eventTags = map[Event]string{
	EventOrderCreated:            "order-created",
	EventOrderStatusUpdated:      "order-status-updated",
	EventOrderCancelled:          "order-cancelled",
	EventPaymentStatusUpdated:    "payment-status-updated",
	EventRestaurantStatusUpdated: "restaurant-status-updated",
	EventNewOrderNotification:    "new-order-notification",
	EventAdminNotification:       "admin-notification",
	EventSuperadminNotification:  "superadmin-notification",
	EventPlatformStatsUpdated:    "platform-stats-updated",
}

// eventsByTag is the reverse index used when parsing incoming tags.
var eventsByTag = func() map[string]Event {
	m := make(map[string]Event, len(eventTags))
	for ev, tag := range eventTags {
		m[tag] = ev
	}
	return m
}()

// eventDomains maps each event to its domain.
var eventDomains = map[Event]Domain{
	EventOrderCreated:            DomainOrder,
	EventOrderStatusUpdated:      DomainOrder,
	EventOrderCancelled:          DomainOrder,
	EventPaymentStatusUpdated:    DomainOrder,
	EventRestaurantStatusUpdated: DomainRestaurant,
	EventNewOrderNotification:    DomainRestaurant,
	EventAdminNotification:       DomainAdmin,
	EventSuperadminNotification:  DomainSuperadmin,
	EventPlatformStatsUpdated:    DomainSuperadmin,
}

// String returns the wire tag for the event, or "invalid" for an
// unregistered value.
func (e Event) String() string {
	if tag, ok := eventTags[e]; ok {
		return tag
	}
	return "invalid"
}

// Domain returns the domain the event belongs to.
func (e Event) Domain() Domain {
	return eventDomains[e]
}

// Valid reports whether the event is a registered member of the catalog.
func (e Event) Valid() bool {
	_, ok := eventTags[e]
	return ok
}

// ParseEvent resolves a wire tag to its event. Unknown tags are rejected so a
// bad tag never propagates past this boundary.
func ParseEvent(tag string) (Event, error) {
	if ev, ok := eventsByTag[tag]; ok {
		return ev, nil
	}
	return eventInvalid, fmt.Errorf("unregistered event tag %q", tag)
}

// MarshalJSON encodes the event as its wire tag.
func (e Event) MarshalJSON() ([]byte, error) {
	tag, ok := eventTags[e]
	if !ok {
		return nil, fmt.Errorf("cannot marshal unregistered event %d", int(e))
	}
	return json.Marshal(tag)
}

// UnmarshalJSON decodes a wire tag, rejecting unregistered tags.
func (e *Event) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	ev, err := ParseEvent(tag)
	if err != nil {
		return err
	}
	*e = ev
	return nil
}

// Events returns the full catalog, usable by clients that want to subscribe
// to everything in a domain.
func Events() []Event {
	out := make([]Event, 0, len(eventTags))
	for ev := range eventTags {
		out = append(out, ev)
	}
	return out
}
