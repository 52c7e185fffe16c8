package realtime

import (
	"fmt"
	"strings"
)

// Room is a subscription scope key. A room has no stored representation
// beyond the set of connections currently in it; the key is derived from the
// entity it tracks.
type Room string

const (
	orderRoomPrefix      = "order-"
	restaurantRoomPrefix = "restaurant-"
	adminRoomPrefix      = "admin-"

	// SuperadminRoom is the single fixed room shared by every superadmin
	// session.
	SuperadminRoom Room = "superadmin"
)

// OrderRoom returns the room key for one order.
func OrderRoom(orderID string) Room {
	return Room(orderRoomPrefix + orderID)
}

// RestaurantRoom returns the room key for one restaurant.
func RestaurantRoom(restaurantID string) Room {
	return Room(restaurantRoomPrefix + restaurantID)
}

// AdminRoom returns the room key for one admin's notifications.
func AdminRoom(adminID string) Room {
	return Room(adminRoomPrefix + adminID)
}

// Domain returns the domain the room belongs to, or DomainUnknown for a
// malformed key.
func (r Room) Domain() Domain {
	switch {
	case r == SuperadminRoom:
		return DomainSuperadmin
	case strings.HasPrefix(string(r), orderRoomPrefix) && len(r) > len(orderRoomPrefix):
		return DomainOrder
	case strings.HasPrefix(string(r), restaurantRoomPrefix) && len(r) > len(restaurantRoomPrefix):
		return DomainRestaurant
	case strings.HasPrefix(string(r), adminRoomPrefix) && len(r) > len(adminRoomPrefix):
		return DomainAdmin
	default:
		return DomainUnknown
	}
}

// EntityID returns the entity id embedded in the room key. The superadmin
// room has no entity id.
func (r Room) EntityID() string {
	switch r.Domain() {
	case DomainOrder:
		return strings.TrimPrefix(string(r), orderRoomPrefix)
	case DomainRestaurant:
		return strings.TrimPrefix(string(r), restaurantRoomPrefix)
	case DomainAdmin:
		return strings.TrimPrefix(string(r), adminRoomPrefix)
	default:
		return ""
	}
}

// Valid reports whether the key is well formed.
func (r Room) Valid() bool {
	return r.Domain() != DomainUnknown
}

// ParseRoom validates a raw room key.
func ParseRoom(key string) (Room, error) {
	r := Room(key)
	if !r.Valid() {
		return "", fmt.Errorf("malformed room key %q", key)
	}
	return r, nil
}
