package services

import (
	"fmt"

	apperrors "github.com/tapdine/ordersync-backend/internal/core/errors"
	"github.com/tapdine/ordersync-backend/internal/core/ports"
	"github.com/tapdine/ordersync-backend/pkg/realtime"
)

// NotificationService is the room router: it rejects unregistered events
// before they reach the wire, then hands the envelope to the broadcaster.
// Delivery is fire-and-forget; an empty room is silent success.
type NotificationService struct {
	broadcaster ports.EventBroadcaster
}

var _ ports.RoomNotifier = (*NotificationService)(nil)

// NewNotificationService creates a new room router over the given
// broadcaster (the in-process hub or a broker bridge).
func NewNotificationService(broadcaster ports.EventBroadcaster) *NotificationService {
	return &NotificationService{broadcaster: broadcaster}
}

// NotifyRestaurant delivers an event to the restaurant's room.
func (s *NotificationService) NotifyRestaurant(restaurantID string, event realtime.Event, payload any) error {
	return s.notify(realtime.RestaurantRoom(restaurantID), event, payload)
}

// NotifyOrder delivers an event to the order's room.
func (s *NotificationService) NotifyOrder(orderID string, event realtime.Event, payload any) error {
	return s.notify(realtime.OrderRoom(orderID), event, payload)
}

// NotifyAdmin delivers an event to the admin's room.
func (s *NotificationService) NotifyAdmin(adminID string, event realtime.Event, payload any) error {
	return s.notify(realtime.AdminRoom(adminID), event, payload)
}

// NotifySuperadmins delivers an event to every connection in the fixed
// superadmin room.
func (s *NotificationService) NotifySuperadmins(event realtime.Event, payload any) error {
	return s.notify(realtime.SuperadminRoom, event, payload)
}

func (s *NotificationService) notify(room realtime.Room, event realtime.Event, payload any) error {
	// An unregistered event is a programming error; fail fast here rather
	// than propagate a bad tag onto the wire.
	if !event.Valid() {
		return fmt.Errorf("%w: %d", apperrors.ErrUnregisteredEvent, int(event))
	}

	return s.broadcaster.Broadcast(realtime.Envelope{
		Event:   event,
		Room:    room,
		Payload: payload,
	})
}
