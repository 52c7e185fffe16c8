package services

import (
	"context"
	"strings"
	"time"

	"github.com/tapdine/ordersync-backend/internal/core/domain"
	apperrors "github.com/tapdine/ordersync-backend/internal/core/errors"
	"github.com/tapdine/ordersync-backend/internal/core/ports"
	"github.com/tapdine/ordersync-backend/pkg/realtime"
)

// PlatformService produces admin and superadmin notifications plus the
// periodic platform stats event.
type PlatformService struct {
	orders      ports.OrderRepository
	restaurants ports.RestaurantRepository
	stats       ports.HubStats
	notifier    ports.RoomNotifier
}

var _ ports.PlatformService = (*PlatformService)(nil)

// NewPlatformService creates a new platform service.
func NewPlatformService(
	orders ports.OrderRepository,
	restaurants ports.RestaurantRepository,
	stats ports.HubStats,
	notifier ports.RoomNotifier,
) *PlatformService {
	return &PlatformService{
		orders:      orders,
		restaurants: restaurants,
		stats:       stats,
		notifier:    notifier,
	}
}

// NotifyAdmin sends a notice to one admin's room.
func (s *PlatformService) NotifyAdmin(ctx context.Context, adminID string, notice domain.NoticePayload) error {
	if strings.TrimSpace(notice.Message) == "" {
		return apperrors.ErrMessageRequired
	}
	notice.SentAt = time.Now().UTC().Format(time.RFC3339)
	return s.notifier.NotifyAdmin(adminID, realtime.EventAdminNotification, notice)
}

// NotifySuperadmins sends a notice to every superadmin session.
func (s *PlatformService) NotifySuperadmins(ctx context.Context, notice domain.NoticePayload) error {
	if strings.TrimSpace(notice.Message) == "" {
		return apperrors.ErrMessageRequired
	}
	notice.SentAt = time.Now().UTC().Format(time.RFC3339)
	return s.notifier.NotifySuperadmins(realtime.EventSuperadminNotification, notice)
}

// PublishStats snapshots platform counters and fans them out to the
// superadmin room.
func (s *PlatformService) PublishStats(ctx context.Context) (*domain.PlatformStatsPayload, error) {
	activeOrders, err := s.orders.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	openRestaurants, err := s.restaurants.CountOpen(ctx)
	if err != nil {
		return nil, err
	}

	payload := &domain.PlatformStatsPayload{
		ActiveOrders:      activeOrders,
		ActiveRestaurants: openRestaurants,
		ConnectedClients:  s.stats.ClientCount(),
	}

	if err := s.notifier.NotifySuperadmins(realtime.EventPlatformStatsUpdated, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
