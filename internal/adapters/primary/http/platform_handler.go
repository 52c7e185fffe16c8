package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tapdine/ordersync-backend/internal/adapters/primary/validation"
	"github.com/tapdine/ordersync-backend/internal/core/domain"
	"github.com/tapdine/ordersync-backend/internal/core/ports"
)

const maxNoticeMessageLength = 1000

// PlatformHandler handles platform-wide notification endpoints.
// All routes here are superadmin-only; the role check is applied where the
// handler is mounted.
type PlatformHandler struct {
	platformService ports.PlatformService
	errorHandler    *ErrorHandler
	logger          *slog.Logger
}

// NewPlatformHandler creates a new platform handler
func NewPlatformHandler(platformService ports.PlatformService, errorHandler *ErrorHandler, logger *slog.Logger) *PlatformHandler {
	return &PlatformHandler{
		platformService: platformService,
		errorHandler:    errorHandler,
		logger:          logger.With("handler", "platform"),
	}
}

// Router sets up a new chi Router for all platform routes.
func (h *PlatformHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for all platform endpoints.
func (h *PlatformHandler) RegisterRoutes(r chi.Router) {
	r.Post("/notifications", h.HandleNotifySuperadmins)
	r.Post("/stats", h.HandlePublishStats)
}

// NoticeRequest defines the expected JSON body for admin notifications
type NoticeRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   string `json:"level"`
}

// Validate validates the notice request
func (r *NoticeRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("message", r.Message).
		MaxLength("message", r.Message, maxNoticeMessageLength)

	if r.Level != "" {
		v.OneOf("level", r.Level, []string{"info", "warning", "critical"})
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

func (r *NoticeRequest) toNotice() domain.NoticePayload {
	level := r.Level
	if level == "" {
		level = "info"
	}
	return domain.NoticePayload{
		Title:   r.Title,
		Message: r.Message,
		Level:   level,
	}
}

// HandleNotifyAdmin handles POST /admins/{adminID}/notifications
func (h *PlatformHandler) HandleNotifyAdmin(w http.ResponseWriter, r *http.Request) {
	adminID := chi.URLParam(r, "adminID")

	req, err := validation.DecodeAndValidate[NoticeRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.platformService.NotifyAdmin(r.Context(), adminID, req.toNotice()); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("admin notified", "admin_id", adminID)

	WriteAccepted(w, "notification sent")
}

// HandleNotifySuperadmins handles POST /platform/notifications
func (h *PlatformHandler) HandleNotifySuperadmins(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[NoticeRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.platformService.NotifySuperadmins(r.Context(), req.toNotice()); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("superadmins notified")

	WriteAccepted(w, "notification sent")
}

// HandlePublishStats handles POST /platform/stats. It snapshots current
// platform counters and pushes them to the superadmin room.
func (h *PlatformHandler) HandlePublishStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.platformService.PublishStats(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("platform stats published",
		"active_orders", stats.ActiveOrders,
		"connected_clients", stats.ConnectedClients,
	)

	WriteJSON(w, http.StatusOK, stats)
}
