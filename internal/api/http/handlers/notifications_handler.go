package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/aastu-platform/facility-reports/internal/api/dto"
	"github.com/aastu-platform/facility-reports/internal/auth"
	"github.com/aastu-platform/facility-reports/internal/repository"
	"github.com/aastu-platform/facility-reports/internal/service"
	apperrors "github.com/aastu-platform/facility-reports/pkg/errorutil"
)

// NotificationsHandler exposes the per-user notification inbox.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// ListNotifications GET /notifications.
func (h *NotificationsHandler) ListNotifications(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	unreadOnly := c.QueryBool("unread")
	limit := parseInt(c.Query("limit"), 50)
	offset := parseInt(c.Query("offset"), 0)

	notifications, err := h.service.ListForRecipient(c.Context(), actor.ID, unreadOnly, limit, offset)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, dto.NotificationResponse{
			ID:        n.ID,
			ReportID:  n.ReportID,
			EventType: n.EventType,
			Severity:  n.Severity,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// MarkRead POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.MarkRead(c.Context(), c.Params("id"), actor.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("notification", map[string]any{"notification_id": c.Params("id")})
		}
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"read": true}})
}
