package notification

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/handlers"
	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/utils/response"
)

// NotificationHandler handles notification-related API endpoints
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// GetNotifications handles GET /api/v1/notifications
// Returns the in-app notifications of the authenticated user
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit < 1 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	ctx := c.UserContext()
	notifications, total, err := h.notificationService.GetNotificationsByUser(ctx, services.ListNotificationsOptions{
		UserID:     user.ID,
		UnreadOnly: c.QueryBool("unread_only"),
		Category:   c.Query("category"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return handlers.RespondError(c, err)
	}

	data := make([]model.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		data = append(data, notifications[i].ToResponse())
	}

	unreadCount, _ := h.notificationService.GetUnreadCount(ctx, user.ID)

	return response.Success(c, fiber.Map{
		"notifications": data,
		"total":         total,
		"unread_count":  unreadCount,
		"limit":         limit,
		"offset":        offset,
	})
}

// GetUnreadCount handles GET /api/v1/notifications/unread-count
func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	count, err := h.notificationService.GetUnreadCount(c.UserContext(), user.ID)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, fiber.Map{"unread_count": count})
}

// MarkAsRead handles POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	if err := h.notificationService.MarkAsRead(c.UserContext(), id, user.ID); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Notification marked as read", nil)
}

// MarkAllAsRead handles POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	count, err := h.notificationService.MarkAllAsRead(c.UserContext(), user.ID)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "All notifications marked as read", fiber.Map{"count": count})
}

// DeleteNotification handles DELETE /api/v1/notifications/:id
func (h *NotificationHandler) DeleteNotification(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return handlers.RespondError(c, err)
	}

	if err := h.notificationService.DeleteNotification(c.UserContext(), id, user.ID); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "Notification deleted", nil)
}

// DeleteAllNotifications handles DELETE /api/v1/notifications
func (h *NotificationHandler) DeleteAllNotifications(c *fiber.Ctx) error {
	user, err := handlers.CurrentUser(c)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	count, err := h.notificationService.DeleteAllNotifications(c.UserContext(), user.ID)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessWithMessage(c, "All notifications deleted", fiber.Map{"count": count})
}
