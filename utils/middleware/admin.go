package middleware

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AdminAuditLog creates an audit log entry for admin actions. It runs after
// AuthMiddleware.Required and only records requests that succeeded.
func AdminAuditLog(db *gorm.DB, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetUser(c)
		if !ok {
			return c.Next()
		}

		// Parse resource ID from params if available
		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsedID, err := strconv.ParseUint(id, 10, 32); err == nil {
				resourceID = uint(parsedID)
			}
		}

		// Capture the request body as the new value; multipart bodies are skipped
		var newValue datatypes.JSON
		if c.Method() != fiber.MethodGet && json.Valid(c.Body()) {
			newValue = datatypes.JSON(append([]byte(nil), c.Body()...))
		}

		// Snapshot the target before a mutation touches it
		var oldValue datatypes.JSON
		if resourceID > 0 && c.Method() != fiber.MethodPost {
			oldValue = snapshot(db, resource, resourceID)
		}

		// Execute the actual handler
		err := c.Next()

		if err != nil || c.Response().StatusCode() >= fiber.StatusBadRequest {
			return err
		}

		// Fiber recycles the context once the handler returns, so the entry is
		// built and written here
		entry := model.AdminAuditLog{
			AdminID:     user.ID,
			Action:      action,
			Resource:    resource,
			ResourceID:  resourceID,
			OldValue:    oldValue,
			NewValue:    newValue,
			IPAddress:   c.IP(),
			UserAgent:   c.Get(fiber.HeaderUserAgent),
			Description: c.Method() + " " + c.Path(),
		}
		if dbErr := db.WithContext(c.UserContext()).Create(&entry).Error; dbErr != nil {
			logger.L().Warn("failed to write admin audit log", "action", action, "error", dbErr)
		}

		return nil
	}
}

func snapshot(db *gorm.DB, resource string, id uint) datatypes.JSON {
	var target interface{}
	switch resource {
	case "transactions":
		target = &model.PaymentTransaction{}
	case "orders":
		target = &model.Order{}
	case "coupons":
		target = &model.Coupon{}
	case "courses":
		target = &model.Course{}
	case "announcements":
		target = &model.Announcement{}
	case "live_sessions":
		target = &model.LiveSession{}
	case "callback_requests":
		target = &model.CallbackRequest{}
	default:
		return nil
	}

	if err := db.First(target, id).Error; err != nil {
		return nil
	}
	raw, err := json.Marshal(target)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
