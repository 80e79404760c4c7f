package utils

import (
	fiber "github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/database"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
	"github.com/sahilchouksey/codelearn-api/utils/response"
)

// MakeHTTPHandleFunc binds a store-backed handler to a fiber route. Errors the
// handler did not answer itself become a 500 envelope.
func MakeHTTPHandleFunc(handler func(c *fiber.Ctx, store database.Storage) error, store database.Storage) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if err := handler(c, store); err != nil {
			logger.L().Error("handler failed", "method", c.Method(), "path", c.Path(), "error", err)
			return response.InternalServerError(c, "")
		}
		return nil
	}
}
