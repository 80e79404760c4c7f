package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/middleware"
	"github.com/sahilchouksey/codelearn-api/utils/validation"
)

// RequestError is a malformed request, answered with 400
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string { return e.Message }

// Bind parses the JSON body into dst and runs its validate tags
func Bind(c *fiber.Ctx, v *validation.Validator, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return &RequestError{Message: "Invalid request body"}
	}
	return v.ValidateStruct(dst)
}

// ParamID parses a positive numeric route parameter
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, &RequestError{Message: "Invalid " + name}
	}
	return uint(id), nil
}

// Page reads page and limit query parameters with defaults
func Page(c *fiber.Ctx, defaultLimit int) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLimit)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return page, limit
}

// CurrentUser returns the authenticated user set by AuthMiddleware.Required
func CurrentUser(c *fiber.Ctx) (*model.User, error) {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "User not authenticated")
	}
	return user, nil
}
