package response

import (
	"github.com/gofiber/fiber/v2"
)

// Response represents a standardized API response
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// PaginationMeta contains pagination metadata
type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Success    bool           `json:"success"`
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// Messages used when a handler passes an empty one
var defaultMessages = map[int]string{
	fiber.StatusUnauthorized:        "Authentication required",
	fiber.StatusForbidden:           "You do not have access to this resource",
	fiber.StatusNotFound:            "Resource not found",
	fiber.StatusTooManyRequests:     "Too many requests",
	fiber.StatusBadGateway:          "Payment or mail provider is unavailable",
	fiber.StatusInternalServerError: "Something went wrong",
}

func fail(c *fiber.Ctx, status int, detail ErrorDetail) error {
	if detail.Message == "" {
		detail.Message = defaultMessages[status]
	}
	return c.Status(status).JSON(Response{Error: &detail})
}

// Success returns a 200 with data
func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{Success: true, Data: data})
}

// SuccessWithMessage returns a 200 with data and a message for the client to show
func SuccessWithMessage(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{Success: true, Message: message, Data: data})
}

// Created returns a 201 with the new resource
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{Success: true, Data: data})
}

// Paginated returns one page of a list
func Paginated(c *fiber.Ctx, data interface{}, pagination PaginationMeta) error {
	return c.Status(fiber.StatusOK).JSON(PaginatedResponse{
		Success:    true,
		Data:       data,
		Pagination: pagination,
	})
}

// CalculatePagination derives the page count. Callers pass the limit the
// query actually used.
func CalculatePagination(page, limit int, total int64) PaginationMeta {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	return PaginationMeta{
		CurrentPage: page,
		PerPage:     limit,
		Total:       total,
		TotalPages:  int((total + int64(limit) - 1) / int64(limit)),
	}
}

// Error returns an error envelope with an explicit status and code
func Error(c *fiber.Ctx, status int, message, code string) error {
	return fail(c, status, ErrorDetail{Code: code, Message: message})
}

// ErrorWithDetails is Error plus a human readable detail line
func ErrorWithDetails(c *fiber.Ctx, status int, message, code, details string) error {
	return fail(c, status, ErrorDetail{Code: code, Message: message, Details: details})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message, "BAD_REQUEST")
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message, "UNAUTHORIZED")
}

func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message, "FORBIDDEN")
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message, "NOT_FOUND")
}

func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message, "CONFLICT")
}

// TooManyRequests is answered by the rate limiter and the login lockout
func TooManyRequests(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusTooManyRequests, message, "TOO_MANY_REQUESTS")
}

// ValidationError reports a validation failure that is not tied to one field
func ValidationError(c *fiber.Ctx, err error) error {
	return ErrorWithDetails(c, fiber.StatusUnprocessableEntity, "Validation failed", "VALIDATION_ERROR", err.Error())
}

// ValidationFailed returns a 422 listing the offending fields
func ValidationFailed(c *fiber.Ctx, fields map[string]string) error {
	return fail(c, fiber.StatusUnprocessableEntity, ErrorDetail{
		Code:    "VALIDATION_ERROR",
		Message: "Validation failed",
		Fields:  fields,
	})
}

// Locked is used while two-factor verification is locked out
func Locked(c *fiber.Ctx, message, details string) error {
	return ErrorWithDetails(c, fiber.StatusLocked, message, "LOCKED", details)
}

func BadGateway(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadGateway, message, "UPSTREAM_ERROR")
}

func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message, "INTERNAL_ERROR")
}
