package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/services/storage"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
	"github.com/sahilchouksey/codelearn-api/utils/response"
	"github.com/sahilchouksey/codelearn-api/utils/validation"
)

// RespondError maps service errors to the API error envelope
func RespondError(c *fiber.Ctx, err error) error {
	var (
		validationErrs validator.ValidationErrors
		fieldErr       *services.ValidationError
		lockedErr      *services.LockedError
		attemptsErr    *services.AttemptsError
		requestErr     *RequestError
		fiberErr       *fiber.Error
	)

	switch {
	case errors.As(err, &fiberErr):
		return response.Error(c, fiberErr.Code, fiberErr.Message, "REQUEST_ERROR")
	case errors.As(err, &requestErr):
		return response.BadRequest(c, requestErr.Message)
	case errors.As(err, &validationErrs):
		return response.ValidationFailed(c, validation.FormatValidationErrors(validationErrs))
	case errors.As(err, &fieldErr):
		if fieldErr.Field == "" {
			return response.ValidationError(c, fieldErr)
		}
		return response.ValidationFailed(c, map[string]string{fieldErr.Field: fieldErr.Message})
	case errors.As(err, &lockedErr):
		c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", lockedErr.RemainingMinutes()*60))
		return response.Locked(c, "Too many failed attempts",
			fmt.Sprintf("try again in %d minutes", lockedErr.RemainingMinutes()))
	case errors.As(err, &attemptsErr):
		return response.ErrorWithDetails(c, fiber.StatusBadRequest, "Invalid verification code", "INVALID_CODE",
			fmt.Sprintf("%d attempts remaining", attemptsErr.Remaining))
	case errors.Is(err, services.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return response.NotFound(c, "")
	case errors.Is(err, services.ErrUnauthorized):
		return response.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return response.Forbidden(c, "")
	case errors.Is(err, services.ErrNotEnrolled):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrAlreadyEnrolled),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrConflict):
		return response.Conflict(c, err.Error())
	case errors.Is(err, services.ErrEmptyCart):
		return response.Error(c, fiber.StatusBadRequest, err.Error(), "EMPTY_CART")
	case errors.Is(err, services.ErrInvalidSignature):
		return response.Error(c, fiber.StatusBadRequest, err.Error(), "INVALID_SIGNATURE")
	case errors.Is(err, services.ErrInvalidCode),
		errors.Is(err, services.ErrExpired),
		errors.Is(err, services.ErrInactive),
		errors.Is(err, services.ErrLimitReached):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrValidation):
		return response.ValidationError(c, err)
	case errors.Is(err, services.ErrExternal):
		logger.L().Warn("upstream failure", "path", c.Path(), "error", err)
		return response.BadGateway(c, "")
	default:
		logger.L().Error("request failed", "method", c.Method(), "path", c.Path(),
			"request_id", c.Locals("requestid"), "error", err)
		return response.InternalServerError(c, "")
	}
}
