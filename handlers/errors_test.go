package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/codelearn-api/services"
	"github.com/sahilchouksey/codelearn-api/utils/response"
	"github.com/sahilchouksey/codelearn-api/utils/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(t *testing.T, err error) (int, response.Response, string) {
	t.Helper()

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return RespondError(c, err) })

	resp, testErr := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, testErr)
	defer resp.Body.Close()

	var body response.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body, resp.Header.Get(fiber.HeaderRetryAfter)
}

func TestRespondErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", services.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
		{"wrapped not found", fmt.Errorf("lookup: %w", services.ErrNotFound), fiber.StatusNotFound, "NOT_FOUND"},
		{"forbidden", services.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
		{"not enrolled", services.ErrNotEnrolled, fiber.StatusForbidden, "FORBIDDEN"},
		{"already enrolled", services.ErrAlreadyEnrolled, fiber.StatusConflict, "CONFLICT"},
		{"invalid transition", services.ErrInvalidTransition, fiber.StatusConflict, "CONFLICT"},
		{"empty cart", services.ErrEmptyCart, fiber.StatusBadRequest, "EMPTY_CART"},
		{"bad signature", services.ErrInvalidSignature, fiber.StatusBadRequest, "INVALID_SIGNATURE"},
		{"coupon expired", services.ErrExpired, fiber.StatusBadRequest, "BAD_REQUEST"},
		{"coupon limit", services.ErrLimitReached, fiber.StatusBadRequest, "BAD_REQUEST"},
		{"unauthorized", services.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
		{"upstream", services.ErrExternal, fiber.StatusBadGateway, "UPSTREAM_ERROR"},
		{"request", &RequestError{Message: "Invalid id"}, fiber.StatusBadRequest, "BAD_REQUEST"},
		{"fiber", fiber.NewError(fiber.StatusRequestEntityTooLarge, "too big"), fiber.StatusRequestEntityTooLarge, "REQUEST_ERROR"},
		{"attempts", &services.AttemptsError{Remaining: 2}, fiber.StatusBadRequest, "INVALID_CODE"},
		{"unexpected", errors.New("boom"), fiber.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body, _ := respond(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestRespondErrorFieldValidation(t *testing.T) {
	status, body, _ := respond(t, &services.ValidationError{Field: "coupon_code", Message: "unknown coupon"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	require.NotNil(t, body.Error)
	assert.Equal(t, "unknown coupon", body.Error.Fields["coupon_code"])

	type input struct {
		Email string `json:"email" validate:"required,email"`
	}
	verr := validation.NewValidator().ValidateStruct(input{Email: "not-an-email"})
	require.Error(t, verr)

	status, body, _ = respond(t, verr)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	require.NotNil(t, body.Error)
	assert.Contains(t, body.Error.Fields, "email")
}

func TestRespondErrorLockedSetsRetryAfter(t *testing.T) {
	status, body, retry := respond(t, &services.LockedError{Remaining: 90 * time.Second})
	assert.Equal(t, fiber.StatusLocked, status)
	assert.Equal(t, "120", retry)
	require.NotNil(t, body.Error)
	assert.Equal(t, "try again in 2 minutes", body.Error.Details)
}
