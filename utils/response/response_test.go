package response

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyMessagesFallBackToDefaults(t *testing.T) {
	app := fiber.New()
	app.Get("/missing", func(c *fiber.Ctx) error { return NotFound(c, "") })
	app.Get("/named", func(c *fiber.Ctx) error { return NotFound(c, "Course not found") })

	for path, want := range map[string]string{"/missing": "Resource not found", "/named": "Course not found"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

		var body Response
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.False(t, body.Success)
		require.NotNil(t, body.Error)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
		assert.Equal(t, want, body.Error.Message)
	}
}

func TestCalculatePagination(t *testing.T) {
	assert.Equal(t, PaginationMeta{CurrentPage: 1, PerPage: 20, Total: 0, TotalPages: 0}, CalculatePagination(0, 20, 0))
	assert.Equal(t, PaginationMeta{CurrentPage: 2, PerPage: 20, Total: 41, TotalPages: 3}, CalculatePagination(2, 20, 41))
	assert.Equal(t, 2, CalculatePagination(1, 0, 40).TotalPages)
}
