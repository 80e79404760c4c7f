package api

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
	"github.com/sahilchouksey/codelearn-api/utils/response"
)

// Uploads carry a payment proof of up to 10 MB plus form fields
const bodyLimit = 12 * 1024 * 1024

type APIServer struct {
	app           *fiber.App
	listenAddress string
}

func NewAPIServer(listenAddress string) *APIServer {
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:      "codelearn-api",
			BodyLimit:    bodyLimit,
			ErrorHandler: errorHandler,
		}),
		listenAddress: listenAddress,
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	logger.L().Info("starting API server", "address", s.listenAddress)
	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *APIServer) Shutdown(ctx context.Context) error {
	logger.L().Info("shutting down API server")
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler answers errors that escaped the handlers, such as unknown
// routes and body limit violations, with the standard envelope
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Code, fe.Message, statusCode(fe.Code))
	}

	logger.L().Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
	return response.InternalServerError(c, "")
}

// statusCode turns 404 into NOT_FOUND
func statusCode(code int) string {
	return strings.ToUpper(strings.ReplaceAll(utils.StatusMessage(code), " ", "_"))
}
