package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"crptapi/internal/logging"
)

const (
	// RequestIDHeader is the standard header name used to propagate request IDs.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is the key used to store the request ID in Fiber's context locals.
	RequestIDLocalKey = "request_id"
)

// RequestID ensures every request has an ID.
//
// Behavior:
// - Reads X-Request-ID from the incoming request header, or generates a UUID.
// - Stores it in Fiber locals under RequestIDLocalKey and echoes it in the response.
// - When base is non-nil, attaches base.With(request_id) to the request's user context
//   so downstream code can log through logging.FromContext.
func RequestID(base *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)

		if base != nil {
			c.SetUserContext(logging.WithLogger(c.UserContext(), base.With(slog.String("request_id", id))))
		}

		return c.Next()
	}
}
