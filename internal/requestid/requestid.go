// Package requestid propagates a request id through contexts, HTTP
// headers and log lines.
package requestid

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Header carries the request id on HTTP requests and responses.
const Header = "X-Request-ID"

const maxLength = 128

type ctxKey struct{}

// WithRequestID returns a context with the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the request ID from context, or generates a new one.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// New generates a new request ID and returns the enriched context and ID.
func New(ctx context.Context) (context.Context, string) {
	id := uuid.New().String()
	return WithRequestID(ctx, id), id
}

// Logger returns logger tagged with the request id carried by ctx.
func Logger(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	return logger.With().Str("request_id", FromContext(ctx)).Logger()
}

// Middleware accepts a client-supplied id (bounded in length) or mints a
// new one, echoes it in the response header and stores it in the user
// context of the request.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(Header)
		if id == "" || len(id) > maxLength {
			id = uuid.New().String()
		}
		c.Set(Header, id)
		c.Locals("request_id", id)
		c.SetUserContext(WithRequestID(c.UserContext(), id))
		return c.Next()
	}
}
