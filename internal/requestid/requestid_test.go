package requestid

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ctx, id := New(context.Background())
	assert.NotEmpty(t, id)
	assert.Equal(t, id, FromContext(ctx))
}

func TestFromContext_Missing(t *testing.T) {
	assert.NotEmpty(t, FromContext(context.Background()))
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "test-123")
	assert.Equal(t, "test-123", FromContext(ctx))
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(WithRequestID(context.Background(), "req-9"), zerolog.New(&buf))
	log.Info().Msg("turn handled")
	assert.Contains(t, buf.String(), `"request_id":"req-9"`)
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(FromContext(c.UserContext()))
	})
	return app
}

func TestMiddleware_KeepsClientID(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(Header, "client-abc")
	resp, err := newApp().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "client-abc", resp.Header.Get(Header))

	body := new(bytes.Buffer)
	_, _ = body.ReadFrom(resp.Body)
	assert.Equal(t, "client-abc", body.String())
}

func TestMiddleware_MintsID(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(Header, strings.Repeat("x", maxLength+1))
	resp, err := newApp().Test(req, -1)
	require.NoError(t, err)
	id := resp.Header.Get(Header)
	assert.Len(t, id, 36)
}
