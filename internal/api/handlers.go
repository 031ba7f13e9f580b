package api

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	apperrors "github.com/p-blackswan/intake-agent/internal/errors"
	"github.com/p-blackswan/intake-agent/internal/requestid"
	"github.com/p-blackswan/intake-agent/internal/session"
)

// Handlers serves the conversation endpoints.
type Handlers struct {
	sessions *session.Manager
	logger   zerolog.Logger
}

// NewHandlers creates handlers over a session manager.
func NewHandlers(sessions *session.Manager, logger zerolog.Logger) *Handlers {
	return &Handlers{
		sessions: sessions,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

type messageRequest struct {
	Text        string               `json:"text"`
	Attachments []session.Attachment `json:"attachments"`
}

type speechRequest struct {
	Text string `json:"text"`
}

type approvalRequest struct {
	Accept *bool `json:"accept"`
}

// eventResponse is returned by every event endpoint.
type eventResponse struct {
	session.Result
	Message   string `json:"message"`
	RetryText string `json:"retryText,omitempty"`
}

func newEventResponse(res session.Result) eventResponse {
	out := eventResponse{Result: res, Message: res.Message()}
	if res.Outcome != nil {
		out.RetryText, _ = res.Outcome.Retryable()
	}
	return out
}

func (h *Handlers) key(c *fiber.Ctx) (session.Key, error) {
	service, err := url.PathUnescape(c.Params("service"))
	if err != nil || strings.TrimSpace(service) == "" {
		return session.Key{}, fmt.Errorf("%w: invalid service name", apperrors.ErrInvalidInput)
	}
	return session.Key{User: userFrom(c), Service: service}, nil
}

func (h *Handlers) dispatch(c *fiber.Ctx, ev session.Event) error {
	key, err := h.key(c)
	if err != nil {
		return errorResponse(c, err)
	}
	res, err := h.sessions.Dispatch(c.UserContext(), key, ev)
	if err != nil {
		log := requestid.Logger(c.UserContext(), h.logger)
		log.Debug().
			Err(err).
			Str("event", string(ev.Kind)).
			Msg("event rejected")
		return errorResponse(c, err)
	}
	return c.JSON(newEventResponse(res))
}

func parseBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", apperrors.ErrInvalidInput, err)
	}
	return nil
}

// GetSession handles GET /api/v1/services/:service/session.
func (h *Handlers) GetSession(c *fiber.Ctx) error {
	key, err := h.key(c)
	if err != nil {
		return errorResponse(c, err)
	}
	view, err := h.sessions.Open(c.UserContext(), key)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(view)
}

// PostMessage handles POST /api/v1/services/:service/messages. Inline
// attachments are queued before the message is submitted.
func (h *Handlers) PostMessage(c *fiber.Ctx) error {
	var req messageRequest
	if err := parseBody(c, &req); err != nil {
		return errorResponse(c, err)
	}
	key, err := h.key(c)
	if err != nil {
		return errorResponse(c, err)
	}
	for _, a := range req.Attachments {
		ev := session.Event{Kind: session.EventAttachment, Name: a.Name, Text: a.Text}
		if _, err := h.sessions.Dispatch(c.UserContext(), key, ev); err != nil {
			return errorResponse(c, err)
		}
	}
	return h.dispatch(c, session.Event{Kind: session.EventSubmit, Text: req.Text})
}

// PostSpeech handles POST /api/v1/services/:service/speech.
func (h *Handlers) PostSpeech(c *fiber.Ctx) error {
	var req speechRequest
	if err := parseBody(c, &req); err != nil {
		return errorResponse(c, err)
	}
	return h.dispatch(c, session.Event{Kind: session.EventSpeech, Text: req.Text})
}

// PostAttachment handles POST /api/v1/services/:service/attachments.
func (h *Handlers) PostAttachment(c *fiber.Ctx) error {
	var req session.Attachment
	if err := parseBody(c, &req); err != nil {
		return errorResponse(c, err)
	}
	return h.dispatch(c, session.Event{Kind: session.EventAttachment, Name: req.Name, Text: req.Text})
}

// PostApproval handles POST /api/v1/services/:service/approval.
func (h *Handlers) PostApproval(c *fiber.Ctx) error {
	var req approvalRequest
	if err := parseBody(c, &req); err != nil {
		return errorResponse(c, err)
	}
	if req.Accept == nil {
		return errorResponse(c, fmt.Errorf("%w: accept is required", apperrors.ErrInvalidInput))
	}
	return h.dispatch(c, session.Event{Kind: session.EventDecide, Accept: *req.Accept})
}

// PostReset handles POST /api/v1/services/:service/reset.
func (h *Handlers) PostReset(c *fiber.Ctx) error {
	return h.dispatch(c, session.Event{Kind: session.EventReset})
}
