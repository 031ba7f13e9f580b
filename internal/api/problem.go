package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"

	apperrors "github.com/p-blackswan/intake-agent/internal/errors"
)

// ProblemDetail follows RFC 7807 for error responses.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// problemResponse returns an RFC 7807 Problem Detail error response.
func problemResponse(c *fiber.Ctx, status int, errType, title, detail string) error {
	return c.Status(status).JSON(ProblemDetail{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	})
}

var problemStatus = map[string]int{
	"invalid_input":       fiber.StatusBadRequest,
	"unauthorized":        fiber.StatusUnauthorized,
	"no_approval":         fiber.StatusNotFound,
	"not_found":           fiber.StatusNotFound,
	"busy":                fiber.StatusConflict,
	"approval_pending":    fiber.StatusConflict,
	"rate_limit_exceeded": fiber.StatusTooManyRequests,
}

// errorResponse maps an engine or session error onto a problem response.
// Anything unmapped goes to customErrorHandler.
func errorResponse(c *fiber.Ctx, err error) error {
	code := apperrors.Code(err)
	status, ok := problemStatus[code]
	if !ok {
		return err
	}
	return problemResponse(c, status, code, utils.StatusMessage(status), err.Error())
}

func customErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}

		logger.Error().
			Err(err).
			Int("status", code).
			Str("path", c.Path()).
			Str("method", c.Method()).
			Msg("unhandled error")

		detail := err.Error()
		// Don't leak internal details.
		if code == fiber.StatusInternalServerError {
			detail = "An internal error occurred"
		}

		return c.Status(code).JSON(ProblemDetail{
			Type:     "internal_error",
			Title:    "Internal Server Error",
			Status:   code,
			Detail:   detail,
			Instance: c.Path(),
		})
	}
}
