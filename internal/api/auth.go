package api

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// UserHeader names the caller in none and api-key modes.
const UserHeader = "X-User-ID"

const (
	localUser     = "user"
	anonymousUser = "anonymous"
	maxUserLength = 128
)

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Mode      string // "none", "api-key" or "jwt"
	APIKey    string
	JWTSecret string
}

// NewAuthMiddleware resolves the calling user. In api-key mode the bearer
// token must match the key and the user comes from X-User-ID; in jwt mode
// the bearer token is an HS256 JWT whose subject is the user.
func NewAuthMiddleware(cfg AuthConfig, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if isProbe(path) {
			return c.Next()
		}

		if cfg.Mode == "none" {
			user := strings.TrimSpace(c.Get(UserHeader))
			if user == "" {
				user = anonymousUser
			}
			return withUser(c, user)
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return problemResponse(c, fiber.StatusUnauthorized,
				"missing_auth", "Unauthorized",
				"Authorization header is required")
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return problemResponse(c, fiber.StatusUnauthorized,
				"invalid_auth_scheme", "Unauthorized",
				"Authorization header must use Bearer scheme")
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		switch cfg.Mode {
		case "jwt":
			sub, err := subject(token, cfg.JWTSecret)
			if err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("unauthorized request: invalid token")
				return problemResponse(c, fiber.StatusUnauthorized,
					"invalid_token", "Unauthorized", "Invalid or expired token")
			}
			return withUser(c, sub)
		default:
			if cfg.APIKey == "" || subtle.ConstantTimeCompare([]byte(token), []byte(cfg.APIKey)) != 1 {
				logger.Warn().
					Str("path", path).
					Str("method", c.Method()).
					Msg("unauthorized request: invalid API key")
				return problemResponse(c, fiber.StatusUnauthorized,
					"invalid_api_key", "Unauthorized", "Invalid API key")
			}
			user := strings.TrimSpace(c.Get(UserHeader))
			if user == "" {
				return problemResponse(c, fiber.StatusBadRequest,
					"missing_user", "Bad Request", UserHeader+" header is required")
			}
			return withUser(c, user)
		}
	}
}

func withUser(c *fiber.Ctx, user string) error {
	if len(user) > maxUserLength {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_user", "Bad Request", "user id is too long")
	}
	c.Locals(localUser, user)
	return c.Next()
}

func subject(token, secret string) (string, error) {
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// userFrom returns the user resolved by the auth middleware.
func userFrom(c *fiber.Ctx) string {
	user, _ := c.Locals(localUser).(string)
	return user
}
