package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"hdcn-access/internal/logging"
)

const userKey = "user"

// MiddlewareConfig controls how bearer tokens become users.
type MiddlewareConfig struct {
	// Secret verifies HMAC signatures when Verify is set.
	Secret string
	Verify bool
}

// Middleware attaches a *User built from the bearer token to the request.
// Requests without a token pass through anonymously. With Verify set, a token
// that fails signature or expiry checks is rejected with 401; otherwise the
// token is decoded as-is.
func Middleware(cfg MiddlewareConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Next()
		}

		user, err := UserFromBearer(header)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid auth header format")
		}

		if cfg.Verify {
			claims, err := ParseAccessToken(user.Token, cfg.Secret)
			if err != nil {
				logging.Debug("token rejected", zap.Error(err))
				return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
			}
			user = UserFromClaims(claims, user.Token)
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// RequireUser rejects anonymous requests.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUser(c) == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing auth token")
		}
		return c.Next()
	}
}

// GetUser returns the request's user, or nil for anonymous requests.
func GetUser(c *fiber.Ctx) *User {
	user, _ := c.Locals(userKey).(*User)
	return user
}
