package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// TokenHandler signs test tokens for local development and integration tests.
type TokenHandler struct {
	secret string
	ttl    time.Duration
}

// NewTokenHandler creates a TokenHandler signing with secret.
func NewTokenHandler(secret string, ttl time.Duration) *TokenHandler {
	return &TokenHandler{secret: secret, ttl: ttl}
}

type tokenRequest struct {
	Username string   `json:"username"`
	Groups   []string `json:"groups"`
}

// Issue handles POST /api/auth/token.
func (h *TokenHandler) Issue(c *fiber.Ctx) error {
	var body tokenRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if body.Username == "" {
		return fiber.NewError(fiber.StatusBadRequest, "username is required")
	}

	token, err := GenerateAccessToken(body.Username, body.Groups, h.secret, h.ttl)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"access_token": token,
		"expires_in":   int(h.ttlOrDefault().Seconds()),
	}})
}

func (h *TokenHandler) ttlOrDefault() time.Duration {
	if h.ttl <= 0 {
		return AccessTokenTTL
	}
	return h.ttl
}

// RegisterTokenRoutes mounts the token endpoint.
func RegisterTokenRoutes(app *fiber.App, h *TokenHandler) {
	app.Post("/api/auth/token", h.Issue)
}
