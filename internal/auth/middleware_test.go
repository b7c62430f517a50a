package auth

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(cfg MiddlewareConfig) *fiber.App {
	app := fiber.New()
	app.Use(Middleware(cfg))
	app.Get("/roles", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"roles": GetUserRoles(GetUser(c))})
	})
	app.Get("/private", RequireUser(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func rolesOf(t *testing.T, app *fiber.App, header string) (int, []string) {
	t.Helper()
	req := httptest.NewRequest("GET", "/roles", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Roles []string `json:"roles"`
	}
	if resp.StatusCode == fiber.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body.Roles
}

func TestMiddleware_Anonymous(t *testing.T) {
	app := newTestApp(MiddlewareConfig{})
	status, roles := rolesOf(t, app, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, roles)

	resp, err := app.Test(httptest.NewRequest("GET", "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMiddleware_UnverifiedToken(t *testing.T) {
	app := newTestApp(MiddlewareConfig{})
	tok := fakeToken(`{"alg":"HS256"}`, `{"cognito:groups":["hdcnLeden"]}`)

	status, roles := rolesOf(t, app, "Bearer "+tok)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []string{"hdcnLeden"}, roles)

	status, _ = rolesOf(t, app, "Token "+tok)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestMiddleware_VerifiedToken(t *testing.T) {
	app := newTestApp(MiddlewareConfig{Secret: "s3cret", Verify: true})

	tok, err := GenerateAccessToken("jan", []string{"Members_CRUD"}, "s3cret", time.Minute)
	require.NoError(t, err)
	status, roles := rolesOf(t, app, "Bearer "+tok)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []string{"Members_CRUD"}, roles)

	forged := fakeToken(`{"alg":"HS256"}`, `{"cognito:groups":["hdcnAdmins"]}`)
	status, _ = rolesOf(t, app, "Bearer "+forged)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestTokenHandler_Issue(t *testing.T) {
	app := fiber.New()
	RegisterTokenRoutes(app, NewTokenHandler("s3cret", time.Minute))

	req := httptest.NewRequest("POST", "/api/auth/token", strings.NewReader(`{"username":"jan","groups":["Events_CRUD"]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int    `json:"expires_in"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 60, body.Data.ExpiresIn)

	claims, err := ParseAccessToken(body.Data.AccessToken, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, []string{"Events_CRUD"}, claims.Groups)

	req = httptest.NewRequest("POST", "/api/auth/token", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
