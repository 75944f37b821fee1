package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"royalbid/internal/logging"
	"royalbid/internal/middleware"
	"royalbid/internal/models"
	"royalbid/internal/services"
)

const testSecret = "test_jwt_secret"

func signToken(t *testing.T, userID string, role models.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  userID,
		"username": "tester",
		"role":     string(role),
		"exp":      time.Now().Add(time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	})
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func authApp() *fiber.App {
	auth := services.NewAuthService(nil, testSecret, time.Hour, logging.Discard())
	app := fiber.New()
	whoami := func(c *fiber.Ctx) error {
		actor, ok := middleware.CurrentActor(c)
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(actor.UserID + ":" + string(actor.Role))
	}
	app.Get("/private", middleware.AuthRequired(auth, logging.Discard()), whoami)
	app.Get("/optional", middleware.OptionalAuth(auth), whoami)
	app.Get("/admin", middleware.AuthRequired(auth, logging.Discard()), middleware.RequireRole(models.RoleAdmin), whoami)
	return app
}

func do(t *testing.T, app *fiber.App, path, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestAuthRequired(t *testing.T) {
	app := authApp()

	status, body := do(t, app, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	var envelope models.APIResponse
	require.NoError(t, json.Unmarshal([]byte(body), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "Authorization header is required", envelope.Message)

	status, _ = do(t, app, "/private", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, app, "/private", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = do(t, app, "/private", "Bearer "+signToken(t, "u-1", models.RoleSeller))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u-1:seller", body)
}

func TestOptionalAuth(t *testing.T) {
	app := authApp()

	_, body := do(t, app, "/optional", "")
	assert.Equal(t, "anonymous", body)

	_, body = do(t, app, "/optional", "Bearer garbage")
	assert.Equal(t, "anonymous", body)

	_, body = do(t, app, "/optional", "Bearer "+signToken(t, "u-2", models.RoleBuyer))
	assert.Equal(t, "u-2:buyer", body)
}

func TestRequireRole(t *testing.T) {
	app := authApp()

	status, _ := do(t, app, "/admin", "Bearer "+signToken(t, "u-1", models.RoleSeller))
	assert.Equal(t, http.StatusForbidden, status)

	status, body := do(t, app, "/admin", "Bearer "+signToken(t, "a-1", models.RoleAdmin))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "a-1:admin", body)
}

func TestRateLimiter(t *testing.T) {
	limiter := middleware.NewRateLimiter(0.001, 2, logging.Discard())
	app := fiber.New()
	app.Get("/", limiter.Handler(), func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		status, _ := do(t, app, "/", "")
		assert.Equal(t, http.StatusOK, status, "request %d", i+1)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	var envelope models.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.False(t, envelope.Success)
}

func TestMetricsMiddlewarePassesThrough(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.Metrics())
	app.Get("/items/:id", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })

	status, _ := do(t, app, "/items/42", "")
	assert.Equal(t, http.StatusNoContent, status)
}
