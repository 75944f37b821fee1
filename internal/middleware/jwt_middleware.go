package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"royalbid/internal/models"
	"royalbid/internal/services"
)

const actorKey = "actor"

// CurrentActor returns the authenticated caller stored by AuthRequired or
// OptionalAuth.
func CurrentActor(c *fiber.Ctx) (services.Actor, bool) {
	actor, ok := c.Locals(actorKey).(services.Actor)
	return actor, ok
}

func bearerToken(c *fiber.Ctx) (string, string) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", "Authorization header is required"
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return "", "Authorization header format must be 'Bearer <token>'"
	}
	return parts[1], ""
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse(message, nil))
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, problem := bearerToken(c)
		if problem != "" {
			return unauthorized(c, problem)
		}

		actor, err := authService.ValidateToken(token)
		if err != nil {
			log.WithError(err).WithField("path", c.Path()).Debug("JWT validation failed")
			return unauthorized(c, "Invalid or expired token")
		}

		c.Locals(actorKey, actor)
		c.Locals("user_id", actor.UserID)
		return c.Next()
	}
}

// OptionalAuth stores the caller when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, problem := bearerToken(c); problem == "" {
			if actor, err := authService.ValidateToken(token); err == nil {
				c.Locals(actorKey, actor)
				c.Locals("user_id", actor.UserID)
			}
		}
		return c.Next()
	}
}

// RequireRole rejects callers whose role is not listed. It must run after
// AuthRequired.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok {
			return unauthorized(c, "Authentication required")
		}
		for _, r := range roles {
			if actor.Role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse("Insufficient permissions", nil))
	}
}
