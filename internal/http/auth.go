package http

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/shinyes/pastpaper/internal/models"
	"github.com/shinyes/pastpaper/internal/service"
)

const currentUserKey = "currentUser"

func AuthMiddleware(userService *service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := strings.TrimSpace(c.Get("Authorization"))
		if authz == "" {
			return unauthorized(c, "missing authorization")
		}

		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return unauthorized(c, "invalid authorization header")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])
		user, err := userService.AuthenticateToken(c.Context(), token)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return unauthorized(c, "invalid access token")
			}
			return internalError(c, errors.New("failed to authenticate"))
		}
		c.Locals(currentUserKey, user)
		return c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CurrentUser(c).IsAdmin() {
			return forbidden(c, "admin role required")
		}
		return c.Next()
	}
}

func CurrentUser(c *fiber.Ctx) models.User {
	raw := c.Locals(currentUserKey)
	if raw == nil {
		return models.User{}
	}
	user, _ := raw.(models.User)
	return user
}
