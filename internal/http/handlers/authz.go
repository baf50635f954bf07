package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/IngKendrys/scrap-backend/internal/domain"
	"github.com/IngKendrys/scrap-backend/internal/services"
)

// Authenticate resolves an "Authorization: Token <key>" (or Bearer) header
// and stores the identity in Locals. Requests without the header go through
// anonymously; a header that does not resolve is rejected with 401.
func Authenticate(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, present := tokenFrom(c)
		if !present {
			return c.Next()
		}
		u, err := auth.Resolve(c.UserContext(), key)
		if err != nil {
			return fail(c, err)
		}
		c.Locals("user", u)
		c.Locals("user_id", u.ID)
		c.Locals("token", key)
		return c.Next()
	}
}

func tokenFrom(c *fiber.Ctx) (string, bool) {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if h == "" {
		return "", false
	}
	scheme, key, _ := strings.Cut(h, " ")
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(key), true
}

// actor returns the authenticated identity or nil.
func actor(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
