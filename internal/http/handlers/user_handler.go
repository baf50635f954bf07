package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/IngKendrys/scrap-backend/internal/domain"
	applog "github.com/IngKendrys/scrap-backend/internal/log"
	"github.com/IngKendrys/scrap-backend/internal/policy"
	"github.com/IngKendrys/scrap-backend/internal/services"
)

type UserHandler struct {
	Users *services.UserService
}

func (h *UserHandler) Profile(c *fiber.Ctx) error {
	u, err := h.Users.Profile(c.UserContext(), actor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(u)
}

// UpdateSelf serves PUT/PATCH on the caller's own profile.
func (h *UserHandler) UpdateSelf(c *fiber.Ctx) error {
	a := actor(c)
	if err := policy.RequireActor(a, policy.UpdateProfile); err != nil {
		return fail(c, err)
	}
	return h.update(c, a.ID)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "pk", "usuario")
	if err != nil {
		return fail(c, err)
	}
	return h.update(c, id)
}

func (h *UserHandler) update(c *fiber.Ctx, target int64) error {
	var patch domain.ProfilePatch
	err := bindAuthorized(c, &patch, func() error {
		return h.Users.Policy.Check(actor(c), policy.UpdateProfile, &policy.Resource{OwnerID: target})
	})
	if err != nil {
		return fail(c, err)
	}
	u, err := h.Users.UpdateProfile(c.UserContext(), actor(c), target, patch)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "user.update", map[string]any{"target_id": target})
	return c.JSON(u)
}

// List serves GET /api/usuarios/?activo=.
func (h *UserHandler) List(c *fiber.Ctx) error {
	raw, present := queryParam(c, "activo")
	users, err := h.Users.ListUsers(c.UserContext(), actor(c), domain.ParseTriState(raw, present))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(users)
}

func (h *UserHandler) ToggleActive(c *fiber.Ctx) error {
	id, err := pathID(c, "pk", "usuario")
	if err != nil {
		return fail(c, err)
	}
	u, err := h.Users.ToggleActive(c.UserContext(), actor(c), id)
	if err != nil {
		return fail(c, err)
	}
	word := "desactivado"
	if u.IsActive {
		word = "activado"
	}
	applog.Audit(c, "user.toggle_active", map[string]any{"target_id": id, "is_active": u.IsActive})
	return c.JSON(fiber.Map{
		"message": "Usuario " + word + " exitosamente",
		"user":    u,
	})
}

// queryParam distinguishes an absent parameter from an empty one.
func queryParam(c *fiber.Ctx, key string) (string, bool) {
	args := c.Context().QueryArgs()
	if !args.Has(key) {
		return "", false
	}
	return string(args.Peek(key)), true
}
