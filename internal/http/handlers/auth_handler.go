package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/IngKendrys/scrap-backend/internal/domain"
	applog "github.com/IngKendrys/scrap-backend/internal/log"
	"github.com/IngKendrys/scrap-backend/internal/policy"
	"github.com/IngKendrys/scrap-backend/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type loginRequest struct {
	Email    string `json:"correo"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in domain.Registration
	err := bindAuthorized(c, &in, func() error {
		return h.Auth.Policy.Check(actor(c), policy.Register, nil)
	})
	if err != nil {
		return fail(c, err)
	}
	u, err := h.Auth.Register(c.UserContext(), actor(c), in)
	if err != nil {
		return fail(c, err)
	}
	c.Status(fiber.StatusCreated)
	applog.Audit(c, "user.register", map[string]any{"new_user_id": u.ID})
	return c.JSON(fiber.Map{
		"message": "Usuario creado exitosamente",
		"user":    u,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in loginRequest
	if err := bind(c, &in); err != nil {
		return fail(c, err)
	}
	verr := &domain.ValidationError{}
	if in.Email == "" {
		verr.Add("correo", "Este campo es requerido.")
	}
	if in.Password == "" {
		verr.Add("password", "Este campo es requerido.")
	}
	if err := verr.OrNil(); err != nil {
		return fail(c, err)
	}

	u, key, err := h.Auth.Authenticate(c.UserContext(), in.Email, in.Password)
	if err != nil {
		return fail(c, err)
	}
	c.Locals("user_id", u.ID)
	applog.Audit(c, "auth.login.success", nil)
	return c.JSON(fiber.Map{
		"message": "Login exitoso",
		"user":    u,
		"token":   key,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	u := actor(c)
	key, _ := c.Locals("token").(string)
	live, err := h.Auth.Logout(c.UserContext(), u, key)
	if err != nil {
		return fail(c, err)
	}
	msg := "No había token activo"
	if live {
		msg = "Logout exitoso para " + u.Email
	}
	applog.Audit(c, "auth.logout", map[string]any{"revoked": live})
	return c.JSON(fiber.Map{
		"message": msg,
		"info":    "Tu token ha sido invalidado. Debes iniciar sesión nuevamente para obtener uno nuevo.",
	})
}
