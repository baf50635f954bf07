package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/IngKendrys/scrap-backend/internal/domain"
	"github.com/IngKendrys/scrap-backend/internal/validate"
)

const msgBadJSON = "JSON inválido."

// bind decodes a JSON body into v with the app's decoder. An empty body
// leaves v untouched.
func bind(c *fiber.Ctx, v any) error {
	body := c.Body()
	if len(body) == 0 {
		return nil
	}
	if err := c.App().Config().JSONDecoder(body, v); err != nil {
		return badRequest("non_field_errors", msgBadJSON)
	}
	return nil
}

// bindAuthorized is bind for routes that authorize against stored state
// after decoding. When the body is malformed, authorize runs first and its
// error wins, so a caller who may not act never sees payload errors.
func bindAuthorized(c *fiber.Ctx, v any, authorize func() error) error {
	err := bind(c, v)
	if err == nil {
		return nil
	}
	if aerr := authorize(); aerr != nil {
		return aerr
	}
	return err
}

// pathID reads a positive integer route parameter; anything else is a 404.
func pathID(c *fiber.Ctx, name, resource string) (int64, error) {
	raw := c.Params(name)
	id, ok := validate.ID(raw)
	if !ok {
		return 0, domain.NotFound(resource, raw)
	}
	return id, nil
}

// isFull reports whether the request replaces the resource (PUT) rather
// than patching it.
func isFull(c *fiber.Ctx) bool { return c.Method() == fiber.MethodPut }
