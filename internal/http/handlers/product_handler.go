package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/IngKendrys/scrap-backend/internal/domain"
	applog "github.com/IngKendrys/scrap-backend/internal/log"
	"github.com/IngKendrys/scrap-backend/internal/policy"
	"github.com/IngKendrys/scrap-backend/internal/repos"
	"github.com/IngKendrys/scrap-backend/internal/services"
	"github.com/IngKendrys/scrap-backend/internal/validate"
)

type ProductHandler struct {
	Products *services.ProductService
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in domain.ProductInput
	err := bindAuthorized(c, &in, func() error {
		return policy.RequireActor(actor(c), policy.CreateProduct)
	})
	if err != nil {
		return fail(c, err)
	}
	p, err := h.Products.Create(c.UserContext(), actor(c), in)
	if err != nil {
		return fail(c, err)
	}
	c.Status(fiber.StatusCreated)
	applog.Audit(c, "product.create", map[string]any{"id_producto": p.ID})
	return c.JSON(p)
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "producto")
	if err != nil {
		return fail(c, err)
	}
	p, err := h.Products.Get(c.UserContext(), actor(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(p)
}

// Update serves PUT (all required fields) and PATCH.
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "producto")
	if err != nil {
		return fail(c, err)
	}
	var patch domain.ProductPatch
	err = bindAuthorized(c, &patch, func() error {
		return h.Products.CheckOwner(c.UserContext(), actor(c), policy.UpdateProduct, id)
	})
	if err != nil {
		return fail(c, err)
	}
	p, err := h.Products.Update(c.UserContext(), actor(c), id, patch, isFull(c))
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "product.update", map[string]any{"id_producto": id})
	return c.JSON(p)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "producto")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Products.Delete(c.UserContext(), actor(c), id); err != nil {
		return fail(c, err)
	}
	c.Status(fiber.StatusNoContent)
	applog.Audit(c, "product.delete", map[string]any{"id_producto": id})
	return nil
}

type setSoldRequest struct {
	Sold *bool `json:"vendido"`
}

func (h *ProductHandler) SetSold(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "producto")
	if err != nil {
		return fail(c, err)
	}
	var in setSoldRequest
	err = bindAuthorized(c, &in, func() error {
		return h.Products.CheckOwner(c.UserContext(), actor(c), policy.MarkProductSold, id)
	})
	if err != nil {
		return fail(c, err)
	}
	p, err := h.Products.SetSold(c.UserContext(), actor(c), id, in.Sold)
	if err != nil {
		return fail(c, err)
	}
	action := "product.available"
	if p.Sold {
		action = "product.sold"
	}
	applog.Audit(c, action, map[string]any{"id_producto": id, "cantidad": p.Quantity})
	return c.JSON(p)
}

// Mine serves GET mis-productos/ with its query filters.
func (h *ProductHandler) Mine(c *fiber.Ctx) error {
	q, err := productQuery(c)
	if err != nil {
		return fail(c, err)
	}
	return h.list(c)(h.Products.ListMine(c.UserContext(), actor(c), q))
}

func (h *ProductHandler) ByCategory(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "categoria")
	if err != nil {
		return fail(c, err)
	}
	return h.list(c)(h.Products.ListByCategory(c.UserContext(), actor(c), id))
}

func (h *ProductHandler) ByCondition(c *fiber.Ctx) error {
	return h.list(c)(h.Products.ListByCondition(c.UserContext(), actor(c), c.Params("estado")))
}

func (h *ProductHandler) Sold(c *fiber.Ctx) error {
	return h.list(c)(h.Products.ListSold(c.UserContext(), actor(c)))
}

func (h *ProductHandler) Available(c *fiber.Ctx) error {
	return h.list(c)(h.Products.ListAvailable(c.UserContext(), actor(c)))
}

func (h *ProductHandler) list(c *fiber.Ctx) func([]domain.Product, error) error {
	return func(ps []domain.Product, err error) error {
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(ps)
	}
}

// productQuery maps the listing query string. Only "categoria" is strict:
// a value that is not an id is rejected.
func productQuery(c *fiber.Ctx) (repos.ProductQuery, error) {
	var q repos.ProductQuery
	if raw := strings.TrimSpace(c.Query("categoria")); raw != "" {
		id, ok := validate.ID(raw)
		if !ok {
			return q, badRequest("categoria", "Introduzca un número entero válido.")
		}
		q.CategoryID = id
	}
	q.Condition = strings.TrimSpace(c.Query("estado"))
	raw, present := queryParam(c, "vendido")
	q.Sold = domain.ParseTriState(raw, present)
	q.Search = validate.Search(c.Query("search"))
	q.Ordering = c.Query("ordering")
	return q, nil
}
