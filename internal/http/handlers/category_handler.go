package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/IngKendrys/scrap-backend/internal/domain"
	applog "github.com/IngKendrys/scrap-backend/internal/log"
	"github.com/IngKendrys/scrap-backend/internal/policy"
	"github.com/IngKendrys/scrap-backend/internal/services"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext(), actor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(cats)
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in domain.CategoryPatch
	err := bindAuthorized(c, &in, func() error {
		return h.Catalog.Policy.Check(actor(c), policy.CreateCategory, nil)
	})
	if err != nil {
		return fail(c, err)
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), actor(c), in)
	if err != nil {
		return fail(c, err)
	}
	c.Status(fiber.StatusCreated)
	applog.Audit(c, "category.create", map[string]any{"id_categoria": cat.ID})
	return c.JSON(cat)
}

func (h *CategoryHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "categoria")
	if err != nil {
		return fail(c, err)
	}
	cat, err := h.Catalog.GetCategory(c.UserContext(), actor(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(cat)
}

// Update serves both PUT and PATCH.
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "categoria")
	if err != nil {
		return fail(c, err)
	}
	var patch domain.CategoryPatch
	err = bindAuthorized(c, &patch, func() error {
		return h.Catalog.Policy.Check(actor(c), policy.UpdateCategory, nil)
	})
	if err != nil {
		return fail(c, err)
	}
	cat, err := h.Catalog.UpdateCategory(c.UserContext(), actor(c), id, patch, isFull(c))
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "category.update", map[string]any{"id_categoria": id})
	return c.JSON(cat)
}

func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "categoria")
	if err != nil {
		return fail(c, err)
	}
	n, err := h.Catalog.DeleteCategory(c.UserContext(), actor(c), id)
	if err != nil {
		return fail(c, err)
	}
	c.Status(fiber.StatusNoContent)
	applog.Audit(c, "category.delete", map[string]any{"id_categoria": id, "productos_eliminados": n})
	return nil
}
