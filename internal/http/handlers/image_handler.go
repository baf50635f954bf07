package handlers

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/IngKendrys/scrap-backend/internal/domain"
	applog "github.com/IngKendrys/scrap-backend/internal/log"
	"github.com/IngKendrys/scrap-backend/internal/policy"
	"github.com/IngKendrys/scrap-backend/internal/services"
	"github.com/IngKendrys/scrap-backend/internal/validate"
)

const msgNoImage = "No se envió ninguna imagen"

type ImageHandler struct {
	Products *services.ProductService
}

type imageRequest struct {
	ProductID int64  `json:"id_producto"`
	URL       string `json:"imagen_url"`
}

// Create accepts either a multipart upload (file field "imagen_url") or a
// JSON body carrying an already hosted URL. Payload checks that need the
// product run after ownership.
func (h *ImageHandler) Create(c *fiber.Ctx) error {
	a := actor(c)
	if err := policy.RequireActor(a, policy.CreateImage); err != nil {
		return fail(c, err)
	}
	var (
		img *domain.ProductImage
		err error
	)
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		img, err = h.upload(c, a)
	} else {
		img, err = h.attach(c, a)
	}
	if err != nil {
		return fail(c, err)
	}
	c.Status(fiber.StatusCreated)
	applog.Audit(c, "image.create", map[string]any{"id_imagen": img.ID, "id_producto": img.ProductID})
	return c.JSON(img)
}

func (h *ImageHandler) attach(c *fiber.Ctx, a *domain.User) (*domain.ProductImage, error) {
	var in imageRequest
	if err := bind(c, &in); err != nil {
		return nil, err
	}
	if in.ProductID <= 0 {
		return nil, badRequest("id_producto", "Este campo es requerido.")
	}
	if strings.TrimSpace(in.URL) == "" {
		if err := h.Products.CheckOwner(c.UserContext(), a, policy.CreateImage, in.ProductID); err != nil {
			return nil, err
		}
		return nil, badRequest("imagen_url", msgNoImage)
	}
	return h.Products.AttachImage(c.UserContext(), a, in.ProductID, in.URL)
}

// upload hands a missing file to the service as empty data so ownership is
// still checked first.
func (h *ImageHandler) upload(c *fiber.Ctx, a *domain.User) (*domain.ProductImage, error) {
	productID, ok := validate.ID(c.FormValue("id_producto"))
	if !ok {
		return nil, badRequest("id_producto", "Este campo es requerido.")
	}
	var data []byte
	if fh, err := c.FormFile("imagen_url"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, errors.Wrap(err, "open upload")
		}
		defer f.Close()
		if data, err = io.ReadAll(f); err != nil {
			return nil, errors.Wrap(err, "read upload")
		}
	}
	return h.Products.UploadImage(c.UserContext(), a, productID, data)
}

func (h *ImageHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "imagen")
	if err != nil {
		return fail(c, err)
	}
	if err := h.Products.DeleteImage(c.UserContext(), actor(c), id); err != nil {
		return fail(c, err)
	}
	c.Status(fiber.StatusNoContent)
	applog.Audit(c, "image.delete", map[string]any{"id_imagen": id})
	return nil
}
