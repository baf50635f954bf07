package domain

import (
	"strings"
	"time"

	"github.com/IngKendrys/scrap-backend/internal/validate"
)

const (
	msgBlank         = "Este campo no puede estar vacío."
	msgRequired      = "Este campo es requerido."
	msgTooLong       = "Asegúrese de que este campo no tenga más caracteres de los permitidos."
	msgPrice         = "El precio debe ser mayor a 0."
	msgPriceDigits   = "El precio admite como máximo 8 dígitos enteros y 2 decimales."
	msgQuantity      = "La cantidad debe ser mayor o igual a 0."
	msgCondition     = "Elija una opción válida: Nuevo o Usado."
	msgCategory      = "Categoría inválida."
	msgURL           = "Introduzca una URL válida."
	maxProductName   = 100
	maxImageURLChars = 500
)

// NewProduct builds a product owned by ownerID from a create payload. The
// product starts unsold with its creation timestamp set to now.
func NewProduct(in ProductInput, ownerID int64, now time.Time) (*Product, error) {
	verr := &ValidationError{}
	p := &Product{
		OwnerID:    ownerID,
		CreatedAt:  now,
		Condition:  ConditionNew,
		CategoryID: in.CategoryID,
	}

	if s, ok := validate.Text(in.Name, maxProductName); ok {
		p.Name = s
	} else {
		verr.Add("nombre", textMsg(in.Name))
	}
	if s, ok := validate.Text(in.Description, 0); ok {
		p.Description = s
	} else {
		verr.Add("descripcion", msgBlank)
	}
	if in.Price == nil {
		verr.Add("precio", msgRequired)
	} else if msg := priceMsg(*in.Price); msg != "" {
		verr.Add("precio", msg)
	} else {
		p.Price = *in.Price
	}
	if in.Quantity == nil {
		verr.Add("cantidad", msgRequired)
	} else if !validate.Quantity(*in.Quantity) {
		verr.Add("cantidad", msgQuantity)
	} else {
		p.Quantity = *in.Quantity
	}
	if in.Condition != "" {
		if !in.Condition.Valid() {
			verr.Add("estado", msgCondition)
		}
		p.Condition = in.Condition
	}
	if in.CategoryID <= 0 {
		verr.Add("id_categoria", msgRequired)
	}
	if in.Image != nil && strings.TrimSpace(*in.Image) != "" {
		u, ok := validate.URL(*in.Image, maxImageURLChars)
		if !ok {
			verr.Add("imagen", msgURL)
		}
		p.Image = &u
	}
	checkURLs(verr, in.ImageURLs)

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return p, nil
}

// Apply validates and applies a generic update. Owner, sold flag and
// timestamps are never touched here.
func (p *Product) Apply(patch ProductPatch) error {
	verr := &ValidationError{}
	next := *p

	if patch.Name != nil {
		if s, ok := validate.Text(*patch.Name, maxProductName); ok {
			next.Name = s
		} else {
			verr.Add("nombre", textMsg(*patch.Name))
		}
	}
	if patch.Description != nil {
		if s, ok := validate.Text(*patch.Description, 0); ok {
			next.Description = s
		} else {
			verr.Add("descripcion", msgBlank)
		}
	}
	if patch.Price != nil {
		if msg := priceMsg(*patch.Price); msg != "" {
			verr.Add("precio", msg)
		} else {
			next.Price = *patch.Price
		}
	}
	if patch.Quantity != nil {
		if !validate.Quantity(*patch.Quantity) {
			verr.Add("cantidad", msgQuantity)
		} else {
			next.Quantity = *patch.Quantity
		}
	}
	if patch.Condition != nil {
		if !patch.Condition.Valid() {
			verr.Add("estado", msgCondition)
		} else {
			next.Condition = *patch.Condition
		}
	}
	if patch.CategoryID != nil {
		if *patch.CategoryID <= 0 {
			verr.Add("id_categoria", msgCategory)
		} else {
			next.CategoryID = *patch.CategoryID
		}
	}
	if patch.Image != nil {
		if strings.TrimSpace(*patch.Image) == "" {
			next.Image = nil
		} else if u, ok := validate.URL(*patch.Image, maxImageURLChars); ok {
			next.Image = &u
		} else {
			verr.Add("imagen", msgURL)
		}
	}
	checkURLs(verr, patch.ImageURLs)

	if err := verr.OrNil(); err != nil {
		return err
	}
	*p = next
	return nil
}

// RequireComplete rejects a full (PUT) update that omits a required field.
func (patch ProductPatch) RequireComplete() error {
	verr := &ValidationError{}
	if patch.Name == nil {
		verr.Add("nombre", msgRequired)
	}
	if patch.Description == nil {
		verr.Add("descripcion", msgRequired)
	}
	if patch.Price == nil {
		verr.Add("precio", msgRequired)
	}
	if patch.Quantity == nil {
		verr.Add("cantidad", msgRequired)
	}
	if patch.CategoryID == nil {
		verr.Add("id_categoria", msgRequired)
	}
	return verr.OrNil()
}

// MarkSold flips the product to sold, stamps the sale time and takes one
// unit out of stock. Quantity is clamped at zero: selling a product with no
// stock left is not an error.
func (p *Product) MarkSold(now time.Time) {
	t := now
	p.Sold = true
	p.SoldAt = &t
	if p.Quantity > 0 {
		p.Quantity--
	}
}

// MarkAvailable reverts a sale. The unit taken by MarkSold is not put back;
// sold flag and quantity are only loosely coupled.
func (p *Product) MarkAvailable() {
	p.Sold = false
	p.SoldAt = nil
}

// Check reports whether the stored invariants hold.
func (p *Product) Check() error {
	verr := &ValidationError{}
	if !p.Price.IsPositive() {
		verr.Add("precio", msgPrice)
	}
	if p.Quantity < 0 {
		verr.Add("cantidad", msgQuantity)
	}
	if p.Sold != (p.SoldAt != nil) {
		verr.Add("vendido", "vendido y fecha_vendido no concuerdan.")
	}
	return verr.OrNil()
}

// ImageURLs validates and trims a list of image URLs.
func ImageURLs(urls []string) ([]string, error) {
	verr := &ValidationError{}
	checkURLs(verr, urls)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		out = append(out, strings.TrimSpace(u))
	}
	return out, nil
}

func checkURLs(verr *ValidationError, urls []string) {
	for _, u := range urls {
		if _, ok := validate.URL(u, maxImageURLChars); !ok {
			verr.Add("imagenes_urls", msgURL)
			return
		}
	}
}

func priceMsg(p Price) string {
	if !validate.Price(p.Decimal) {
		return msgPrice
	}
	if !validate.PriceDigits(p.Decimal, 8, 2) {
		return msgPriceDigits
	}
	return ""
}

func textMsg(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return msgBlank
	}
	return msgTooLong
}
