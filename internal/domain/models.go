package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          int64   `db:"id_categoria" json:"id_categoria"`
	Name        string  `db:"nombre" json:"nombre"`
	Description *string `db:"descripcion" json:"descripcion"`
}

// CategoryPatch is a category write; nil fields are left untouched.
type CategoryPatch struct {
	Name        *string `json:"nombre"`
	Description *string `json:"descripcion"`
}

// Condition is the physical state of a product.
type Condition string

const (
	ConditionNew  Condition = "Nuevo"
	ConditionUsed Condition = "Usado"
)

func (c Condition) Valid() bool { return c == ConditionNew || c == ConditionUsed }

// Price is a decimal amount with two fractional digits on the wire.
type Price struct {
	decimal.Decimal
}

func NewPrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, err
	}
	return Price{d}, nil
}

func MustPrice(s string) Price {
	p, err := NewPrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.StringFixed(2))
}

type Product struct {
	ID          int64      `db:"id_producto" json:"id_producto"`
	Name        string     `db:"nombre" json:"nombre"`
	Description string     `db:"descripcion" json:"descripcion"`
	Price       Price      `db:"precio" json:"precio"`
	Quantity    int        `db:"cantidad" json:"cantidad"`
	CreatedAt   time.Time  `db:"fecha_creacion" json:"fecha_creacion"`
	SoldAt      *time.Time `db:"fecha_vendido" json:"fecha_vendido"`
	Condition   Condition  `db:"estado" json:"estado"`
	Sold        bool       `db:"vendido" json:"vendido"`
	OwnerID     int64      `db:"id_negocio" json:"id_negocio"`
	CategoryID  int64      `db:"id_categoria" json:"id_categoria"`
	Image       *string    `db:"imagen" json:"imagen"`

	// Read-only, filled by joins.
	CategoryName string `db:"categoria_nombre" json:"categoria_nombre"`
	OwnerName    string `db:"negocio_nombre" json:"negocio_nombre"`
}

type ProductImage struct {
	ID        int64  `db:"id_imagen" json:"id_imagen"`
	ProductID int64  `db:"id_producto" json:"id_producto"`
	URL       string `db:"imagen_url" json:"imagen_url"`
}

// ProductDetail is the retrieve view of a product.
type ProductDetail struct {
	Product
	Category Category       `json:"categoria"`
	Images   []ProductImage `json:"imagenes"`
}

// ProductInput is the create payload. Any owner supplied by a client is
// not part of it: the owner is always the creating identity.
type ProductInput struct {
	Name        string    `json:"nombre"`
	Description string    `json:"descripcion"`
	Price       *Price    `json:"precio"`
	Quantity    *int      `json:"cantidad"`
	Condition   Condition `json:"estado"`
	CategoryID  int64     `json:"id_categoria"`
	Image       *string   `json:"imagen"`
	ImageURLs   []string  `json:"imagenes_urls"`
}

// ProductPatch is the generic update payload; nil fields are untouched.
// It has no owner and no sold flag.
type ProductPatch struct {
	Name        *string    `json:"nombre"`
	Description *string    `json:"descripcion"`
	Price       *Price     `json:"precio"`
	Quantity    *int       `json:"cantidad"`
	Condition   *Condition `json:"estado"`
	CategoryID  *int64     `json:"id_categoria"`
	Image       *string    `json:"imagen"`
	ImageURLs   []string   `json:"imagenes_urls"`
}
