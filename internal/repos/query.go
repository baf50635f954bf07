package repos

import (
	"strings"
	"unicode"

	"github.com/IngKendrys/scrap-backend/internal/domain"
)

const defaultProductOrder = "p.fecha_creacion DESC"

var productOrderColumns = map[string]string{
	"fecha_creacion": "p.fecha_creacion",
	"precio":         "p.precio",
	"nombre":         "p.nombre",
}

// ProductQuery describes an owner-scoped product listing. Zero values mean
// "no filter" except OwnerID, which always applies.
type ProductQuery struct {
	OwnerID    int64
	CategoryID int64
	Condition  string
	Sold       domain.TriState
	Search     string
	Ordering   string
}

const productSelect = `
  SELECT
    p.id_producto, p.nombre, p.descripcion, p.precio, p.cantidad,
    p.fecha_creacion, p.fecha_vendido, p.estado, p.vendido,
    p.id_negocio, p.id_categoria, p.imagen,
    c.nombre AS categoria_nombre, u.nombre_negocio AS negocio_nombre
  FROM productos p
  JOIN categorias c ON c.id_categoria = p.id_categoria
  JOIN usuarios u ON u.id = p.id_negocio`

// build returns the listing SQL with '?' placeholders and its arguments.
func (q ProductQuery) build() (string, []any) {
	where := []string{`p.id_negocio = ?`}
	args := []any{q.OwnerID}

	if q.CategoryID > 0 {
		where = append(where, `p.id_categoria = ?`)
		args = append(args, q.CategoryID)
	}
	if q.Condition != "" {
		where = append(where, `p.estado = ?`)
		args = append(args, q.Condition)
	}
	if v, ok := q.Sold.Bool(); ok {
		where = append(where, `p.vendido = ?`)
		args = append(args, v)
	}
	for _, term := range searchTerms(q.Search) {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		where = append(where, `(LOWER(p.nombre) LIKE ? ESCAPE '\' OR LOWER(p.descripcion) LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}

	sql := productSelect + `
  WHERE ` + strings.Join(where, " AND ") + `
  ORDER BY ` + orderBy(q.Ordering) + `, p.id_producto DESC`
	return sql, args
}

// searchTerms splits on whitespace and commas; every term must match.
func searchTerms(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// orderBy parses "field,-field" against the allowed columns. Unknown
// fields are dropped; nothing valid falls back to newest first.
func orderBy(raw string) string {
	var terms []string
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		dir := "ASC"
		if strings.HasPrefix(f, "-") {
			dir = "DESC"
			f = f[1:]
		}
		if col, ok := productOrderColumns[f]; ok {
			terms = append(terms, col+" "+dir)
		}
	}
	if len(terms) == 0 {
		return defaultProductOrder
	}
	return strings.Join(terms, ", ")
}
