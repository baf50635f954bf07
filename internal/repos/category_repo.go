package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/IngKendrys/scrap-backend/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `
  SELECT id_categoria, nombre, descripcion
  FROM categorias
  ORDER BY nombre, id_categoria
`)
	return out, translate(err, "list categorias")
}

func (r *CategoryRepo) Get(ctx context.Context, id int64) (*domain.Category, error) {
	var c domain.Category
	err := r.db.GetContext(ctx, &c, r.db.Rebind(`
		SELECT id_categoria, nombre, descripcion FROM categorias WHERE id_categoria=?`), id)
	if err != nil {
		return nil, notFound(err, "categoria", id, "select categoria")
	}
	return &c, nil
}

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	err := r.db.GetContext(ctx, &c.ID, r.db.Rebind(`
		INSERT INTO categorias(nombre, descripcion) VALUES(?,?) RETURNING id_categoria`),
		c.Name, c.Description)
	return translate(err, "insert categoria")
}

func (r *CategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE categorias SET nombre=?, descripcion=? WHERE id_categoria=?`),
		c.Name, c.Description, c.ID)
	if err != nil {
		return translate(err, "update categoria")
	}
	return affected(res, "categoria", c.ID)
}

// Delete removes the category together with every product filed under it
// and those products' images. It reports how many products went with it.
func (r *CategoryRepo) Delete(ctx context.Context, id int64) (int64, error) {
	var removed int64
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			DELETE FROM imagenes_productos
			WHERE id_producto IN (SELECT id_producto FROM productos WHERE id_categoria=?)`), id); err != nil {
			return translate(err, "delete imagenes de categoria")
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM productos WHERE id_categoria=?`), id)
		if err != nil {
			return translate(err, "delete productos de categoria")
		}
		if removed, err = res.RowsAffected(); err != nil {
			return translate(err, "rows affected")
		}
		res, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM categorias WHERE id_categoria=?`), id)
		if err != nil {
			return translate(err, "delete categoria")
		}
		return affected(res, "categoria", id)
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
