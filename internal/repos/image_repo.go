package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/IngKendrys/scrap-backend/internal/domain"
)

type ImageRepo struct{ db *sqlx.DB }

func NewImageRepo(db *sqlx.DB) *ImageRepo { return &ImageRepo{db: db} }

// ByProduct returns the images of a product in insertion order.
func (r *ImageRepo) ByProduct(ctx context.Context, productID int64) ([]domain.ProductImage, error) {
	out := []domain.ProductImage{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT id_imagen, id_producto, imagen_url FROM imagenes_productos
		WHERE id_producto=? ORDER BY id_imagen`), productID)
	return out, translate(err, "list imagenes")
}

func (r *ImageRepo) Get(ctx context.Context, id int64) (*domain.ProductImage, error) {
	var img domain.ProductImage
	err := r.db.GetContext(ctx, &img, r.db.Rebind(`
		SELECT id_imagen, id_producto, imagen_url FROM imagenes_productos WHERE id_imagen=?`), id)
	if err != nil {
		return nil, notFound(err, "imagen", id, "select imagen")
	}
	return &img, nil
}

func (r *ImageRepo) Create(ctx context.Context, img *domain.ProductImage) error {
	err := r.db.GetContext(ctx, &img.ID, r.db.Rebind(`
		INSERT INTO imagenes_productos(id_producto, imagen_url) VALUES(?,?) RETURNING id_imagen`),
		img.ProductID, img.URL)
	return translate(err, "insert imagen")
}

func (r *ImageRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM imagenes_productos WHERE id_imagen=?`), id)
	if err != nil {
		return translate(err, "delete imagen")
	}
	return affected(res, "imagen", id)
}
