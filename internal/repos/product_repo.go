package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/IngKendrys/scrap-backend/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Get(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, r.db.Rebind(productSelect+` WHERE p.id_producto = ?`), id)
	if err != nil {
		return nil, notFound(err, "producto", id, "select producto")
	}
	return &p, nil
}

// Create inserts p and one image row per URL in a single transaction.
func (r *ProductRepo) Create(ctx context.Context, p *domain.Product, imageURLs []string) ([]domain.ProductImage, error) {
	var images []domain.ProductImage
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &p.ID, tx.Rebind(`
			INSERT INTO productos(nombre, descripcion, precio, cantidad, fecha_creacion, fecha_vendido,
			                      estado, vendido, id_negocio, id_categoria, imagen)
			VALUES(?,?,?,?,?,?,?,?,?,?,?)
			RETURNING id_producto`),
			p.Name, p.Description, p.Price, p.Quantity, p.CreatedAt, p.SoldAt,
			p.Condition, p.Sold, p.OwnerID, p.CategoryID, p.Image)
		if err != nil {
			return translate(err, "insert producto")
		}
		images, err = insertImages(ctx, tx, p.ID, imageURLs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

// Update writes the generic fields of p and appends imageURLs to its
// images. The owner column is never written.
func (r *ProductRepo) Update(ctx context.Context, p *domain.Product, imageURLs []string) ([]domain.ProductImage, error) {
	var images []domain.ProductImage
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE productos
			SET nombre=?, descripcion=?, precio=?, cantidad=?, estado=?, id_categoria=?, imagen=?
			WHERE id_producto=?`),
			p.Name, p.Description, p.Price, p.Quantity, p.Condition, p.CategoryID, p.Image, p.ID)
		if err != nil {
			return translate(err, "update producto")
		}
		if err := affected(res, "producto", p.ID); err != nil {
			return err
		}
		images, err = insertImages(ctx, tx, p.ID, imageURLs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

// SaveSale writes the lifecycle columns: sold flag, sale time, quantity.
func (r *ProductRepo) SaveSale(ctx context.Context, p *domain.Product) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE productos SET vendido=?, fecha_vendido=?, cantidad=? WHERE id_producto=?`),
		p.Sold, p.SoldAt, p.Quantity, p.ID)
	if err != nil {
		return translate(err, "update venta")
	}
	return affected(res, "producto", p.ID)
}

// Delete removes the product and its images in one transaction.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM imagenes_productos WHERE id_producto=?`), id); err != nil {
			return translate(err, "delete imagenes")
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM productos WHERE id_producto=?`), id)
		if err != nil {
			return translate(err, "delete producto")
		}
		return affected(res, "producto", id)
	})
}

func (r *ProductRepo) List(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	sql, args := q.build()
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(sql), args...)
	return out, translate(err, "list productos")
}

func insertImages(ctx context.Context, tx *sqlx.Tx, productID int64, urls []string) ([]domain.ProductImage, error) {
	out := make([]domain.ProductImage, 0, len(urls))
	for _, u := range urls {
		img := domain.ProductImage{ProductID: productID, URL: u}
		err := tx.GetContext(ctx, &img.ID, tx.Rebind(`
			INSERT INTO imagenes_productos(id_producto, imagen_url) VALUES(?,?) RETURNING id_imagen`),
			productID, u)
		if err != nil {
			return nil, translate(err, "insert imagen")
		}
		out = append(out, img)
	}
	return out, nil
}
