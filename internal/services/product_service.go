package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/pkg/errors"

	"github.com/IngKendrys/scrap-backend/internal/blob"
	"github.com/IngKendrys/scrap-backend/internal/domain"
	applog "github.com/IngKendrys/scrap-backend/internal/log"
	"github.com/IngKendrys/scrap-backend/internal/metrics"
	"github.com/IngKendrys/scrap-backend/internal/policy"
	"github.com/IngKendrys/scrap-backend/internal/repos"
)

const (
	msgCategoryMissing = "Categoría inválida: no existe."
	msgSoldRequired    = "El campo 'vendido' es requerido."
)

// BlobStore keeps uploaded image bytes and returns their URL. Remove
// ignores URLs it did not issue.
type BlobStore interface {
	Store(data []byte) (string, error)
	Remove(url string) error
}

type ProductService struct {
	Prods  *repos.ProductRepo
	Images *repos.ImageRepo
	Cats   *repos.CategoryRepo
	Blobs  BlobStore
	Policy *policy.Policy
	Now    func() time.Time
}

func NewProductService(prods *repos.ProductRepo, images *repos.ImageRepo, cats *repos.CategoryRepo, blobs BlobStore, pol *policy.Policy) *ProductService {
	return &ProductService{Prods: prods, Images: images, Cats: cats, Blobs: blobs, Policy: pol, Now: time.Now}
}

// Create lists a new product owned by actor. Image URLs are stored in the
// same transaction as the product.
func (s *ProductService) Create(ctx context.Context, actor *domain.User, in domain.ProductInput) (*domain.ProductDetail, error) {
	if err := s.Policy.Check(actor, policy.CreateProduct, nil); err != nil {
		return nil, err
	}
	p, err := domain.NewProduct(in, actor.ID, s.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.categoryExists(ctx, p.CategoryID); err != nil {
		return nil, err
	}
	urls, err := domain.ImageURLs(in.ImageURLs)
	if err != nil {
		return nil, err
	}
	if err := p.Check(); err != nil {
		return nil, err
	}
	if _, err := s.Prods.Create(ctx, p, urls); err != nil {
		return nil, err
	}
	metrics.ProductsCreatedTotal.Inc()
	return s.detail(ctx, p.ID)
}

// Get returns the detail view. Any authenticated identity may read any
// product.
func (s *ProductService) Get(ctx context.Context, actor *domain.User, id int64) (*domain.ProductDetail, error) {
	if err := s.Policy.Check(actor, policy.ViewProduct, nil); err != nil {
		return nil, err
	}
	return s.detail(ctx, id)
}

// Update applies a generic field update. full=true is a PUT and requires
// every mandatory field. Owner and sold flag are not reachable from here.
func (s *ProductService) Update(ctx context.Context, actor *domain.User, id int64, patch domain.ProductPatch, full bool) (*domain.ProductDetail, error) {
	p, err := s.owned(ctx, actor, policy.UpdateProduct, id)
	if err != nil {
		return nil, err
	}
	if full {
		if err := patch.RequireComplete(); err != nil {
			return nil, err
		}
	}
	prevCategory := p.CategoryID
	if err := p.Apply(patch); err != nil {
		return nil, err
	}
	if p.CategoryID != prevCategory {
		if err := s.categoryExists(ctx, p.CategoryID); err != nil {
			return nil, err
		}
	}
	urls, err := domain.ImageURLs(patch.ImageURLs)
	if err != nil {
		return nil, err
	}
	if err := p.Check(); err != nil {
		return nil, err
	}
	if _, err := s.Prods.Update(ctx, p, urls); err != nil {
		return nil, err
	}
	return s.detail(ctx, p.ID)
}

// SetSold is the mark-sold operation: sold=true marks it sold, false makes
// it available again. Ownership is checked before the flag, so a missing
// flag is a validation error only for the owner or an admin.
func (s *ProductService) SetSold(ctx context.Context, actor *domain.User, id int64, sold *bool) (*domain.Product, error) {
	p, err := s.owned(ctx, actor, policy.MarkProductSold, id)
	if err != nil {
		return nil, err
	}
	if sold == nil {
		return nil, domain.NewValidationError("vendido", msgSoldRequired)
	}
	if *sold {
		return s.sell(ctx, p)
	}
	return s.unsell(ctx, p)
}

// MarkSold stamps the sale and takes one unit out of stock. Selling an
// already sold product moves the timestamp forward.
func (s *ProductService) MarkSold(ctx context.Context, actor *domain.User, id int64) (*domain.Product, error) {
	p, err := s.owned(ctx, actor, policy.MarkProductSold, id)
	if err != nil {
		return nil, err
	}
	return s.sell(ctx, p)
}

// MarkAvailable reverts a sale. Quantity is left as it is.
func (s *ProductService) MarkAvailable(ctx context.Context, actor *domain.User, id int64) (*domain.Product, error) {
	p, err := s.owned(ctx, actor, policy.MarkProductSold, id)
	if err != nil {
		return nil, err
	}
	return s.unsell(ctx, p)
}

func (s *ProductService) sell(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	p.MarkSold(s.Now().UTC())
	if err := s.saveSale(ctx, p); err != nil {
		return nil, err
	}
	metrics.ProductsSoldTotal.Inc()
	return p, nil
}

func (s *ProductService) unsell(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	p.MarkAvailable()
	if err := s.saveSale(ctx, p); err != nil {
		return nil, err
	}
	metrics.ProductsAvailableTotal.Inc()
	return p, nil
}

func (s *ProductService) saveSale(ctx context.Context, p *domain.Product) error {
	if err := p.Check(); err != nil {
		return err
	}
	return s.Prods.SaveSale(ctx, p)
}

// CheckOwner reports whether actor may run op on product id, without
// touching it. Handlers use it to rank a permission failure above a
// malformed body.
func (s *ProductService) CheckOwner(ctx context.Context, actor *domain.User, op policy.Operation, id int64) error {
	_, err := s.owned(ctx, actor, op, id)
	return err
}

func (s *ProductService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	if _, err := s.owned(ctx, actor, policy.DeleteProduct, id); err != nil {
		return err
	}
	if err := s.Prods.Delete(ctx, id); err != nil {
		return err
	}
	metrics.ProductsDeletedTotal.Inc()
	return nil
}

// ListMine lists the actor's own products. The owner filter always comes
// from actor; whatever q.OwnerID holds is replaced.
func (s *ProductService) ListMine(ctx context.Context, actor *domain.User, q repos.ProductQuery) ([]domain.Product, error) {
	if err := s.Policy.Check(actor, policy.ListProducts, nil); err != nil {
		return nil, err
	}
	q.OwnerID = actor.ID
	return s.Prods.List(ctx, q)
}

func (s *ProductService) ListByCategory(ctx context.Context, actor *domain.User, categoryID int64) ([]domain.Product, error) {
	return s.ListMine(ctx, actor, repos.ProductQuery{CategoryID: categoryID})
}

func (s *ProductService) ListByCondition(ctx context.Context, actor *domain.User, condition string) ([]domain.Product, error) {
	return s.ListMine(ctx, actor, repos.ProductQuery{Condition: condition})
}

func (s *ProductService) ListSold(ctx context.Context, actor *domain.User) ([]domain.Product, error) {
	return s.ListMine(ctx, actor, repos.ProductQuery{Sold: domain.True})
}

func (s *ProductService) ListAvailable(ctx context.Context, actor *domain.User) ([]domain.Product, error) {
	return s.ListMine(ctx, actor, repos.ProductQuery{Sold: domain.False})
}

// AttachImage records an already hosted image URL for a product.
func (s *ProductService) AttachImage(ctx context.Context, actor *domain.User, productID int64, url string) (*domain.ProductImage, error) {
	if _, err := s.owned(ctx, actor, policy.CreateImage, productID); err != nil {
		return nil, err
	}
	urls, err := domain.ImageURLs([]string{url})
	if err != nil {
		return nil, err
	}
	img := &domain.ProductImage{ProductID: productID, URL: urls[0]}
	if err := s.Images.Create(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

// UploadImage stores data in the blob store and records its URL.
func (s *ProductService) UploadImage(ctx context.Context, actor *domain.User, productID int64, data []byte) (*domain.ProductImage, error) {
	if _, err := s.owned(ctx, actor, policy.CreateImage, productID); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, domain.NewValidationError("imagen_url", "No se envió ninguna imagen")
	}
	url, err := s.Blobs.Store(data)
	if stderrors.Is(err, blob.ErrNotImage) {
		return nil, domain.NewValidationError("imagen_url", "El archivo no es una imagen válida.")
	}
	if err != nil {
		return nil, errors.Wrap(err, "store image")
	}
	img := &domain.ProductImage{ProductID: productID, URL: url}
	if err := s.Images.Create(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

// DeleteImage removes one image; ownership is that of its product.
func (s *ProductService) DeleteImage(ctx context.Context, actor *domain.User, imageID int64) error {
	if err := policy.RequireActor(actor, policy.DeleteImage); err != nil {
		return err
	}
	img, err := s.Images.Get(ctx, imageID)
	if err != nil {
		return err
	}
	if _, err := s.owned(ctx, actor, policy.DeleteImage, img.ProductID); err != nil {
		return err
	}
	if err := s.Images.Delete(ctx, imageID); err != nil {
		return err
	}
	// A failed file removal does not undo the delete.
	if err := s.Blobs.Remove(img.URL); err != nil {
		applog.L.WithError(err).WithField("id_imagen", imageID).Warn("image file not removed")
	}
	return nil
}

// owned loads a product and checks op against its stored owner.
func (s *ProductService) owned(ctx context.Context, actor *domain.User, op policy.Operation, id int64) (*domain.Product, error) {
	if err := policy.RequireActor(actor, op); err != nil {
		return nil, err
	}
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Policy.Check(actor, op, &policy.Resource{OwnerID: p.OwnerID}); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) detail(ctx context.Context, id int64) (*domain.ProductDetail, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := s.Cats.Get(ctx, p.CategoryID)
	if err != nil {
		return nil, err
	}
	imgs, err := s.Images.ByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ProductDetail{Product: *p, Category: *c, Images: imgs}, nil
}

func (s *ProductService) categoryExists(ctx context.Context, id int64) error {
	_, err := s.Cats.Get(ctx, id)
	var nf *domain.NotFoundError
	if stderrors.As(err, &nf) {
		return domain.NewValidationError("id_categoria", msgCategoryMissing)
	}
	return err
}
