package services

import (
	"context"

	"github.com/IngKendrys/scrap-backend/internal/domain"
	"github.com/IngKendrys/scrap-backend/internal/policy"
	"github.com/IngKendrys/scrap-backend/internal/repos"
)

// CatalogService manages categories.
type CatalogService struct {
	Cats   *repos.CategoryRepo
	Policy *policy.Policy
}

func NewCatalogService(cats *repos.CategoryRepo, pol *policy.Policy) *CatalogService {
	return &CatalogService{Cats: cats, Policy: pol}
}

func (s *CatalogService) ListCategories(ctx context.Context, actor *domain.User) ([]domain.Category, error) {
	if err := s.Policy.Check(actor, policy.ListCategories, nil); err != nil {
		return nil, err
	}
	return s.Cats.List(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, actor *domain.User, id int64) (*domain.Category, error) {
	if err := s.Policy.Check(actor, policy.ViewCategory, nil); err != nil {
		return nil, err
	}
	return s.Cats.Get(ctx, id)
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor *domain.User, in domain.CategoryPatch) (*domain.Category, error) {
	if err := s.Policy.Check(actor, policy.CreateCategory, nil); err != nil {
		return nil, err
	}
	c, err := domain.NewCategory(in)
	if err != nil {
		return nil, err
	}
	if err := s.Cats.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCategory applies a partial update; full=true requires nombre.
func (s *CatalogService) UpdateCategory(ctx context.Context, actor *domain.User, id int64, patch domain.CategoryPatch, full bool) (*domain.Category, error) {
	if err := s.Policy.Check(actor, policy.UpdateCategory, nil); err != nil {
		return nil, err
	}
	if full && patch.Name == nil {
		return nil, domain.NewValidationError("nombre", "Este campo es requerido.")
	}
	c, err := s.Cats.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if full && patch.Description == nil {
		c.Description = nil
	}
	if err := patch.Apply(c); err != nil {
		return nil, err
	}
	if err := s.Cats.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes the category and everything filed under it. It
// returns the number of products removed.
func (s *CatalogService) DeleteCategory(ctx context.Context, actor *domain.User, id int64) (int64, error) {
	if err := s.Policy.Check(actor, policy.DeleteCategory, nil); err != nil {
		return 0, err
	}
	return s.Cats.Delete(ctx, id)
}
