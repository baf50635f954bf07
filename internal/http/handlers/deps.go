package handlers

import (
	"github.com/jmoiron/sqlx"

	"github.com/IngKendrys/scrap-backend/internal/config"
	"github.com/IngKendrys/scrap-backend/internal/policy"
	"github.com/IngKendrys/scrap-backend/internal/repos"
	"github.com/IngKendrys/scrap-backend/internal/services"
)

type Deps struct {
	AuthService *services.AuthService

	AuthHandler     *AuthHandler
	UserHandler     *UserHandler
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	ImageHandler    *ImageHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, tokens services.TokenStore, blobs services.BlobStore) *Deps {
	pol := policy.New(policy.Options{OpenRegistration: cfg.RegistrationOpen})

	userRepo := repos.NewUserRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	imgRepo := repos.NewImageRepo(db)

	authSvc := services.NewAuthService(userRepo, tokens, services.BcryptHasher{Cost: cfg.BcryptCost}, pol)
	userSvc := services.NewUserService(userRepo, pol)
	catalogSvc := services.NewCatalogService(catRepo, pol)
	productSvc := services.NewProductService(prodRepo, imgRepo, catRepo, blobs, pol)

	return &Deps{
		AuthService:     authSvc,
		AuthHandler:     &AuthHandler{Auth: authSvc},
		UserHandler:     &UserHandler{Users: userSvc},
		CategoryHandler: &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:  &ProductHandler{Products: productSvc},
		ImageHandler:    &ImageHandler{Products: productSvc},
	}
}
