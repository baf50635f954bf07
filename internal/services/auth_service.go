package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/IngKendrys/scrap-backend/internal/domain"
	"github.com/IngKendrys/scrap-backend/internal/metrics"
	"github.com/IngKendrys/scrap-backend/internal/policy"
	"github.com/IngKendrys/scrap-backend/internal/repos"
	"github.com/IngKendrys/scrap-backend/internal/validate"
)

const (
	ReasonInvalidToken    = "invalid token"
	ReasonAccountInactive = "account inactive"
)

// PasswordHasher is the credential store.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

type BcryptHasher struct{ Cost int }

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(b), errors.Wrap(err, "hash password")
}

func (h BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// TokenStore issues one opaque key per identity.
type TokenStore interface {
	Issue(ctx context.Context, userID int64) (string, error)
	Resolve(ctx context.Context, key string) (int64, error)
	Revoke(ctx context.Context, key string) (bool, error)
}

type AuthService struct {
	Users  *repos.UserRepo
	Tokens TokenStore
	Hasher PasswordHasher
	Policy *policy.Policy
	Now    func() time.Time
}

func NewAuthService(users *repos.UserRepo, tokens TokenStore, hasher PasswordHasher, pol *policy.Policy) *AuthService {
	return &AuthService{Users: users, Tokens: tokens, Hasher: hasher, Policy: pol, Now: time.Now}
}

// Register creates an active, non-administrator business account.
func (s *AuthService) Register(ctx context.Context, actor *domain.User, reg domain.Registration) (*domain.User, error) {
	if err := s.Policy.Check(actor, policy.Register, nil); err != nil {
		return nil, err
	}
	return s.create(ctx, reg, false)
}

// CreateSuperuser bootstraps an administrator outside the policy; it backs
// the createsuperuser command.
func (s *AuthService) CreateSuperuser(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	return s.create(ctx, reg, true)
}

func (s *AuthService) create(ctx context.Context, reg domain.Registration, admin bool) (*domain.User, error) {
	reg, err := reg.Normalize()
	if err != nil {
		return nil, err
	}
	hash, err := s.Hasher.Hash(reg.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		BusinessName: reg.BusinessName,
		Email:        reg.Email,
		Phone:        reg.Phone,
		Address:      reg.Address,
		Hash:         hash,
		IsActive:     true,
		IsAdmin:      admin,
		RegisteredAt: s.Now().UTC(),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks the password before the active flag, so an inactive
// account is only reported to someone who knows its password. The identity's
// live token is reused when there is one.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, string, error) {
	if err := s.Policy.Check(nil, policy.Authenticate, nil); err != nil {
		return nil, "", err
	}
	u, err := s.Users.ByEmail(ctx, validate.NormalizeEmail(email))
	var nf *domain.NotFoundError
	if stderrors.As(err, &nf) {
		metrics.LoginsTotal.WithLabelValues(domain.ErrInvalidCredentials.Code).Inc()
		return nil, "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !s.Hasher.Compare(u.Hash, password) {
		metrics.LoginsTotal.WithLabelValues(domain.ErrInvalidCredentials.Code).Inc()
		return nil, "", domain.ErrInvalidCredentials
	}
	if !u.IsActive {
		metrics.LoginsTotal.WithLabelValues(domain.ErrAccountInactive.Code).Inc()
		return nil, "", domain.ErrAccountInactive
	}
	key, err := s.Tokens.Issue(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return u, key, nil
}

// Logout revokes token. A token that is already gone is not an error; the
// boolean reports whether one was live.
func (s *AuthService) Logout(ctx context.Context, actor *domain.User, token string) (bool, error) {
	if err := s.Policy.Check(actor, policy.Logout, nil); err != nil {
		return false, err
	}
	return s.Tokens.Revoke(ctx, token)
}

// Resolve maps a presented token to its identity.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, &domain.PermissionError{Reason: policy.ReasonAuthRequired, Unauthenticated: true}
	}
	id, err := s.Tokens.Resolve(ctx, token)
	if stderrors.Is(err, domain.ErrTokenNotFound) {
		return nil, &domain.PermissionError{Reason: ReasonInvalidToken, Unauthenticated: true}
	}
	if err != nil {
		return nil, err
	}
	u, err := s.Users.ByID(ctx, id)
	var nf *domain.NotFoundError
	if stderrors.As(err, &nf) {
		return nil, &domain.PermissionError{Reason: ReasonInvalidToken, Unauthenticated: true}
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, &domain.PermissionError{Reason: ReasonAccountInactive, Unauthenticated: true}
	}
	return u, nil
}
