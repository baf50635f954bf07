package services

import (
	"context"

	"github.com/IngKendrys/scrap-backend/internal/domain"
	"github.com/IngKendrys/scrap-backend/internal/policy"
	"github.com/IngKendrys/scrap-backend/internal/repos"
)

type UserService struct {
	Users  *repos.UserRepo
	Policy *policy.Policy
}

func NewUserService(users *repos.UserRepo, pol *policy.Policy) *UserService {
	return &UserService{Users: users, Policy: pol}
}

func (s *UserService) Profile(ctx context.Context, actor *domain.User) (*domain.User, error) {
	if err := s.Policy.Check(actor, policy.ViewProfile, nil); err != nil {
		return nil, err
	}
	return s.Users.ByID(ctx, actor.ID)
}

// UpdateProfile edits the self-service fields of targetID. Payloads that
// touch a locked field are refused as a whole.
func (s *UserService) UpdateProfile(ctx context.Context, actor *domain.User, targetID int64, patch domain.ProfilePatch) (*domain.User, error) {
	if err := s.Policy.Check(actor, policy.UpdateProfile, &policy.Resource{OwnerID: targetID}); err != nil {
		return nil, err
	}
	if field, locked := patch.TouchesLockedField(); locked {
		return nil, &domain.PermissionError{Reason: "cannot modify field: " + field}
	}
	u, err := s.Users.ByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(u); err != nil {
		return nil, err
	}
	if err := s.Users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context, actor *domain.User, active domain.TriState) ([]domain.User, error) {
	if err := s.Policy.Check(actor, policy.ListUsers, nil); err != nil {
		return nil, err
	}
	return s.Users.List(ctx, active)
}

// ToggleActive flips the active flag of targetID. An administrator may
// deactivate itself.
func (s *UserService) ToggleActive(ctx context.Context, actor *domain.User, targetID int64) (*domain.User, error) {
	if err := s.Policy.Check(actor, policy.ToggleActive, nil); err != nil {
		return nil, err
	}
	return s.Users.ToggleActive(ctx, targetID)
}

// SetActive backs explicit deactivate/reactivate; it is idempotent.
func (s *UserService) SetActive(ctx context.Context, actor *domain.User, targetID int64, active bool) (*domain.User, error) {
	if err := s.Policy.Check(actor, policy.ToggleActive, nil); err != nil {
		return nil, err
	}
	return s.Users.SetActive(ctx, targetID, active)
}
