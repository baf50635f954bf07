// Package policy decides whether an identity may perform an operation.
//
// Every rule lives in one table so that similarly shaped endpoints cannot
// drift apart. Ownership is always taken from the stored resource passed in
// by the caller, never from a client payload.
package policy

import (
	"github.com/IngKendrys/scrap-backend/internal/domain"
	"github.com/IngKendrys/scrap-backend/internal/metrics"
)

type Operation string

const (
	Authenticate  Operation = "user.authenticate"
	Register      Operation = "user.register"
	Logout        Operation = "user.logout"
	ViewProfile   Operation = "user.profile.view"
	UpdateProfile Operation = "user.profile.update"
	ListUsers     Operation = "user.list"
	ToggleActive  Operation = "user.toggle_active"

	ListCategories Operation = "category.list"
	ViewCategory   Operation = "category.view"
	CreateCategory Operation = "category.create"
	UpdateCategory Operation = "category.update"
	DeleteCategory Operation = "category.delete"

	CreateProduct   Operation = "product.create"
	ViewProduct     Operation = "product.view"
	ListProducts    Operation = "product.list"
	UpdateProduct   Operation = "product.update"
	DeleteProduct   Operation = "product.delete"
	MarkProductSold Operation = "product.mark_sold"

	CreateImage Operation = "image.create"
	DeleteImage Operation = "image.delete"
)

// Requirement is what an operation asks of the acting identity.
type Requirement int

const (
	Public Requirement = iota
	Authenticated
	Admin
	OwnerOrAdmin
)

const (
	ReasonAuthRequired  = "authentication required"
	ReasonAdminRequired = "administrator required"
	ReasonNotOwner      = "not owner"
	ReasonUnknownOp     = "unknown operation"
	ReasonNoResource    = "resource required"
)

// Resource is the stored target of a resource-scoped operation.
type Resource struct {
	OwnerID int64
}

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed bool
	Reason  string
}

var allow = Decision{Allowed: true}

// Err converts a denial into a *domain.PermissionError; nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &domain.PermissionError{Reason: d.Reason, Unauthenticated: d.Reason == ReasonAuthRequired}
}

type Options struct {
	// OpenRegistration lets unauthenticated callers register businesses.
	OpenRegistration bool
}

type Policy struct {
	rules map[Operation]Requirement
}

func New(opts Options) *Policy {
	rules := map[Operation]Requirement{
		Authenticate:  Public,
		Register:      Admin,
		Logout:        Authenticated,
		ViewProfile:   Authenticated,
		UpdateProfile: OwnerOrAdmin,
		ListUsers:     Admin,
		ToggleActive:  Admin,

		ListCategories: Authenticated,
		ViewCategory:   Authenticated,
		CreateCategory: Admin,
		UpdateCategory: Admin,
		DeleteCategory: Admin,

		CreateProduct:   Authenticated,
		ViewProduct:     Authenticated,
		ListProducts:    Authenticated,
		UpdateProduct:   OwnerOrAdmin,
		DeleteProduct:   OwnerOrAdmin,
		MarkProductSold: OwnerOrAdmin,

		CreateImage: OwnerOrAdmin,
		DeleteImage: OwnerOrAdmin,
	}
	if opts.OpenRegistration {
		rules[Register] = Public
	}
	return &Policy{rules: rules}
}

// Authorize evaluates, in order: authentication, administrator role,
// ownership. actor may be nil for anonymous callers; an inactive actor
// counts as anonymous. res is required for OwnerOrAdmin operations.
func (p *Policy) Authorize(actor *domain.User, op Operation, res *Resource) Decision {
	req, ok := p.rules[op]
	if !ok {
		return Decision{Reason: ReasonUnknownOp}
	}
	if req == Public {
		return allow
	}
	if actor == nil || !actor.IsActive {
		return Decision{Reason: ReasonAuthRequired}
	}
	switch req {
	case Authenticated:
		return allow
	case Admin:
		if !actor.IsAdmin {
			return Decision{Reason: ReasonAdminRequired}
		}
		return allow
	case OwnerOrAdmin:
		if actor.IsAdmin {
			return allow
		}
		if res == nil {
			return Decision{Reason: ReasonNoResource}
		}
		if res.OwnerID != actor.ID {
			return Decision{Reason: ReasonNotOwner}
		}
		return allow
	}
	return Decision{Reason: ReasonUnknownOp}
}

// Check is Authorize returning an error. Denials are counted per operation
// and reason.
func (p *Policy) Check(actor *domain.User, op Operation, res *Resource) error {
	d := p.Authorize(actor, op, res)
	if !d.Allowed {
		denied(op, d.Reason)
	}
	return d.Err()
}

// RequireActor fails unless actor counts as authenticated for op.
// Resource-scoped operations call it before loading the resource so
// anonymous callers never learn whether it exists.
func RequireActor(actor *domain.User, op Operation) error {
	if actor == nil || !actor.IsActive {
		denied(op, ReasonAuthRequired)
		return Decision{Reason: ReasonAuthRequired}.Err()
	}
	return nil
}

func denied(op Operation, reason string) {
	metrics.AccessDeniedTotal.WithLabelValues(string(op), reason).Inc()
}
