package domain

import (
	"strings"

	"github.com/IngKendrys/scrap-backend/internal/validate"
)

const maxCategoryName = 50

// NewCategory validates a create payload.
func NewCategory(patch CategoryPatch) (*Category, error) {
	c := &Category{}
	if patch.Name == nil {
		return nil, NewValidationError("nombre", msgRequired)
	}
	if err := patch.Apply(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply validates the patch and writes it into c. An empty description is
// stored as NULL.
func (patch CategoryPatch) Apply(c *Category) error {
	next := *c
	if patch.Name != nil {
		s, ok := validate.Text(*patch.Name, maxCategoryName)
		if !ok {
			return NewValidationError("nombre", textMsg(*patch.Name))
		}
		next.Name = s
	}
	if patch.Description != nil {
		if d := strings.TrimSpace(*patch.Description); d != "" {
			next.Description = &d
		} else {
			next.Description = nil
		}
	}
	*c = next
	return nil
}
