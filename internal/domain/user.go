package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/IngKendrys/scrap-backend/internal/validate"
)

// User is a registered business account, the unit of ownership and
// authentication.
type User struct {
	ID           int64     `db:"id" json:"id"`
	BusinessName string    `db:"nombre_negocio" json:"nombre_negocio"`
	Email        string    `db:"correo" json:"correo"`
	Phone        string    `db:"telefono" json:"telefono"`
	Address      string    `db:"direccion" json:"direccion"`
	Hash         string    `db:"password_hash" json:"-"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	IsAdmin      bool      `db:"is_superuser" json:"is_superuser"`
	RegisteredAt time.Time `db:"fecha_registro" json:"fecha_registro"`
}

// Registration is the input of the register operation.
type Registration struct {
	BusinessName string `json:"nombre_negocio"`
	Email        string `json:"correo"`
	Password     string `json:"password"`
	Phone        string `json:"telefono"`
	Address      string `json:"direccion"`
}

// ProfilePatch holds the self-service editable fields; nil means untouched.
type ProfilePatch struct {
	BusinessName *string `json:"nombre_negocio"`
	Email        *string `json:"correo"`
	Phone        *string `json:"telefono"`
	Address      *string `json:"direccion"`

	// Superuser is only decoded to detect attempts to change the flag.
	Superuser json.RawMessage `json:"is_superuser,omitempty"`
}

// TouchesLockedField reports the first locked field present in the patch.
func (patch ProfilePatch) TouchesLockedField() (string, bool) {
	if patch.Superuser != nil {
		return "is_superuser", true
	}
	return "", false
}

const (
	maxBusinessName = 200
	maxAddress      = 255
	msgEmail        = "Introduzca una dirección de correo electrónico válida."
)

// Normalize trims and validates a registration, returning the cleaned copy.
func (r Registration) Normalize() (Registration, error) {
	verr := &ValidationError{}
	out := r
	if s, ok := validate.Text(r.BusinessName, maxBusinessName); ok {
		out.BusinessName = s
	} else {
		verr.Add("nombre_negocio", textMsg(r.BusinessName))
	}
	if s, ok := validate.Email(r.Email); ok {
		out.Email = s
	} else if strings.TrimSpace(r.Email) == "" {
		verr.Add("correo", msgBlank)
	} else {
		verr.Add("correo", msgEmail)
	}
	if !validate.Password(r.Password) {
		verr.Add("password", msgBlank)
	}
	if s, ok := validate.Phone(r.Phone); ok {
		out.Phone = s
	} else {
		verr.Add("telefono", textMsg(r.Phone))
	}
	if s, ok := validate.Text(r.Address, maxAddress); ok {
		out.Address = s
	} else {
		verr.Add("direccion", textMsg(r.Address))
	}
	if err := verr.OrNil(); err != nil {
		return Registration{}, err
	}
	return out, nil
}

// Apply validates the patch and writes it into u. The administrative flag
// and the active flag are not reachable from here.
func (patch ProfilePatch) Apply(u *User) error {
	verr := &ValidationError{}
	next := *u
	if patch.BusinessName != nil {
		if s, ok := validate.Text(*patch.BusinessName, maxBusinessName); ok {
			next.BusinessName = s
		} else {
			verr.Add("nombre_negocio", textMsg(*patch.BusinessName))
		}
	}
	if patch.Email != nil {
		if s, ok := validate.Email(*patch.Email); ok {
			next.Email = s
		} else {
			verr.Add("correo", msgEmail)
		}
	}
	if patch.Phone != nil {
		if s, ok := validate.Phone(*patch.Phone); ok {
			next.Phone = s
		} else {
			verr.Add("telefono", textMsg(*patch.Phone))
		}
	}
	if patch.Address != nil {
		if s, ok := validate.Text(*patch.Address, maxAddress); ok {
			next.Address = s
		} else {
			verr.Add("direccion", textMsg(*patch.Address))
		}
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	*u = next
	return nil
}
