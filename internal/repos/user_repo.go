package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/IngKendrys/scrap-backend/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, nombre_negocio, correo, telefono, direccion, password_hash, is_active, is_superuser, fecha_registro`

// Create inserts u and sets its ID. Duplicate name, email or phone come
// back as *domain.ValidationError.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	q := r.DB.Rebind(`
		INSERT INTO usuarios(nombre_negocio, correo, telefono, direccion, password_hash, is_active, is_superuser, fecha_registro)
		VALUES(?,?,?,?,?,?,?,?)
		RETURNING id`)
	err := r.DB.GetContext(ctx, &u.ID, q,
		u.BusinessName, u.Email, u.Phone, u.Address, u.Hash, u.IsActive, u.IsAdmin, u.RegisteredAt)
	return translate(err, "insert usuario")
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`SELECT `+userColumns+` FROM usuarios WHERE correo=?`), email)
	if err != nil {
		return nil, notFound(err, "usuario", email, "select usuario by correo")
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`SELECT `+userColumns+` FROM usuarios WHERE id=?`), id)
	if err != nil {
		return nil, notFound(err, "usuario", id, "select usuario")
	}
	return &u, nil
}

// UpdateProfile writes the self-service fields of u.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *domain.User) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		UPDATE usuarios SET nombre_negocio=?, correo=?, telefono=?, direccion=?
		WHERE id=?`), u.BusinessName, u.Email, u.Phone, u.Address, u.ID)
	if err != nil {
		return translate(err, "update usuario")
	}
	return affected(res, "usuario", u.ID)
}

func (r *UserRepo) SetActive(ctx context.Context, id int64, active bool) (*domain.User, error) {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE usuarios SET is_active=? WHERE id=?`), active, id)
	if err != nil {
		return nil, translate(err, "update is_active")
	}
	if err := affected(res, "usuario", id); err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

// ToggleActive flips the active flag in a single statement.
func (r *UserRepo) ToggleActive(ctx context.Context, id int64) (*domain.User, error) {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`UPDATE usuarios SET is_active = NOT is_active WHERE id=?`), id)
	if err != nil {
		return nil, translate(err, "toggle is_active")
	}
	if err := affected(res, "usuario", id); err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

// List returns accounts, newest registration first, optionally filtered by
// the active flag.
func (r *UserRepo) List(ctx context.Context, active domain.TriState) ([]domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM usuarios`
	var args []any
	if v, ok := active.Bool(); ok {
		q += ` WHERE is_active = ?`
		args = append(args, v)
	}
	q += ` ORDER BY fecha_registro DESC, id DESC`

	out := []domain.User{}
	err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(q), args...)
	return out, translate(err, "list usuarios")
}
