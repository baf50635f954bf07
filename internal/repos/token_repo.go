package repos

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/IngKendrys/scrap-backend/internal/domain"
)

// TokenRepo keeps one opaque auth token per account in the tokens table.
type TokenRepo struct{ db *sqlx.DB }

func NewTokenRepo(db *sqlx.DB) *TokenRepo { return &TokenRepo{db: db} }

// Issue returns the account's live token, creating one when none exists.
func (r *TokenRepo) Issue(ctx context.Context, userID int64) (string, error) {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO tokens(token, user_id, created_at) VALUES(?,?,?)
		ON CONFLICT(user_id) DO NOTHING`), newTokenKey(), userID, time.Now().UTC())
	if err != nil {
		return "", translate(err, "insert token")
	}
	var tok string
	err = r.db.GetContext(ctx, &tok, r.db.Rebind(`SELECT token FROM tokens WHERE user_id=?`), userID)
	return tok, translate(err, "select token")
}

// Resolve returns the account id owning tok.
func (r *TokenRepo) Resolve(ctx context.Context, tok string) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, r.db.Rebind(`SELECT user_id FROM tokens WHERE token=?`), tok)
	if stderrors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrTokenNotFound
	}
	return id, translate(err, "resolve token")
}

// Revoke deletes tok; it reports false when no such token was live.
func (r *TokenRepo) Revoke(ctx context.Context, tok string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM tokens WHERE token=?`), tok)
	if err != nil {
		return false, translate(err, "delete token")
	}
	n, err := res.RowsAffected()
	return n > 0, translate(err, "rows affected")
}

// newTokenKey returns 32 hex characters of randomness.
func newTokenKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
