package repos

import (
	"database/sql"
	stderrors "errors"
	"regexp"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/IngKendrys/scrap-backend/internal/domain"
)

const (
	msgDuplicate = "Ya existe un registro con este valor."
	msgBadRef    = "Referencia inválida: el objeto no existe."
	msgCheck     = "Valor fuera del rango permitido."
)

var reSQLiteUnique = regexp.MustCompile(`UNIQUE constraint failed: \w+\.(\w+)`)

// translate turns store constraint failures into validation errors and
// wraps everything else with op for the logs.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if verr := constraintError(err); verr != nil {
		return verr
	}
	return errors.Wrap(err, op)
}

func constraintError(err error) *domain.ValidationError {
	var serr *sqlite.Error
	if stderrors.As(err, &serr) {
		switch serr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			field := "non_field_errors"
			if m := reSQLiteUnique.FindStringSubmatch(serr.Error()); m != nil {
				field = m[1]
			}
			return domain.NewValidationError(field, msgDuplicate)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return domain.NewValidationError("non_field_errors", msgBadRef)
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return domain.NewValidationError("non_field_errors", msgCheck)
		}
		return nil
	}

	var perr *pq.Error
	if stderrors.As(err, &perr) {
		switch perr.Code {
		case "23505":
			field := strings.TrimSuffix(strings.TrimPrefix(perr.Constraint, perr.Table+"_"), "_key")
			if field == "" {
				field = "non_field_errors"
			}
			return domain.NewValidationError(field, msgDuplicate)
		case "23503":
			return domain.NewValidationError("non_field_errors", msgBadRef)
		case "23514":
			return domain.NewValidationError("non_field_errors", msgCheck)
		}
	}
	return nil
}

// notFound maps sql.ErrNoRows to a domain not-found error.
func notFound(err error, resource string, id any, op string) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(resource, id)
	}
	return translate(err, op)
}

// affected reports a not-found error when a write matched no row.
func affected(res sql.Result, resource string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return domain.NotFound(resource, id)
	}
	return nil
}
