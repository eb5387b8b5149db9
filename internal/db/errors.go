package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/i18n"
)

const (
	constraintUsername  = "users_username_key"
	constraintEmail     = "users_email_lower_key"
	constraintGroupName = "auth_groups_name_key"
)

// uniqueFields maps unique constraints to the request field they guard.
var uniqueFields = map[string]struct {
	field string
	key   i18n.Key
}{
	constraintUsername:  {"username", i18n.FieldUsernameTaken},
	constraintEmail:     {"email", i18n.FieldEmailTaken},
	constraintGroupName: {"name", i18n.FieldGroupNameTaken},
}

// translate converts driver errors into application errors: missing rows
// become NotFound with notFound as message, unique violations become field
// validation errors. Anything else is wrapped with op.
func translate(op string, err error, notFound i18n.Key) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(notFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		if target, ok := uniqueFields[pgErr.ConstraintName]; ok {
			verr := apperr.Field(target.field, target.key)
			verr.Cause = err
			return verr
		}
	}

	return fmt.Errorf("postgres: %s: %w", op, err)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
