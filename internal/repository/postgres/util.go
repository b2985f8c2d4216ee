package postgres

import (
	"errors"

	"github.com/NordCoder/authgate/internal/domain/user"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = user.ErrNotFound
	ErrConflict = user.ErrConflict
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
