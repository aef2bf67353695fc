package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sin5ddd/sqlew/internal/database"
)

// PostgreSQL SQLSTATE codes the engine cares about.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgErrDuplicateTable  = "42P07"
	pgErrDuplicateColumn = "42701"
	pgErrDuplicateObject = "42710"
)

// mapError translates pgx / pgconn native errors into *database.DBError.
func mapError(err error, msg string) *database.DBError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return database.WrapError(database.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return database.WrapError(database.ErrKindNotFound, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		kind := database.ErrKindQueryFailed
		switch {
		case pgErr.Code == pgErrDuplicateTable,
			pgErr.Code == pgErrDuplicateColumn,
			pgErr.Code == pgErrDuplicateObject:
			// The existence check raced with another writer.
			kind = database.ErrKindDuplicateObject
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08":
			// Class 08: connection errors
			kind = database.ErrKindConnectionFailed
		}
		return database.WrapError(kind, fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
	}

	// Fallthrough: connection-level errors (TLS, network, auth)
	return database.WrapError(database.ErrKindConnectionFailed, msg, err)
}
