package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/sin5ddd/sqlew/internal/database"
)

// mapError converts a raw driver error into a database.DBError.
// modernc.org/sqlite reports result codes inside the message text, e.g.
// "table x already exists (1)" or "database is locked (5)", so
// classification goes by substring rather than typed codes.
func mapError(err error, msg string) *database.DBError {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return database.WrapError(database.ErrKindTimeout, msg, err)
	case errors.Is(err, sql.ErrNoRows):
		return database.WrapError(database.ErrKindNotFound, msg, err)
	}

	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "already exists"),
		strings.Contains(text, "duplicate column"):
		return database.WrapError(database.ErrKindDuplicateObject, msg, err)
	case strings.Contains(text, "database is locked"),
		strings.Contains(text, "database table is locked"):
		return database.WrapError(database.ErrKindTimeout, msg, err)
	case strings.Contains(text, "unable to open database"),
		strings.Contains(text, "out of memory"):
		return database.WrapError(database.ErrKindConnectionFailed, msg, err)
	case strings.Contains(text, "no such table"),
		strings.Contains(text, "no such column"):
		return database.WrapError(database.ErrKindNotFound, msg, err)
	case strings.Contains(text, "syntax error"),
		strings.Contains(text, "constraint"):
		return database.WrapError(database.ErrKindQueryFailed, msg, err)
	}
	return database.WrapError(database.ErrKindQueryFailed, msg, err)
}
