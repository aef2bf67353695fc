package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/sin5ddd/sqlew/internal/database"
)

// MySQL server error numbers the engine cares about.
const (
	myErrTableExists   = 1050
	myErrDupColumn     = 1060
	myErrDupKeyName    = 1061
	myErrAccessDenied  = 1045
	myErrUnknownDB     = 1049
	myErrTooManyConns  = 1040
	myErrBadFieldError = 1054
	myErrParseError    = 1064
	myErrNoSuchTable   = 1146
)

// mapError translates go-sql-driver/mysql errors into *database.DBError.
func mapError(err error, msg string) *database.DBError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return database.WrapError(database.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return database.WrapError(database.ErrKindNotFound, msg, err)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return database.WrapError(
			classifyCode(mysqlErr.Number),
			fmt.Sprintf("%s: %s", msg, mysqlErr.Message),
			err,
		)
	}

	return database.WrapError(database.ErrKindConnectionFailed, msg, err)
}

func classifyCode(code uint16) database.ErrKind {
	switch code {
	case myErrTableExists, myErrDupColumn, myErrDupKeyName:
		// The existence check raced with another writer.
		return database.ErrKindDuplicateObject
	case myErrAccessDenied, myErrUnknownDB, myErrTooManyConns:
		return database.ErrKindConnectionFailed
	case myErrBadFieldError, myErrParseError, myErrNoSuchTable:
		return database.ErrKindQueryFailed
	default:
		return database.ErrKindQueryFailed
	}
}
