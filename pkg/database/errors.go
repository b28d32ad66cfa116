package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// IsNotFound reports whether err is gorm's record-not-found
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsUniqueViolation reports whether err comes from a unique constraint.
// The second return value is the constraint name, when the driver reports one.
func IsUniqueViolation(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true, pgErr.ConstraintName
	}

	// sqlite reports "UNIQUE constraint failed: table.column"
	msg := err.Error()
	if idx := strings.Index(msg, "UNIQUE constraint failed: "); idx >= 0 {
		return true, strings.TrimSpace(msg[idx+len("UNIQUE constraint failed: "):])
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true, ""
	}
	return false, ""
}
