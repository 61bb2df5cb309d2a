package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint violation.
// A non-empty hint narrows the match to errors mentioning that constraint
// or column. Postgres reports the constraint name, sqlite the column list,
// so hints should use the column name when both drivers are in play.
func IsUniqueViolation(err error, hint string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation && matchesHint(pgErr.ConstraintName, hint)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation && matchesHint(pqErr.Constraint, hint)
	}

	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") &&
		!strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return matchesHint(msg, hint)
}

func matchesHint(subject, hint string) bool {
	return hint == "" || strings.Contains(subject, hint)
}
