package domainerr

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// postgres unique_violation / serialization_failure / deadlock_detected
// SQLSTATE codes, per https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// FromPostgres translates a raw pgx/pgconn error into a taxonomy error.
// entityType/name are only used to build a DuplicateName message on a
// unique-violation; callers that don't have a meaningful name may pass "".
func FromPostgres(err error, entityType, name string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewRelationalTransient(err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound(entityType)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateUniqueViolation:
			return NewDuplicateName(entityType, name)
		case sqlStateSerializationFailure, sqlStateDeadlockDetected:
			return NewRelationalTransient(err)
		}
	}

	return NewRelationalTransient(err)
}
