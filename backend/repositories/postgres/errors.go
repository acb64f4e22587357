package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/upb/teach-portal/backend/repositories"
)

const uniqueViolation = "23505"

// Unique constraint names from migrations/000001_init_schema.up.sql
var constraintErrors = map[string]error{
	"uq_teachers_username": repositories.ErrDuplicateUsername,
	"uq_teachers_email":    repositories.ErrDuplicateEmail,
	"uq_students_email":    repositories.ErrDuplicateStudentEmail,
}

// mapError translates driver errors into repository sentinels. Errors it
// does not recognize are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repositories.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if sentinel, ok := constraintErrors[pqErr.Constraint]; ok {
			return sentinel
		}
	}
	return err
}
