package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres error codes the repositories translate into the domain
// taxonomy. Unique and exclusion violations both mean a constraint race
// lost to a concurrent writer.
const (
	pqUniqueViolation    = "23505"
	pqExclusionViolation = "23P01"
	pqForeignKeyViolated = "23503"
)

func isConstraintConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation || pqErr.Code == pqExclusionViolation
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqForeignKeyViolated
	}
	return false
}
