// errors.go defines the storage-level errors shared by all repositories.
package repositories

import (
	"errors"

	"github.com/lib/pq"
)

// ErrUniqueViolation is returned when an insert or update trips a unique index
var ErrUniqueViolation = errors.New("unique constraint violation")

// pgUniqueViolation is the SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	return false
}
