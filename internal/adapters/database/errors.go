package database

import (
	"errors"

	"github.com/lib/pq"
)

const pqUniqueViolation = pq.ErrorCode("23505")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
