package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when trying to create a user with an existing email
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateOAuthProvider is returned when the external identity is already linked
	ErrDuplicateOAuthProvider = errors.New("oauth provider connection already exists")

	// ErrInsufficientStock is returned when a conditional decrement finds too few units
	ErrInsufficientStock = errors.New("insufficient stock")
)

const (
	pqUniqueViolation   = "23505"
	pqInvalidTextFormat = "22P02"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == pqUniqueViolation
}

// isInvalidID reports a malformed uuid literal, which can never match a row.
func isInvalidID(err error) bool {
	return pqCode(err) == pqInvalidTextFormat
}
