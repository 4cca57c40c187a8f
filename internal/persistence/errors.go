package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a stored value breaks a check constraint.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrUnavailable is returned when the store cannot be reached.
	ErrUnavailable = errors.New("persistence: store unavailable")
)
