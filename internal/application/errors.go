package application

import (
	"errors"
	"fmt"

	"github.com/example/clinic-ops/internal/calendar"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a create collides with an existing record.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrOutOfWindow is returned when a booking date falls outside [today, today+window].
	ErrOutOfWindow = errors.New("application: date outside booking window")
	// ErrPastDateImmutable is returned when a past day's record is edited or deleted.
	ErrPastDateImmutable = errors.New("application: past dates are read-only")
	// ErrDoctorNotScheduled is returned when the duty roster excludes the doctor that day.
	ErrDoctorNotScheduled = errors.New("application: doctor is not on duty")
	// ErrStoreUnavailable is returned when the document store cannot be reached.
	ErrStoreUnavailable = errors.New("application: document store unavailable")
	// ErrStoreTimeout is returned when a document store call exceeds its deadline.
	ErrStoreTimeout = errors.New("application: document store timed out")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a presented session token has lapsed.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a presented session token was revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ConflictError reports a room or doctor double-booking. The embedded
// calendar conflict names the colliding appointment so callers can show which
// resource is taken.
type ConflictError struct {
	Conflict calendar.Conflict
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil {
		return ""
	}
	switch c.Conflict.Resource {
	case calendar.ResourceDoctor:
		return fmt.Sprintf("doctor %q is already booked (appointment %s)", c.Conflict.Doctor, c.Conflict.WithBookingID)
	default:
		return fmt.Sprintf("room %q is already booked (appointment %s)", c.Conflict.RoomID, c.Conflict.WithBookingID)
	}
}

// IsConflict reports whether err wraps a ConflictError.
func IsConflict(err error) bool {
	var cErr *ConflictError
	return errors.As(err, &cErr)
}
