package application

import (
	"fmt"
	"testing"

	"github.com/example/clinic-ops/internal/calendar"
)

func TestValidationErrorAccumulatesFields(t *testing.T) {
	t.Parallel()

	vErr := &ValidationError{}
	if vErr.HasErrors() {
		t.Fatal("fresh ValidationError must be empty")
	}

	vErr.add("doctor", "doctor is required")
	vErr.add("time", "start must be before end")

	if !vErr.HasErrors() {
		t.Fatal("expected recorded errors")
	}
	if len(vErr.FieldErrors) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(vErr.FieldErrors))
	}
	if vErr.Error() != "validation failed" {
		t.Fatalf("unexpected message: %q", vErr.Error())
	}
}

func TestConflictErrorMessages(t *testing.T) {
	t.Parallel()

	roomErr := &ConflictError{Conflict: calendar.Conflict{
		Resource:      calendar.ResourceRoom,
		WithBookingID: "appt-1",
		RoomID:        "room-1",
	}}
	if got := roomErr.Error(); got != `room "room-1" is already booked (appointment appt-1)` {
		t.Fatalf("room message: %q", got)
	}

	doctorErr := &ConflictError{Conflict: calendar.Conflict{
		Resource:      calendar.ResourceDoctor,
		WithBookingID: "appt-2",
		Doctor:        "Ivanov",
	}}
	if got := doctorErr.Error(); got != `doctor "Ivanov" is already booked (appointment appt-2)` {
		t.Fatalf("doctor message: %q", got)
	}

	if !IsConflict(fmt.Errorf("wrapped: %w", roomErr)) {
		t.Fatal("IsConflict must see through wrapping")
	}
	if IsConflict(ErrNotFound) {
		t.Fatal("IsConflict must reject other errors")
	}
}

func TestErrorKindLabels(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		"unauthorized":         ErrUnauthorized,
		"not_found":            ErrNotFound,
		"out_of_window":        fmt.Errorf("wrapped: %w", ErrOutOfWindow),
		"past_date_immutable":  ErrPastDateImmutable,
		"doctor_not_scheduled": ErrDoctorNotScheduled,
		"store_timeout":        ErrStoreTimeout,
		"store_unavailable":    ErrStoreUnavailable,
		"conflict":             &ConflictError{},
		"validation":           &ValidationError{},
		"unexpected":           fmt.Errorf("boom"),
	}
	for want, err := range cases {
		if got := ErrorKind(err); got != want {
			t.Errorf("ErrorKind(%v) = %q, want %q", err, got, want)
		}
	}
	if got := ErrorKind(nil); got != "" {
		t.Errorf("ErrorKind(nil) = %q", got)
	}
}
