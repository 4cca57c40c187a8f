package application

import (
	"testing"

	"github.com/example/clinic-ops/internal/calendar"
)

func TestIsLettersOnly(t *testing.T) {
	t.Parallel()

	valid := []string{"checkup", "root canal", "Ivanov"}
	for _, value := range valid {
		if !isLettersOnly(value) {
			t.Errorf("isLettersOnly(%q) = false, want true", value)
		}
	}

	invalid := []string{"", "   ", "x-ray", "dr2", "Иванов", "a.b"}
	for _, value := range invalid {
		if isLettersOnly(value) {
			t.Errorf("isLettersOnly(%q) = true, want false", value)
		}
	}
}

func TestIsDigitsOnly(t *testing.T) {
	t.Parallel()

	if !isDigitsOnly("0042") {
		t.Error("isDigitsOnly(\"0042\") = false")
	}
	for _, value := range []string{"", "12a", "-1", "1.5", " 1"} {
		if isDigitsOnly(value) {
			t.Errorf("isDigitsOnly(%q) = true, want false", value)
		}
	}
}

func TestValidateInterval(t *testing.T) {
	t.Parallel()

	check := func(start, end calendar.TimeOfDay) *ValidationError {
		vErr := &ValidationError{}
		validateInterval(start, end, vErr)
		return vErr
	}

	nine := calendar.MinuteOfDay(9 * 60)
	ten := calendar.MinuteOfDay(10 * 60)

	if vErr := check(nine, ten); vErr.HasErrors() {
		t.Fatalf("valid interval flagged: %v", vErr.FieldErrors)
	}
	if vErr := check(ten, nine); !vErr.HasErrors() {
		t.Fatal("inverted interval not flagged")
	}
	if vErr := check(nine, nine); !vErr.HasErrors() {
		t.Fatal("empty interval not flagged")
	}
	// Half-filled intervals are not judged yet.
	if vErr := check(nine, calendar.TimeUnset); vErr.HasErrors() {
		t.Fatalf("partial interval flagged: %v", vErr.FieldErrors)
	}
}

func TestIsValidEmail(t *testing.T) {
	t.Parallel()

	valid := []string{"anna@example.com", "a.b@clinic.example.org"}
	for _, value := range valid {
		if !isValidEmail(value) {
			t.Errorf("isValidEmail(%q) = false, want true", value)
		}
	}

	invalid := []string{"", "anna", "@example.com", "anna@", "anna@example", "a b@example.com", "a@b@example.com"}
	for _, value := range invalid {
		if isValidEmail(value) {
			t.Errorf("isValidEmail(%q) = true, want false", value)
		}
	}
}
