package application

import (
	"strings"
	"unicode"

	"github.com/example/clinic-ops/internal/calendar"
)

// Field validators shared by every screen that edits clinic records. The
// originals were scattered per form; here each named rule is applied uniformly
// by ProposeFieldChange and the CRUD services.

// isLettersOnly accepts latin letters and spaces, the rule applied to
// procedure, doctor and stock item names.
func isLettersOnly(value string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}
	for _, r := range value {
		if r == ' ' {
			continue
		}
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// isDigitsOnly accepts a non-empty ASCII digit string.
func isDigitsOnly(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// validateInterval checks start < end once both ends are set.
func validateInterval(start, end calendar.TimeOfDay, vErr *ValidationError) {
	if start.IsSet() && end.IsSet() && start >= end {
		vErr.add("time", "start must be before end")
	}
}

func isValidEmail(value string) bool {
	at := strings.Index(value, "@")
	if at <= 0 || at == len(value)-1 {
		return false
	}
	domain := value[at+1:]
	if strings.Contains(domain, "@") || !strings.Contains(domain, ".") {
		return false
	}
	return !strings.ContainsAny(value, " \t")
}
