package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/example/clinic-ops/internal/calendar"
	"github.com/example/clinic-ops/internal/persistence"
)

// RosterRepository captures the duty roster persistence operations.
type RosterRepository interface {
	ListOnDuty(ctx context.Context, date calendar.Date) ([]string, error)
	SetDuty(ctx context.Context, date calendar.Date, doctor string, onDuty bool) error
}

// RosterService manages the per-day duty roster that gates doctor bookings.
// Writes invalidate the availability cache so the scheduler sees changes
// immediately.
type RosterService struct {
	roster       RosterRepository
	availability *AvailabilityIndex
	logger       *slog.Logger
}

// NewRosterService constructs a roster service with the provided dependencies.
func NewRosterService(roster RosterRepository, availability *AvailabilityIndex) *RosterService {
	return NewRosterServiceWithLogger(roster, availability, nil)
}

// NewRosterServiceWithLogger constructs a roster service with a specified logger.
func NewRosterServiceWithLogger(roster RosterRepository, availability *AvailabilityIndex, logger *slog.Logger) *RosterService {
	return &RosterService{roster: roster, availability: availability, logger: defaultLogger(logger)}
}

func (s *RosterService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RosterService", operation, attrs...)
}

// ListOnDuty returns the doctors marked on duty for the date, sorted by name.
func (s *RosterService) ListOnDuty(ctx context.Context, principal Principal, date calendar.Date) (doctors []string, err error) {
	if s == nil {
		err = fmt.Errorf("RosterService is nil")
		return
	}
	if s.roster == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListOnDuty",
		"principal_id", principal.UserID,
		"date", date.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list duty roster", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(doctors)).InfoContext(ctx, "duty roster listed")
	}()

	doctors, err = s.roster.ListOnDuty(ctx, date)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			doctors, err = nil, nil
			return
		}
		err = mapRosterRepoError(err)
		return
	}

	sort.Strings(doctors)
	return
}

// SetDuty marks or clears a doctor's duty entry for the date. Administrators
// only.
func (s *RosterService) SetDuty(ctx context.Context, principal Principal, date calendar.Date, doctor string, onDuty bool) (err error) {
	if s == nil {
		return fmt.Errorf("RosterService is nil")
	}
	if s.roster == nil {
		return fmt.Errorf("roster repository not configured")
	}

	logger := s.loggerWith(ctx, "SetDuty",
		"principal_id", principal.UserID,
		"date", date.String(),
		"on_duty", onDuty,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set duty", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "duty updated")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	name := strings.TrimSpace(doctor)
	if !isLettersOnly(name) {
		vErr := &ValidationError{}
		vErr.add("doctor", "letters and spaces only")
		err = vErr
		return
	}

	if err = s.roster.SetDuty(ctx, date, name, onDuty); err != nil {
		err = mapRosterRepoError(err)
		return
	}

	s.availability.Invalidate()
	return
}

func mapRosterRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrUnavailable) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
