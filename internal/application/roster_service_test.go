package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/clinic-ops/internal/calendar"
	"github.com/example/clinic-ops/internal/persistence"
)

type rosterRepoStub struct {
	doctors []string
	listErr error
	setErr  error
	setCall struct {
		doctor string
		onDuty bool
	}
}

func (s *rosterRepoStub) ListOnDuty(ctx context.Context, date calendar.Date) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.doctors, nil
}

func (s *rosterRepoStub) SetDuty(ctx context.Context, date calendar.Date, doctor string, onDuty bool) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.setCall.doctor = doctor
	s.setCall.onDuty = onDuty
	if onDuty {
		s.doctors = append(s.doctors, doctor)
	}
	return nil
}

func TestListOnDutySortsDoctors(t *testing.T) {
	t.Parallel()

	repo := &rosterRepoStub{doctors: []string{"Petrov", "Ivanov"}}
	svc := NewRosterService(repo, nil)

	doctors, err := svc.ListOnDuty(context.Background(), Principal{}, calendar.Date{Year: 2026, Month: time.March, Day: 14})
	if err != nil {
		t.Fatalf("ListOnDuty: %v", err)
	}
	if len(doctors) != 2 || doctors[0] != "Ivanov" || doctors[1] != "Petrov" {
		t.Fatalf("unexpected order: %v", doctors)
	}
}

func TestListOnDutyMissingDayIsEmpty(t *testing.T) {
	t.Parallel()

	repo := &rosterRepoStub{listErr: persistence.ErrNotFound}
	svc := NewRosterService(repo, nil)

	doctors, err := svc.ListOnDuty(context.Background(), Principal{}, calendar.Date{Year: 2026, Month: time.March, Day: 14})
	if err != nil {
		t.Fatalf("ListOnDuty: %v", err)
	}
	if len(doctors) != 0 {
		t.Fatalf("expected empty roster, got %v", doctors)
	}
}

func TestSetDutyRequiresAdmin(t *testing.T) {
	t.Parallel()

	svc := NewRosterService(&rosterRepoStub{}, nil)
	err := svc.SetDuty(context.Background(), Principal{UserID: "staff"}, calendar.Date{Year: 2026, Month: time.March, Day: 14}, "Ivanov", true)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
}

func TestSetDutyValidatesDoctorName(t *testing.T) {
	t.Parallel()

	svc := NewRosterService(&rosterRepoStub{}, nil)
	err := svc.SetDuty(context.Background(), Principal{IsAdmin: true}, calendar.Date{Year: 2026, Month: time.March, Day: 14}, "dr2", true)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["doctor"]; !ok {
		t.Fatal("missing field error for doctor")
	}
}

func TestSetDutyInvalidatesAvailabilityCache(t *testing.T) {
	t.Parallel()

	date := calendar.Date{Year: 2026, Month: time.March, Day: 14}
	source := &rosterSourceStub{}
	index := NewAvailabilityIndex(source, fixedNow(time.Unix(0, 0)), time.Hour)

	// Warm the cache.
	if _, err := index.IsAvailable(context.Background(), "Ivanov", date); err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected warmed cache, got %d calls", source.calls)
	}

	repo := &rosterRepoStub{}
	svc := NewRosterService(repo, index)
	if err := svc.SetDuty(context.Background(), Principal{IsAdmin: true}, date, " Ivanov ", true); err != nil {
		t.Fatalf("SetDuty: %v", err)
	}
	if repo.setCall.doctor != "Ivanov" || !repo.setCall.onDuty {
		t.Fatalf("unexpected write: %+v", repo.setCall)
	}

	if _, err := index.IsAvailable(context.Background(), "Ivanov", date); err != nil {
		t.Fatalf("IsAvailable after write: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected cache reread after duty change, got %d calls", source.calls)
	}
}

func TestSetDutyMapsStoreErrors(t *testing.T) {
	t.Parallel()

	repo := &rosterRepoStub{setErr: persistence.ErrUnavailable}
	svc := NewRosterService(repo, nil)
	err := svc.SetDuty(context.Background(), Principal{IsAdmin: true}, calendar.Date{Year: 2026, Month: time.March, Day: 14}, "Ivanov", true)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("got %v, want ErrStoreUnavailable", err)
	}
}
