package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/clinic-ops/internal/calendar"
	"github.com/example/clinic-ops/internal/persistence"
)

type rosterSourceStub struct {
	doctors []string
	err     error
	calls   int
}

func (s *rosterSourceStub) ListOnDuty(ctx context.Context, date calendar.Date) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.doctors, nil
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAvailabilityRestrictsToRoster(t *testing.T) {
	t.Parallel()

	source := &rosterSourceStub{doctors: []string{"Ivanov", "Petrov"}}
	index := NewAvailabilityIndex(source, fixedNow(time.Unix(0, 0)), time.Minute)
	date := calendar.Date{Year: 2026, Month: time.March, Day: 14}

	if ok, err := index.IsAvailable(context.Background(), "Ivanov", date); err != nil || !ok {
		t.Fatalf("on-duty doctor: ok=%v err=%v", ok, err)
	}
	if ok, err := index.IsAvailable(context.Background(), "Sidorov", date); err != nil || ok {
		t.Fatalf("off-duty doctor: ok=%v err=%v", ok, err)
	}
}

func TestAvailabilityFailsOpen(t *testing.T) {
	t.Parallel()

	date := calendar.Date{Year: 2026, Month: time.March, Day: 14}

	// Empty roster places no restriction.
	empty := NewAvailabilityIndex(&rosterSourceStub{}, fixedNow(time.Unix(0, 0)), time.Minute)
	if ok, err := empty.IsAvailable(context.Background(), "Ivanov", date); err != nil || !ok {
		t.Fatalf("empty roster: ok=%v err=%v", ok, err)
	}

	// A missing roster row is an empty roster, not an error.
	missing := NewAvailabilityIndex(&rosterSourceStub{err: persistence.ErrNotFound}, fixedNow(time.Unix(0, 0)), time.Minute)
	if ok, err := missing.IsAvailable(context.Background(), "Ivanov", date); err != nil || !ok {
		t.Fatalf("missing roster: ok=%v err=%v", ok, err)
	}

	// Store failures surface the error but still report available.
	failing := NewAvailabilityIndex(&rosterSourceStub{err: persistence.ErrUnavailable}, fixedNow(time.Unix(0, 0)), time.Minute)
	ok, err := failing.IsAvailable(context.Background(), "Ivanov", date)
	if !ok {
		t.Fatal("store failure must fail open")
	}
	if !errors.Is(err, persistence.ErrUnavailable) {
		t.Fatalf("expected store error, got %v", err)
	}

	// A nil index or blank doctor never restricts.
	var nilIndex *AvailabilityIndex
	if ok, err := nilIndex.IsAvailable(context.Background(), "Ivanov", date); err != nil || !ok {
		t.Fatalf("nil index: ok=%v err=%v", ok, err)
	}
}

func TestAvailabilityCachesAndInvalidates(t *testing.T) {
	t.Parallel()

	source := &rosterSourceStub{doctors: []string{"Ivanov"}}
	now := time.Unix(1000, 0)
	index := NewAvailabilityIndex(source, fixedNow(now), time.Minute)
	date := calendar.Date{Year: 2026, Month: time.March, Day: 14}

	for i := 0; i < 3; i++ {
		if _, err := index.IsAvailable(context.Background(), "Ivanov", date); err != nil {
			t.Fatalf("IsAvailable: %v", err)
		}
	}
	if source.calls != 1 {
		t.Fatalf("expected 1 roster read within TTL, got %d", source.calls)
	}

	index.Invalidate()
	if _, err := index.IsAvailable(context.Background(), "Ivanov", date); err != nil {
		t.Fatalf("IsAvailable after invalidate: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected reread after invalidate, got %d calls", source.calls)
	}
}
