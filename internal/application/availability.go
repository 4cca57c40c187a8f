package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/clinic-ops/internal/calendar"
	"github.com/example/clinic-ops/internal/persistence"
)

// DutyRosterSource lists the doctors marked on duty for a date.
type DutyRosterSource interface {
	ListOnDuty(ctx context.Context, date calendar.Date) ([]string, error)
}

// AvailabilityIndex answers "is this doctor on duty that day" from the duty
// roster. A day with no roster data places no restriction (fail-open), which
// matches how the duty screens behave when nothing was entered. Roster reads
// are cached briefly to avoid hitting the store on every keystroke.
type AvailabilityIndex struct {
	source DutyRosterSource
	now    func() time.Time
	ttl    time.Duration

	mu      sync.RWMutex
	entries map[string]rosterEntry
}

type rosterEntry struct {
	onDuty    map[string]struct{}
	expiresAt time.Time
}

// NewAvailabilityIndex constructs an index over the given roster source.
func NewAvailabilityIndex(source DutyRosterSource, now func() time.Time, ttl time.Duration) *AvailabilityIndex {
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &AvailabilityIndex{
		source:  source,
		now:     now,
		ttl:     ttl,
		entries: make(map[string]rosterEntry),
	}
}

// IsAvailable reports whether the doctor may be booked on the date. Roster
// lookup failures and empty rosters both report available.
func (a *AvailabilityIndex) IsAvailable(ctx context.Context, doctor string, date calendar.Date) (bool, error) {
	if a == nil || a.source == nil || doctor == "" {
		return true, nil
	}

	onDuty, err := a.rosterFor(ctx, date)
	if err != nil {
		return true, err
	}
	if len(onDuty) == 0 {
		return true, nil
	}
	_, ok := onDuty[doctor]
	return ok, nil
}

// Invalidate drops cached roster data, typically after a duty change.
func (a *AvailabilityIndex) Invalidate() {
	if a == nil {
		return
	}
	a.mu.Lock()
	a.entries = make(map[string]rosterEntry)
	a.mu.Unlock()
}

func (a *AvailabilityIndex) rosterFor(ctx context.Context, date calendar.Date) (map[string]struct{}, error) {
	key := date.String()

	a.mu.RLock()
	entry, ok := a.entries[key]
	a.mu.RUnlock()
	if ok && a.now().Before(entry.expiresAt) {
		return entry.onDuty, nil
	}

	doctors, err := a.source.ListOnDuty(ctx, date)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			doctors = nil
		} else {
			return nil, err
		}
	}

	onDuty := make(map[string]struct{}, len(doctors))
	for _, doctor := range doctors {
		onDuty[doctor] = struct{}{}
	}

	a.mu.Lock()
	a.entries[key] = rosterEntry{onDuty: onDuty, expiresAt: a.now().Add(a.ttl)}
	a.mu.Unlock()

	return onDuty, nil
}
