package sqlite

import (
	"context"

	"github.com/example/clinic-ops/internal/calendar"
	"github.com/example/clinic-ops/internal/persistence"
)

// RosterRepository implements persistence.RosterRepository using SQLite.
type RosterRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRosterRepository creates a new SQLite duty roster repository.
func NewRosterRepository(pool *ConnectionPool) *RosterRepository {
	return &RosterRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// ListOnDuty returns the doctors marked on duty for the date.
func (r *RosterRepository) ListOnDuty(ctx context.Context, date calendar.Date) ([]string, error) {
	rows, err := r.helper.Query(ctx,
		"SELECT doctor FROM duty_roster WHERE date = ? ORDER BY doctor ASC", date.String())
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var doctors []string
	for rows.Next() {
		var doctor string
		if err := rows.Scan(&doctor); err != nil {
			return nil, r.mapper.MapError(err)
		}
		doctors = append(doctors, doctor)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return doctors, nil
}

// SetDuty marks or clears one doctor's duty entry for a date. Both directions
// are idempotent.
func (r *RosterRepository) SetDuty(ctx context.Context, entry persistence.DutyEntry, onDuty bool) error {
	if onDuty {
		_, err := r.helper.Exec(ctx,
			"INSERT INTO duty_roster (date, doctor) VALUES (?, ?) ON CONFLICT(date, doctor) DO NOTHING",
			entry.Date.String(), entry.Doctor)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return nil
	}

	_, err := r.helper.Exec(ctx,
		"DELETE FROM duty_roster WHERE date = ? AND doctor = ?",
		entry.Date.String(), entry.Doctor)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}
