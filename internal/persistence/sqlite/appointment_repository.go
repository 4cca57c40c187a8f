package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/clinic-ops/internal/calendar"
	"github.com/example/clinic-ops/internal/persistence"
)

// AppointmentRepository implements persistence.AppointmentRepository using SQLite.
type AppointmentRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewAppointmentRepository creates a new SQLite appointment repository.
func NewAppointmentRepository(pool *ConnectionPool) *AppointmentRepository {
	return &AppointmentRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

const appointmentColumns = `id, room_id, date, start_time, end_time, client_name, client_id, procedure, doctor, created_at, updated_at`

// ListByDay returns the room's appointments for the date ordered by start time.
func (r *AppointmentRepository) ListByDay(ctx context.Context, roomID string, date calendar.Date) ([]persistence.AppointmentDoc, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE room_id = ? AND date = ?
		ORDER BY start_time ASC, id ASC
	`

	rows, err := r.helper.Query(ctx, query, roomID, date.String())
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var docs []persistence.AppointmentDoc
	for rows.Next() {
		doc, scanErr := scanAppointment(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return docs, nil
}

// Get retrieves one appointment keyed by room, date and id.
func (r *AppointmentRepository) Get(ctx context.Context, roomID string, date calendar.Date, id string) (persistence.AppointmentDoc, error) {
	if id == "" {
		return persistence.AppointmentDoc{}, persistence.ErrNotFound
	}

	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE id = ? AND room_id = ? AND date = ?
	`

	row := r.helper.QueryRow(ctx, query, id, roomID, date.String())
	doc, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.AppointmentDoc{}, persistence.ErrNotFound
		}
		return persistence.AppointmentDoc{}, r.mapper.MapError(err)
	}
	return doc, nil
}

// Upsert writes the document, assigning a fresh id when none is given, and
// returns the stored id.
func (r *AppointmentRepository) Upsert(ctx context.Context, doc persistence.AppointmentDoc) (string, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			room_id = excluded.room_id,
			date = excluded.date,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			client_name = excluded.client_name,
			client_id = excluded.client_id,
			procedure = excluded.procedure,
			doctor = excluded.doctor,
			updated_at = excluded.updated_at
	`

	err := r.retry.WithRetry(ctx, func() error {
		_, execErr := r.helper.Exec(ctx, query,
			doc.ID,
			doc.RoomID,
			doc.Date.String(),
			doc.StartTime.Minutes(),
			doc.EndTime.Minutes(),
			doc.ClientName,
			doc.ClientID,
			doc.Procedure,
			doc.Doctor,
			doc.CreatedAt.Format(time.RFC3339),
			doc.UpdatedAt.Format(time.RFC3339),
		)
		return execErr
	})
	if err != nil {
		return "", r.mapper.MapError(err)
	}

	return doc.ID, nil
}

// Delete removes one appointment keyed by room, date and id.
func (r *AppointmentRepository) Delete(ctx context.Context, roomID string, date calendar.Date, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx,
		"DELETE FROM appointments WHERE id = ? AND room_id = ? AND date = ?",
		id, roomID, date.String(),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(scanner rowScanner) (persistence.AppointmentDoc, error) {
	var doc persistence.AppointmentDoc
	var dateStr, createdAtStr, updatedAtStr string
	var startTime, endTime int

	err := scanner.Scan(
		&doc.ID,
		&doc.RoomID,
		&dateStr,
		&startTime,
		&endTime,
		&doc.ClientName,
		&doc.ClientID,
		&doc.Procedure,
		&doc.Doctor,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.AppointmentDoc{}, err
	}

	if doc.Date, err = calendar.ParseDate(dateStr); err != nil {
		return persistence.AppointmentDoc{}, fmt.Errorf("failed to parse date: %w", err)
	}
	doc.StartTime = calendar.MinuteOfDay(startTime)
	doc.EndTime = calendar.MinuteOfDay(endTime)
	if doc.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.AppointmentDoc{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if doc.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.AppointmentDoc{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return doc, nil
}
