package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/clinic-ops/internal/persistence"
)

// BedRepository implements persistence.BedRepository using SQLite.
type BedRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBedRepository creates a new SQLite bed repository.
func NewBedRepository(pool *ConnectionPool) *BedRepository {
	return &BedRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateBed inserts a new ward bed.
func (r *BedRepository) CreateBed(ctx context.Context, bed persistence.Bed) error {
	if bed.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if bed.CreatedAt.IsZero() {
		bed.CreatedAt = now
	}
	if bed.UpdatedAt.IsZero() {
		bed.UpdatedAt = now
	}

	_, err := r.helper.Exec(ctx,
		"INSERT INTO beds (id, ward, label, client_id, occupied, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		bed.ID,
		bed.Ward,
		bed.Label,
		bed.ClientID,
		boolToInt(bed.Occupied),
		bed.CreatedAt.Format(time.RFC3339),
		bed.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateBed updates an existing bed's occupancy and labels.
func (r *BedRepository) UpdateBed(ctx context.Context, bed persistence.Bed) error {
	if bed.ID == "" {
		return persistence.ErrNotFound
	}

	bed.UpdatedAt = time.Now().UTC()

	result, err := r.helper.Exec(ctx,
		"UPDATE beds SET ward = ?, label = ?, client_id = ?, occupied = ?, updated_at = ? WHERE id = ?",
		bed.Ward,
		bed.Label,
		bed.ClientID,
		boolToInt(bed.Occupied),
		bed.UpdatedAt.Format(time.RFC3339),
		bed.ID,
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

// GetBed retrieves a bed by ID.
func (r *BedRepository) GetBed(ctx context.Context, id string) (persistence.Bed, error) {
	if id == "" {
		return persistence.Bed{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx,
		"SELECT id, ward, label, client_id, occupied, created_at, updated_at FROM beds WHERE id = ?", id)

	bed, err := scanBed(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Bed{}, persistence.ErrNotFound
		}
		return persistence.Bed{}, r.mapper.MapError(err)
	}
	return bed, nil
}

// ListBeds returns all beds ordered by ward then label.
func (r *BedRepository) ListBeds(ctx context.Context) ([]persistence.Bed, error) {
	rows, err := r.helper.Query(ctx,
		"SELECT id, ward, label, client_id, occupied, created_at, updated_at FROM beds ORDER BY ward ASC, label ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var beds []persistence.Bed
	for rows.Next() {
		bed, scanErr := scanBed(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		beds = append(beds, bed)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return beds, nil
}

func scanBed(scanner rowScanner) (persistence.Bed, error) {
	var bed persistence.Bed
	var occupied int
	var createdAtStr, updatedAtStr string

	err := scanner.Scan(&bed.ID, &bed.Ward, &bed.Label, &bed.ClientID, &occupied, &createdAtStr, &updatedAtStr)
	if err != nil {
		return persistence.Bed{}, err
	}

	bed.Occupied = occupied != 0
	if bed.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Bed{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if bed.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Bed{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return bed, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
