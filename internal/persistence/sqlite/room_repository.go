package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/clinic-ops/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRoomRepository creates a new SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateRoom inserts a new cabinet.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	if room.UpdatedAt.IsZero() {
		room.UpdatedAt = now
	}

	_, err := r.helper.Exec(ctx,
		"INSERT INTO rooms (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
		room.ID,
		room.Name,
		room.CreatedAt.Format(time.RFC3339),
		room.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetRoom retrieves a cabinet by ID.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx,
		"SELECT id, name, created_at, updated_at FROM rooms WHERE id = ?", id)

	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, r.mapper.MapError(err)
	}
	return room, nil
}

// ListRooms returns all cabinets ordered by name then ID.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.helper.Query(ctx,
		"SELECT id, name, created_at, updated_at FROM rooms ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, scanErr := scanRoom(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return rooms, nil
}

// DeleteRoom removes a cabinet and all of its appointment documents.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, "DELETE FROM appointments WHERE room_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM rooms WHERE id = ?", id)
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
	})
}

func scanRoom(scanner rowScanner) (persistence.Room, error) {
	var room persistence.Room
	var createdAtStr, updatedAtStr string

	err := scanner.Scan(&room.ID, &room.Name, &createdAtStr, &updatedAtStr)
	if err != nil {
		return persistence.Room{}, err
	}

	if room.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Room{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if room.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Room{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return room, nil
}
