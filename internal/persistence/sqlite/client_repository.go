package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/clinic-ops/internal/persistence"
)

// ClientRepository implements persistence.ClientRepository using SQLite.
type ClientRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewClientRepository creates a new SQLite client repository.
func NewClientRepository(pool *ConnectionPool) *ClientRepository {
	return &ClientRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateClient inserts a new patient record.
func (r *ClientRepository) CreateClient(ctx context.Context, client persistence.Client) error {
	if client.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	if client.UpdatedAt.IsZero() {
		client.UpdatedAt = now
	}

	_, err := r.helper.Exec(ctx,
		"INSERT INTO clients (id, display_name, phone, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		client.ID,
		client.DisplayName,
		client.Phone,
		client.Email,
		client.CreatedAt.Format(time.RFC3339),
		client.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateClient updates an existing patient record.
func (r *ClientRepository) UpdateClient(ctx context.Context, client persistence.Client) error {
	if client.ID == "" {
		return persistence.ErrNotFound
	}

	client.UpdatedAt = time.Now().UTC()

	result, err := r.helper.Exec(ctx,
		"UPDATE clients SET display_name = ?, phone = ?, email = ?, updated_at = ? WHERE id = ?",
		client.DisplayName,
		client.Phone,
		client.Email,
		client.UpdatedAt.Format(time.RFC3339),
		client.ID,
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

// GetClient retrieves a patient record by ID.
func (r *ClientRepository) GetClient(ctx context.Context, id string) (persistence.Client, error) {
	if id == "" {
		return persistence.Client{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx,
		"SELECT id, display_name, phone, email, created_at, updated_at FROM clients WHERE id = ?", id)

	client, err := scanClient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Client{}, persistence.ErrNotFound
		}
		return persistence.Client{}, r.mapper.MapError(err)
	}
	return client, nil
}

// ListClients returns the directory ordered by display name then ID.
func (r *ClientRepository) ListClients(ctx context.Context) ([]persistence.Client, error) {
	rows, err := r.helper.Query(ctx,
		"SELECT id, display_name, phone, email, created_at, updated_at FROM clients ORDER BY display_name ASC, id ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var clients []persistence.Client
	for rows.Next() {
		client, scanErr := scanClient(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return clients, nil
}

func scanClient(scanner rowScanner) (persistence.Client, error) {
	var client persistence.Client
	var createdAtStr, updatedAtStr string

	err := scanner.Scan(&client.ID, &client.DisplayName, &client.Phone, &client.Email, &createdAtStr, &updatedAtStr)
	if err != nil {
		return persistence.Client{}, err
	}

	if client.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Client{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if client.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Client{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return client, nil
}
