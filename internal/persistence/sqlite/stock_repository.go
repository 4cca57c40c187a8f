package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/clinic-ops/internal/persistence"
)

// StockRepository implements persistence.StockRepository using SQLite.
type StockRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewStockRepository creates a new SQLite stock repository.
func NewStockRepository(pool *ConnectionPool) *StockRepository {
	return &StockRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateItem inserts a new stock item.
func (r *StockRepository) CreateItem(ctx context.Context, item persistence.StockItem) error {
	if item.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = now
	}

	_, err := r.helper.Exec(ctx,
		"INSERT INTO stock_items (id, name, quantity, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		item.ID,
		item.Name,
		item.Quantity,
		item.CreatedAt.Format(time.RFC3339),
		item.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateItem updates an existing stock item.
func (r *StockRepository) UpdateItem(ctx context.Context, item persistence.StockItem) error {
	if item.ID == "" {
		return persistence.ErrNotFound
	}

	item.UpdatedAt = time.Now().UTC()

	result, err := r.helper.Exec(ctx,
		"UPDATE stock_items SET name = ?, quantity = ?, updated_at = ? WHERE id = ?",
		item.Name,
		item.Quantity,
		item.UpdatedAt.Format(time.RFC3339),
		item.ID,
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

// GetItem retrieves a stock item by ID.
func (r *StockRepository) GetItem(ctx context.Context, id string) (persistence.StockItem, error) {
	if id == "" {
		return persistence.StockItem{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx,
		"SELECT id, name, quantity, created_at, updated_at FROM stock_items WHERE id = ?", id)

	item, err := scanStockItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.StockItem{}, persistence.ErrNotFound
		}
		return persistence.StockItem{}, r.mapper.MapError(err)
	}
	return item, nil
}

// ListItems returns the inventory ordered by name then ID.
func (r *StockRepository) ListItems(ctx context.Context) ([]persistence.StockItem, error) {
	rows, err := r.helper.Query(ctx,
		"SELECT id, name, quantity, created_at, updated_at FROM stock_items ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var items []persistence.StockItem
	for rows.Next() {
		item, scanErr := scanStockItem(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return items, nil
}

// DeleteItem removes a stock item by ID.
func (r *StockRepository) DeleteItem(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM stock_items WHERE id = ?", id)
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

func scanStockItem(scanner rowScanner) (persistence.StockItem, error) {
	var item persistence.StockItem
	var createdAtStr, updatedAtStr string

	err := scanner.Scan(&item.ID, &item.Name, &item.Quantity, &createdAtStr, &updatedAtStr)
	if err != nil {
		return persistence.StockItem{}, err
	}

	if item.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.StockItem{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if item.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.StockItem{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return item, nil
}
