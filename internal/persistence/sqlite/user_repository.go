package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/clinic-ops/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const userColumns = `id, email, display_name, password_hash, is_admin, created_at, updated_at`

// CreateUser inserts a new staff account.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	_, err := r.helper.Exec(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		user.ID,
		strings.ToLower(user.Email),
		user.DisplayName,
		user.PasswordHash,
		boolToInt(user.IsAdmin),
		user.CreatedAt.Format(time.RFC3339),
		user.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetUser retrieves a staff account by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return r.scanUserOrNotFound(row)
}

// GetUserByEmail retrieves a staff account by email, case-insensitively.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	row := r.helper.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", strings.ToLower(strings.TrimSpace(email)))
	return r.scanUserOrNotFound(row)
}

// ListUsers returns all staff accounts ordered by creation time.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.helper.Query(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return users, nil
}

func (r *UserRepository) scanUserOrNotFound(row *sql.Row) (persistence.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, r.mapper.MapError(err)
	}
	return user, nil
}

func scanUser(scanner rowScanner) (persistence.User, error) {
	var user persistence.User
	var isAdmin int
	var createdAtStr, updatedAtStr string

	err := scanner.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&isAdmin,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.User{}, err
	}

	user.IsAdmin = isAdmin != 0
	if user.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return user, nil
}
