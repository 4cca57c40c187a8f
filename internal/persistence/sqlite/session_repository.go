package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/clinic-ops/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository using SQLite.
type SessionRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const sessionColumns = `id, user_id, token, expires_at, created_at, updated_at, revoked_at`

// CreateSession inserts a new session and returns the stored row.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = now
	}

	var revokedAt any
	if session.RevokedAt != nil {
		revokedAt = session.RevokedAt.Format(time.RFC3339)
	}

	_, err := r.helper.Exec(ctx,
		"INSERT INTO sessions ("+sessionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		session.ID,
		session.UserID,
		session.Token,
		session.ExpiresAt.Format(time.RFC3339),
		session.CreatedAt.Format(time.RFC3339),
		session.UpdatedAt.Format(time.RFC3339),
		revokedAt,
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	return session, nil
}

// GetSession retrieves a session by its token.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE token = ?", token)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, r.mapper.MapError(err)
	}
	return session, nil
}

// RevokeSession stamps the session revoked and returns the updated row.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx,
		"UPDATE sessions SET revoked_at = ?, updated_at = ? WHERE token = ?",
		revokedAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		token,
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.Session{}, persistence.ErrNotFound
	}

	return r.GetSession(ctx, token)
}

// DeleteExpiredSessions prunes sessions that expired before the reference time.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.helper.Exec(ctx,
		"DELETE FROM sessions WHERE expires_at < ?",
		reference.UTC().Format(time.RFC3339))
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

func scanSession(scanner rowScanner) (persistence.Session, error) {
	var session persistence.Session
	var expiresAtStr, createdAtStr, updatedAtStr string
	var revokedAtStr sql.NullString

	err := scanner.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&expiresAtStr,
		&createdAtStr,
		&updatedAtStr,
		&revokedAtStr,
	)
	if err != nil {
		return persistence.Session{}, err
	}

	if session.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse expires_at: %w", err)
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if session.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if revokedAtStr.Valid {
		revoked, parseErr := time.Parse(time.RFC3339, revokedAtStr.String)
		if parseErr != nil {
			return persistence.Session{}, fmt.Errorf("failed to parse revoked_at: %w", parseErr)
		}
		session.RevokedAt = &revoked
	}
	return session, nil
}
