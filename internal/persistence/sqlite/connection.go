package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/clinic-ops/internal/persistence"
	_ "modernc.org/sqlite"
)

// ConnectionPool manages SQLite database connections with transaction support.
type ConnectionPool struct {
	db *sql.DB
}

// Open creates a connection pool for the given DSN and verifies connectivity.
func Open(dsn string) (*ConnectionPool, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; a single connection avoids busy errors.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &ConnectionPool{db: db}, nil
}

// DB returns the underlying database handle.
func (cp *ConnectionPool) DB() *sql.DB {
	return cp.db
}

// Close closes the connection pool.
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Ping tests the database connection.
func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// TransactionFunc represents a function that executes within a transaction.
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction executes fn inside a transaction, rolling back on error or
// panic and committing otherwise.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := cp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// QueryHelper provides helper methods for common query patterns.
type QueryHelper struct {
	pool *ConnectionPool
}

// NewQueryHelper creates a new query helper.
func NewQueryHelper(pool *ConnectionPool) *QueryHelper {
	return &QueryHelper{pool: pool}
}

// QueryRow executes a query that returns a single row.
func (qh *QueryHelper) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return qh.pool.db.QueryRowContext(ctx, query, args...)
}

// Query executes a query that returns multiple rows.
func (qh *QueryHelper) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return qh.pool.db.QueryContext(ctx, query, args...)
}

// Exec executes a query that doesn't return rows.
func (qh *QueryHelper) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return qh.pool.db.ExecContext(ctx, query, args...)
}

// ExecTx executes a statement within a transaction.
func (qh *QueryHelper) ExecTx(tx *sql.Tx, query string, args ...any) (sql.Result, error) {
	return tx.Exec(query, args...)
}

// ErrorMapper maps SQLite errors to persistence layer sentinels.
type ErrorMapper struct{}

// NewErrorMapper creates a new error mapper.
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// MapError maps SQLite-specific errors to persistence layer errors.
func (em *ErrorMapper) MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}

	errStr := err.Error()

	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	}
	if strings.Contains(errStr, "FOREIGN KEY constraint failed") {
		return fmt.Errorf("%w: %v", persistence.ErrForeignKeyViolation, err)
	}
	if strings.Contains(errStr, "CHECK constraint failed") {
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	if strings.Contains(errStr, "database is locked") || strings.Contains(errStr, "database is busy") {
		return fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}

	return err
}

// RetryConfig configures retry behavior for database operations.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns a retry configuration with sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryHelper retries operations that failed on transient errors such as a
// locked database file.
type RetryHelper struct {
	config RetryConfig
	mapper *ErrorMapper
}

// NewRetryHelper creates a new retry helper.
func NewRetryHelper(config RetryConfig) *RetryHelper {
	return &RetryHelper{
		config: config,
		mapper: NewErrorMapper(),
	}
}

// RetryableFunc represents a function that can be retried.
type RetryableFunc func() error

// WithRetry executes fn with exponential backoff for transient errors.
func (rh *RetryHelper) WithRetry(ctx context.Context, fn RetryableFunc) error {
	var lastErr error
	delay := rh.config.InitialDelay

	for attempt := 0; attempt <= rh.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * rh.config.BackoffFactor)
				if delay > rh.config.MaxDelay {
					delay = rh.config.MaxDelay
				}
			}
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = rh.mapper.MapError(err)
		if !isRetryableError(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("operation failed after %d retries: %w", rh.config.MaxRetries, lastErr)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, persistence.ErrNotFound) ||
		errors.Is(err, persistence.ErrDuplicate) ||
		errors.Is(err, persistence.ErrConstraintViolation) ||
		errors.Is(err, persistence.ErrForeignKeyViolation) {
		return false
	}
	return errors.Is(err, persistence.ErrUnavailable)
}
