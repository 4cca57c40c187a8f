package sqlite

import (
	"context"
	"fmt"
)

// schemaStatements bootstraps the full clinic schema. Statements are
// idempotent so startup can run them unconditionally.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id          TEXT PRIMARY KEY,
		room_id     TEXT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
		date        TEXT NOT NULL,
		start_time  INTEGER NOT NULL,
		end_time    INTEGER NOT NULL,
		client_name TEXT NOT NULL,
		client_id   TEXT NOT NULL DEFAULT '',
		procedure   TEXT NOT NULL,
		doctor      TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_room_date ON appointments(room_id, date)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id           TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		phone        TEXT NOT NULL DEFAULT '',
		email        TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS duty_roster (
		date   TEXT NOT NULL,
		doctor TEXT NOT NULL,
		PRIMARY KEY (date, doctor)
	)`,
	`CREATE TABLE IF NOT EXISTS beds (
		id         TEXT PRIMARY KEY,
		ward       TEXT NOT NULL,
		label      TEXT NOT NULL,
		client_id  TEXT NOT NULL DEFAULT '',
		occupied   INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (ward, label)
	)`,
	`CREATE TABLE IF NOT EXISTS stock_items (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		quantity   INTEGER NOT NULL CHECK (quantity >= 0),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		display_name  TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		is_admin      INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token      TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		revoked_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(token)`,
}

// Bootstrap applies the schema to the database.
func (cp *ConnectionPool) Bootstrap(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := cp.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
