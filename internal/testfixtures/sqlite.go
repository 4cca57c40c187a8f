package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/clinic-ops/internal/persistence"
	"github.com/example/clinic-ops/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Appointments persistence.AppointmentRepository
	Rooms        persistence.RoomRepository
	Clients      persistence.ClientRepository
	Roster       persistence.RosterRepository
	Beds         persistence.BedRepository
	Stock        persistence.StockRepository
	Users        persistence.UserRepository
	Sessions     persistence.SessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness over a temporary database file
// with the schema bootstrapped. A cleanup callback is registered with the
// provided testing.TB; calling Close explicitly is also safe.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "clinic.db")

	pool, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := pool.Bootstrap(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to bootstrap schema: %v", err)
	}

	harness := &SQLiteHarness{
		Appointments: sqlite.NewAppointmentRepository(pool),
		Rooms:        sqlite.NewRoomRepository(pool),
		Clients:      sqlite.NewClientRepository(pool),
		Roster:       sqlite.NewRosterRepository(pool),
		Beds:         sqlite.NewBedRepository(pool),
		Stock:        sqlite.NewStockRepository(pool),
		Users:        sqlite.NewUserRepository(pool),
		Sessions:     sqlite.NewSessionRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
