package persistence

import (
	"context"
	"time"

	"github.com/example/clinic-ops/internal/calendar"
)

// AppointmentRepository is the keyed document store behind the scheduler: one
// collection per room, queried per calendar day. Upsert with an empty id
// creates the document and returns the assigned id.
type AppointmentRepository interface {
	ListByDay(ctx context.Context, roomID string, date calendar.Date) ([]AppointmentDoc, error)
	Get(ctx context.Context, roomID string, date calendar.Date, id string) (AppointmentDoc, error)
	Upsert(ctx context.Context, doc AppointmentDoc) (string, error)
	Delete(ctx context.Context, roomID string, date calendar.Date, id string) error
}

// RoomRepository exposes the cabinet catalog.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// ClientRepository exposes the patient directory.
type ClientRepository interface {
	CreateClient(ctx context.Context, client Client) error
	UpdateClient(ctx context.Context, client Client) error
	GetClient(ctx context.Context, id string) (Client, error)
	ListClients(ctx context.Context) ([]Client, error)
}

// RosterRepository stores the per-day duty roster.
type RosterRepository interface {
	ListOnDuty(ctx context.Context, date calendar.Date) ([]string, error)
	SetDuty(ctx context.Context, entry DutyEntry, onDuty bool) error
}

// BedRepository stores ward bed occupancy.
type BedRepository interface {
	CreateBed(ctx context.Context, bed Bed) error
	UpdateBed(ctx context.Context, bed Bed) error
	GetBed(ctx context.Context, id string) (Bed, error)
	ListBeds(ctx context.Context) ([]Bed, error)
}

// StockRepository stores consumable inventory.
type StockRepository interface {
	CreateItem(ctx context.Context, item StockItem) error
	UpdateItem(ctx context.Context, item StockItem) error
	GetItem(ctx context.Context, id string) (StockItem, error)
	ListItems(ctx context.Context) ([]StockItem, error)
	DeleteItem(ctx context.Context, id string) error
}

// UserRepository exposes staff account storage.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
