package persistence

import (
	"time"

	"github.com/example/clinic-ops/internal/calendar"
)

// AppointmentDoc is the stored form of one scheduled visit. Field names track
// the document contract of the remote store: name, startTime, endTime,
// procedure, doctor, date, clientId.
type AppointmentDoc struct {
	ID         string
	RoomID     string
	Date       calendar.Date
	StartTime  calendar.TimeOfDay
	EndTime    calendar.TimeOfDay
	ClientName string
	ClientID   string
	Procedure  string
	Doctor     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Room is a cabinet catalog entry.
type Room struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Client is a patient directory entry.
type Client struct {
	ID          string
	DisplayName string
	Phone       string
	Email       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DutyEntry marks a doctor as on duty for one calendar day.
type DutyEntry struct {
	Date   calendar.Date
	Doctor string
}

// Bed is a ward bed with optional occupant.
type Bed struct {
	ID        string
	Ward      string
	Label     string
	ClientID  string
	Occupied  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockItem is one consumable tracked by the clinic.
type StockItem struct {
	ID        string
	Name      string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is a staff account.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is an issued authentication session.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
