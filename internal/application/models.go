package application

import (
	"time"

	"github.com/example/clinic-ops/internal/calendar"
)

// Principal represents the authenticated staff member invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// LifecycleState classifies an appointment record's edit/commit lifecycle.
type LifecycleState string

const (
	// StateNew marks a client-authored record that has never been persisted.
	StateNew LifecycleState = "new"
	// StateEditing marks a record whose fields are currently mutable.
	StateEditing LifecycleState = "editing"
	// StateCommitted marks a persisted record whose fields are read-only.
	StateCommitted LifecycleState = "committed"
)

// Field identifies an appointment field targeted by ProposeFieldChange.
type Field string

const (
	FieldStartTime  Field = "startTime"
	FieldEndTime    Field = "endTime"
	FieldClientName Field = "clientName"
	FieldProcedure  Field = "procedure"
	FieldDoctor     Field = "doctor"
)

// Appointment is one scheduled visit held in the engine's day state.
type Appointment struct {
	ID         string
	RoomID     string
	Date       calendar.Date
	StartTime  calendar.TimeOfDay
	EndTime    calendar.TimeOfDay
	ClientName string
	ClientID   string
	Procedure  string
	Doctor     string
	State      LifecycleState
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// booking projects the appointment into the conflict detector's shape.
func (a Appointment) booking() calendar.Booking {
	return calendar.Booking{
		ID:     a.ID,
		RoomID: a.RoomID,
		Doctor: a.Doctor,
		Start:  a.StartTime,
		End:    a.EndTime,
	}
}

// RoomDay is one room's slice of the loaded day.
type RoomDay struct {
	Room         Room
	Appointments []Appointment
}

// DayView is the authoritative state of the currently loaded day.
type DayView struct {
	Date     calendar.Date
	Rooms    []RoomDay
	Warnings []LoadWarning
}

// LoadWarning reports a room whose documents could not be fetched; the day
// degrades to an empty list for that room instead of failing outright.
type LoadWarning struct {
	RoomID string
	Reason string
}

// Room is a cabinet catalog entry exposed by the application services.
type Room struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name string
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

// ClientInput captures caller provided client fields.
type ClientInput struct {
	DisplayName string
	Phone       string
	Email       string
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

// BedInput captures caller provided bed fields.
type BedInput struct {
	Ward     string
	Label    string
	ClientID string
	Occupied bool
}

// StockItem is one consumable tracked by the clinic.
type StockItem struct {
	ID        string
	Name      string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockInput captures caller provided stock fields as entered on the form.
type StockInput struct {
	Name     string
	Quantity string
}

// DayReport summarises one day's committed appointments for the read-only
// report and export screens.
type DayReport struct {
	Date      calendar.Date
	Total     int
	PerRoom   map[string]int
	PerDoctor map[string]int
	Warnings  []LoadWarning
}

// User represents a staff account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session represents an authenticated session issued to a staff member.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a staff member.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}
