package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/clinic-ops/internal/application"
	"github.com/example/clinic-ops/internal/calendar"
)

var (
	roomCounter        uint64
	clientCounter      uint64
	appointmentCounter uint64
	bedCounter         uint64
	stockCounter       uint64
	userCounter        uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the calendar day of ReferenceTime.
func ReferenceDate() calendar.Date {
	return calendar.DateOf(referenceTime)
}

// ----------------------------- Room fixtures -----------------------------

// RoomOption configures a generated room fixture.
type RoomOption func(*application.Room)

// NewRoomFixture returns a deterministic cabinet with optional overrides.
func NewRoomFixture(opts ...RoomOption) application.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	room := application.Room{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Cabinet %03d", idx),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(r *application.Room) { r.ID = id }
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(r *application.Room) { r.Name = name }
}

// ---------------------------- Client fixtures ----------------------------

// ClientOption configures a generated client fixture.
type ClientOption func(*application.Client)

// NewClientFixture returns a deterministic patient record with optional overrides.
func NewClientFixture(opts ...ClientOption) application.Client {
	idx := atomic.AddUint64(&clientCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	client := application.Client{
		ID:          fmt.Sprintf("client-%03d", idx),
		DisplayName: fmt.Sprintf("Client %03d", idx),
		Phone:       fmt.Sprintf("555%04d", idx),
		Email:       fmt.Sprintf("client-%03d@example.com", idx),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&client)
	}
	return client
}

// WithClientID overrides the generated client ID.
func WithClientID(id string) ClientOption {
	return func(c *application.Client) { c.ID = id }
}

// WithClientDisplayName overrides the generated display name.
func WithClientDisplayName(name string) ClientOption {
	return func(c *application.Client) { c.DisplayName = name }
}

// -------------------------- Appointment fixtures --------------------------

// AppointmentOption configures a generated appointment fixture.
type AppointmentOption func(*application.Appointment)

// NewAppointmentFixture returns a deterministic committed appointment with
// optional overrides. The default slot is one hour starting at 09:00 plus the
// fixture index.
func NewAppointmentFixture(opts ...AppointmentOption) application.Appointment {
	idx := atomic.AddUint64(&appointmentCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	startMinutes := 9*60 + int(idx)*60
	appt := application.Appointment{
		ID:         fmt.Sprintf("appt-%03d", idx),
		RoomID:     "room-001",
		Date:       ReferenceDate(),
		StartTime:  calendar.MinuteOfDay(startMinutes),
		EndTime:    calendar.MinuteOfDay(startMinutes + 60),
		ClientName: fmt.Sprintf("Client %03d", idx),
		Procedure:  "checkup",
		Doctor:     "Ivanov",
		State:      application.StateCommitted,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&appt)
	}
	return appt
}

// WithAppointmentID overrides the generated appointment ID.
func WithAppointmentID(id string) AppointmentOption {
	return func(a *application.Appointment) { a.ID = id }
}

// WithAppointmentRoom overrides the room the appointment is booked in.
func WithAppointmentRoom(roomID string) AppointmentOption {
	return func(a *application.Appointment) { a.RoomID = roomID }
}

// WithAppointmentDate overrides the appointment date.
func WithAppointmentDate(date calendar.Date) AppointmentOption {
	return func(a *application.Appointment) { a.Date = date }
}

// WithAppointmentSlot overrides the booked interval, given as minute offsets
// from midnight.
func WithAppointmentSlot(startMinutes, endMinutes int) AppointmentOption {
	return func(a *application.Appointment) {
		a.StartTime = calendar.MinuteOfDay(startMinutes)
		a.EndTime = calendar.MinuteOfDay(endMinutes)
	}
}

// WithAppointmentDoctor overrides the attending doctor.
func WithAppointmentDoctor(doctor string) AppointmentOption {
	return func(a *application.Appointment) { a.Doctor = doctor }
}

// ------------------------------ Bed fixtures ------------------------------

// BedOption configures a generated bed fixture.
type BedOption func(*application.Bed)

// NewBedFixture returns a deterministic vacant ward bed with optional overrides.
func NewBedFixture(opts ...BedOption) application.Bed {
	idx := atomic.AddUint64(&bedCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	bed := application.Bed{
		ID:        fmt.Sprintf("bed-%03d", idx),
		Ward:      "A",
		Label:     fmt.Sprintf("%03d", idx),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&bed)
	}
	return bed
}

// WithBedOccupant marks the bed occupied by the given client.
func WithBedOccupant(clientID string) BedOption {
	return func(b *application.Bed) {
		b.ClientID = clientID
		b.Occupied = true
	}
}

// ----------------------------- Stock fixtures -----------------------------

// StockOption configures a generated stock fixture.
type StockOption func(*application.StockItem)

// NewStockFixture returns a deterministic stock item with optional overrides.
func NewStockFixture(opts ...StockOption) application.StockItem {
	idx := atomic.AddUint64(&stockCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	item := application.StockItem{
		ID:        fmt.Sprintf("stock-%03d", idx),
		Name:      fmt.Sprintf("Supply %03d", idx),
		Quantity:  int(idx) * 10,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&item)
	}
	return item
}

// WithStockQuantity overrides the generated quantity.
func WithStockQuantity(quantity int) StockOption {
	return func(i *application.StockItem) { i.Quantity = quantity }
}

// ------------------------------ User fixtures ------------------------------

// UserOption configures a generated user fixture.
type UserOption func(*application.User)

// NewUserFixture returns a deterministic staff account with optional overrides.
func NewUserFixture(opts ...UserOption) application.User {
	idx := atomic.AddUint64(&userCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := application.User{
		ID:          fmt.Sprintf("user-%03d", idx),
		Email:       fmt.Sprintf("user-%03d@example.com", idx),
		DisplayName: fmt.Sprintf("User %03d", idx),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserAdmin marks the account as an administrator.
func WithUserAdmin() UserOption {
	return func(u *application.User) { u.IsAdmin = true }
}

// AdminPrincipal returns a principal with administrator privileges.
func AdminPrincipal() application.Principal {
	return application.Principal{UserID: "admin-user", IsAdmin: true}
}

// StaffPrincipal returns a principal without administrator privileges.
func StaffPrincipal() application.Principal {
	return application.Principal{UserID: "staff-user"}
}
