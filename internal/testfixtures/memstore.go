package testfixtures

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/example/clinic-ops/internal/application"
	"github.com/example/clinic-ops/internal/calendar"
	"github.com/example/clinic-ops/internal/persistence"
)

// MemAppointmentGateway is an in-memory document store for scheduler tests.
// Per-room failures can be injected to exercise partial load degradation, and
// write errors to exercise failed commits.
type MemAppointmentGateway struct {
	mu          sync.Mutex
	docs        map[string]application.Appointment
	counter     uint64
	failList    map[string]error
	upsertErr   error
	deleteErr   error
	UpsertCalls int
	DeleteCalls int
}

// NewMemAppointmentGateway constructs an empty gateway.
func NewMemAppointmentGateway() *MemAppointmentGateway {
	return &MemAppointmentGateway{
		docs:     make(map[string]application.Appointment),
		failList: make(map[string]error),
	}
}

// Seed stores appointments directly, bypassing the engine lifecycle.
func (g *MemAppointmentGateway) Seed(appts ...application.Appointment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, appt := range appts {
		g.docs[appt.ID] = appt
	}
}

// FailListForRoom makes ListByDay return the given error for one room.
func (g *MemAppointmentGateway) FailListForRoom(roomID string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.failList, roomID)
		return
	}
	g.failList[roomID] = err
}

// FailUpsert makes every Upsert return the given error.
func (g *MemAppointmentGateway) FailUpsert(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.upsertErr = err
}

// FailDelete makes every Delete return the given error.
func (g *MemAppointmentGateway) FailDelete(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleteErr = err
}

// Stored returns the persisted appointment by id.
func (g *MemAppointmentGateway) Stored(id string) (application.Appointment, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	appt, ok := g.docs[id]
	return appt, ok
}

// Len reports the number of stored documents.
func (g *MemAppointmentGateway) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.docs)
}

func (g *MemAppointmentGateway) ListByDay(ctx context.Context, roomID string, date calendar.Date) ([]application.Appointment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.failList[roomID]; ok {
		return nil, err
	}
	var appts []application.Appointment
	for _, appt := range g.docs {
		if appt.RoomID == roomID && appt.Date == date {
			appts = append(appts, appt)
		}
	}
	sort.Slice(appts, func(i, j int) bool { return appts[i].ID < appts[j].ID })
	return appts, nil
}

func (g *MemAppointmentGateway) Get(ctx context.Context, roomID string, date calendar.Date, id string) (application.Appointment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	appt, ok := g.docs[id]
	if !ok || appt.RoomID != roomID || appt.Date != date {
		return application.Appointment{}, persistence.ErrNotFound
	}
	return appt, nil
}

func (g *MemAppointmentGateway) Upsert(ctx context.Context, appt application.Appointment) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.UpsertCalls++
	if g.upsertErr != nil {
		return "", g.upsertErr
	}
	if appt.ID == "" {
		g.counter++
		appt.ID = fmt.Sprintf("stored-%d", g.counter)
	}
	g.docs[appt.ID] = appt
	return appt.ID, nil
}

func (g *MemAppointmentGateway) Delete(ctx context.Context, roomID string, date calendar.Date, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.DeleteCalls++
	if g.deleteErr != nil {
		return g.deleteErr
	}
	appt, ok := g.docs[id]
	if !ok || appt.RoomID != roomID || appt.Date != date {
		return persistence.ErrNotFound
	}
	delete(g.docs, id)
	return nil
}

// MemRoomCatalog serves a fixed cabinet list.
type MemRoomCatalog struct {
	mu    sync.Mutex
	rooms []application.Room
	err   error
}

// NewMemRoomCatalog constructs a catalog over the given rooms.
func NewMemRoomCatalog(rooms ...application.Room) *MemRoomCatalog {
	return &MemRoomCatalog{rooms: rooms}
}

// Fail makes ListRooms return the given error.
func (c *MemRoomCatalog) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *MemRoomCatalog) ListRooms(ctx context.Context) ([]application.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return append([]application.Room(nil), c.rooms...), nil
}

// MemClientDirectory serves a fixed patient list.
type MemClientDirectory struct {
	mu      sync.Mutex
	clients []application.Client
	err     error
}

// NewMemClientDirectory constructs a directory over the given clients.
func NewMemClientDirectory(clients ...application.Client) *MemClientDirectory {
	return &MemClientDirectory{clients: clients}
}

// Fail makes ListClients return the given error.
func (d *MemClientDirectory) Fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

func (d *MemClientDirectory) ListClients(ctx context.Context) ([]application.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return append([]application.Client(nil), d.clients...), nil
}

// MemDutyRoster serves per-day duty lists for availability tests.
type MemDutyRoster struct {
	mu    sync.Mutex
	days  map[string][]string
	err   error
	Calls int
}

// NewMemDutyRoster constructs an empty roster.
func NewMemDutyRoster() *MemDutyRoster {
	return &MemDutyRoster{days: make(map[string][]string)}
}

// SetDay replaces the duty list for one date.
func (r *MemDutyRoster) SetDay(date calendar.Date, doctors ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.days[date.String()] = append([]string(nil), doctors...)
}

// Fail makes ListOnDuty return the given error.
func (r *MemDutyRoster) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *MemDutyRoster) ListOnDuty(ctx context.Context, date calendar.Date) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.err != nil {
		return nil, r.err
	}
	doctors, ok := r.days[date.String()]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return append([]string(nil), doctors...), nil
}
