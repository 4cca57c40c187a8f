package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/clinic-ops/internal/calendar"
	"github.com/example/clinic-ops/internal/persistence"
)

// AppointmentGateway captures the document store interactions needed by the
// engine: per-room, per-day keyed documents. Upsert with an empty id creates
// the document and returns the assigned id.
type AppointmentGateway interface {
	ListByDay(ctx context.Context, roomID string, date calendar.Date) ([]Appointment, error)
	Get(ctx context.Context, roomID string, date calendar.Date, id string) (Appointment, error)
	Upsert(ctx context.Context, appt Appointment) (string, error)
	Delete(ctx context.Context, roomID string, date calendar.Date, id string) error
}

// RoomCatalog lists the cabinets the schedule fans out over.
type RoomCatalog interface {
	ListRooms(ctx context.Context) ([]Room, error)
}

// ClientDirectory resolves client display names against the patient records.
type ClientDirectory interface {
	ListClients(ctx context.Context) ([]Client, error)
}

// DefaultBookingWindowDays bounds how far ahead appointments may be created,
// inclusive of the final day.
const DefaultBookingWindowDays = 30

// record pairs the working copy a user edits with the last persisted values.
// The calendar is built from persisted values only, so a record opened for
// editing keeps blocking its old slot until the edit commits.
type record struct {
	working   Appointment
	persisted *Appointment
}

// SchedulingEngine owns the authoritative in-memory state for one loaded day:
// the appointment records of every room, the conflict calendar derived from
// them, and the edit/commit lifecycle of each record. Callers interact only
// through its query and command methods.
//
// The engine serves a single interactive user per day view. Validation and
// in-memory mutation are synchronous under the engine lock; document store
// calls run with the lock released, and commit/delete are serialized per
// record id so a retry cannot overtake an in-flight write.
type SchedulingEngine struct {
	gateway      AppointmentGateway
	rooms        RoomCatalog
	clients      ClientDirectory
	availability *AvailabilityIndex
	idGenerator  func() string
	now          func() time.Time
	windowDays   int
	logger       *slog.Logger

	mu         sync.Mutex
	loaded     bool
	generation uint64
	day        calendar.Date
	records    map[string]*record
	roomOrder  []Room
	byRoom     map[string][]string
	warnings   []LoadWarning
	cal        *calendar.Calendar

	inflightMu sync.Mutex
	inflight   map[string]*sync.Mutex
}

// NewSchedulingEngine wires dependencies for the day scheduler.
func NewSchedulingEngine(gateway AppointmentGateway, rooms RoomCatalog, clients ClientDirectory, availability *AvailabilityIndex, idGenerator func() string, now func() time.Time) *SchedulingEngine {
	return NewSchedulingEngineWithLogger(gateway, rooms, clients, availability, idGenerator, now, nil)
}

// NewSchedulingEngineWithLogger wires dependencies with a specified logger.
func NewSchedulingEngineWithLogger(gateway AppointmentGateway, rooms RoomCatalog, clients ClientDirectory, availability *AvailabilityIndex, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SchedulingEngine {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SchedulingEngine{
		gateway:      gateway,
		rooms:        rooms,
		clients:      clients,
		availability: availability,
		idGenerator:  idGenerator,
		now:          now,
		windowDays:   DefaultBookingWindowDays,
		logger:       defaultLogger(logger),
		records:      make(map[string]*record),
		byRoom:       make(map[string][]string),
		inflight:     make(map[string]*sync.Mutex),
	}
}

// SetBookingWindowDays overrides the inclusive forward booking window.
func (e *SchedulingEngine) SetBookingWindowDays(days int) {
	if days > 0 {
		e.windowDays = days
	}
}

func (e *SchedulingEngine) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, e.logger, "SchedulingEngine", operation, attrs...)
}

// LoadDay fetches every room's documents for the date and replaces the
// engine's day state. Uncommitted records from a previously loaded day are
// discarded without being persisted. Rooms whose fetch fails degrade to an
// empty list with a warning; the call fails with ErrStoreUnavailable only
// when no room could be read at all.
func (e *SchedulingEngine) LoadDay(ctx context.Context, date calendar.Date) (view DayView, err error) {
	if e == nil {
		err = fmt.Errorf("SchedulingEngine is nil")
		return
	}
	if e.gateway == nil || e.rooms == nil {
		err = fmt.Errorf("scheduling engine not configured")
		return
	}

	logger := e.loggerWith(ctx, "LoadDay", "date", date.String())
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load day", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "day loaded", "rooms", len(view.Rooms), "warnings", len(view.Warnings))
	}()

	rooms, err := e.rooms.ListRooms(ctx)
	if err != nil {
		err = mapStoreError(err)
		return
	}

	type roomResult struct {
		room  Room
		appts []Appointment
		err   error
	}

	results := make([]roomResult, len(rooms))
	var wg sync.WaitGroup
	for i, room := range rooms {
		wg.Add(1)
		go func(i int, room Room) {
			defer wg.Done()
			appts, fetchErr := e.gateway.ListByDay(ctx, room.ID, date)
			results[i] = roomResult{room: room, appts: appts, err: fetchErr}
		}(i, room)
	}
	wg.Wait()

	failed := 0
	var warnings []LoadWarning
	for _, result := range results {
		if result.err != nil {
			failed++
			warnings = append(warnings, LoadWarning{RoomID: result.room.ID, Reason: mapStoreError(result.err).Error()})
		}
	}
	if len(rooms) > 0 && failed == len(rooms) {
		err = fmt.Errorf("%w: all %d rooms failed to load", ErrStoreUnavailable, failed)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.loaded = true
	e.generation++
	e.day = date
	e.records = make(map[string]*record)
	e.byRoom = make(map[string][]string)
	e.roomOrder = rooms
	e.warnings = warnings

	// Per-record locks belong to the replaced day state.
	e.inflightMu.Lock()
	e.inflight = make(map[string]*sync.Mutex)
	e.inflightMu.Unlock()

	for _, result := range results {
		if result.err != nil {
			continue
		}
		for _, appt := range result.appts {
			appt.State = StateCommitted
			persisted := appt
			e.records[appt.ID] = &record{working: appt, persisted: &persisted}
			e.byRoom[result.room.ID] = append(e.byRoom[result.room.ID], appt.ID)
		}
	}
	e.rebuildCalendarLocked()

	view = e.dayViewLocked()
	return
}

// DayView returns a snapshot of the currently loaded day.
func (e *SchedulingEngine) DayView() (DayView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return DayView{}, fmt.Errorf("no day loaded")
	}
	return e.dayViewLocked(), nil
}

// NextDay returns the day after the loaded one; pure date arithmetic.
func (e *SchedulingEngine) NextDay() (calendar.Date, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return calendar.Date{}, fmt.Errorf("no day loaded")
	}
	return e.day.Next(), nil
}

// PrevDay returns the day before the loaded one; pure date arithmetic.
func (e *SchedulingEngine) PrevDay() (calendar.Date, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return calendar.Date{}, fmt.Errorf("no day loaded")
	}
	return e.day.Prev(), nil
}

// ProposeCreate adds a blank appointment draft to the room, rejecting dates
// outside the inclusive [today, today+window] booking window. The draft lives
// only in memory until it commits.
func (e *SchedulingEngine) ProposeCreate(ctx context.Context, roomID string, date calendar.Date) (Appointment, error) {
	if e == nil {
		return Appointment{}, fmt.Errorf("SchedulingEngine is nil")
	}

	if err := e.checkWindow(date); err != nil {
		return Appointment{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded || e.day != date {
		return Appointment{}, fmt.Errorf("day %s is not loaded", date)
	}
	if !e.roomKnownLocked(roomID) {
		return Appointment{}, ErrNotFound
	}

	now := e.now()
	draft := Appointment{
		ID:        e.idGenerator(),
		RoomID:    roomID,
		Date:      date,
		StartTime: calendar.TimeUnset,
		EndTime:   calendar.TimeUnset,
		State:     StateNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.records[draft.ID] = &record{working: draft}
	e.byRoom[roomID] = append(e.byRoom[roomID], draft.ID)

	e.loggerWith(ctx, "ProposeCreate", "room_id", roomID, "date", date.String()).
		InfoContext(ctx, "appointment draft created", "appointment_id", draft.ID)
	return draft, nil
}

// BeginEdit reopens a committed record for editing. Past days are read-only
// history. Reopening does not re-validate; validation runs again at save.
func (e *SchedulingEngine) BeginEdit(ctx context.Context, id string) (Appointment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.records[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	if rec.working.Date.Before(calendar.DateOf(e.now())) {
		return Appointment{}, ErrPastDateImmutable
	}
	if rec.working.State == StateCommitted {
		rec.working.State = StateEditing
	}
	return rec.working, nil
}

// ProposeFieldChange applies one field edit to a New or Editing record. Field
// local rules run first; time and doctor changes are additionally checked
// against the current calendar and the duty roster, and the field is left
// unchanged when a collision is found.
func (e *SchedulingEngine) ProposeFieldChange(ctx context.Context, id string, field Field, value string) (Appointment, error) {
	if e == nil {
		return Appointment{}, fmt.Errorf("SchedulingEngine is nil")
	}

	e.mu.Lock()
	rec, ok := e.records[id]
	if !ok {
		e.mu.Unlock()
		return Appointment{}, ErrNotFound
	}
	snapshot := rec.working
	e.mu.Unlock()

	if snapshot.State == StateCommitted {
		vErr := &ValidationError{}
		vErr.add("state", "record must be opened for editing first")
		return snapshot, vErr
	}

	// Roster and client lookups can hit the store; they run before the
	// engine lock is taken so a slow read cannot stall other operations.
	var resolvedClientID string
	switch field {
	case FieldDoctor:
		doctor := strings.TrimSpace(value)
		if doctor != "" && !isLettersOnly(doctor) {
			vErr := &ValidationError{}
			vErr.add(string(field), "letters and spaces only")
			return snapshot, vErr
		}
		if doctor != "" {
			available, availErr := e.availability.IsAvailable(ctx, doctor, snapshot.Date)
			if availErr == nil && !available {
				return snapshot, ErrDoctorNotScheduled
			}
		}
	case FieldClientName:
		resolvedClientID = e.resolveClientID(ctx, strings.TrimSpace(value))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok = e.records[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	if rec.working.State == StateCommitted {
		vErr := &ValidationError{}
		vErr.add("state", "record must be opened for editing first")
		return rec.working, vErr
	}

	proposed := rec.working

	switch field {
	case FieldStartTime, FieldEndTime:
		parsed, parseErr := calendar.ParseTimeOfDay(value)
		if parseErr != nil {
			vErr := &ValidationError{}
			vErr.add(string(field), "malformed time")
			return rec.working, vErr
		}
		if field == FieldStartTime {
			proposed.StartTime = parsed
		} else {
			proposed.EndTime = parsed
		}
		vErr := &ValidationError{}
		validateInterval(proposed.StartTime, proposed.EndTime, vErr)
		if vErr.HasErrors() {
			return rec.working, vErr
		}
		if err := e.checkConflictsLocked(proposed); err != nil {
			return rec.working, err
		}

	case FieldDoctor:
		proposed.Doctor = strings.TrimSpace(value)
		if proposed.Doctor != "" {
			if err := e.checkConflictsLocked(proposed); err != nil {
				return rec.working, err
			}
		}

	case FieldProcedure:
		procedure := strings.TrimSpace(value)
		if procedure != "" && !isLettersOnly(procedure) {
			vErr := &ValidationError{}
			vErr.add(string(field), "letters and spaces only")
			return rec.working, vErr
		}
		proposed.Procedure = procedure

	case FieldClientName:
		proposed.ClientName = strings.TrimSpace(value)
		proposed.ClientID = resolvedClientID

	default:
		vErr := &ValidationError{}
		vErr.add("field", fmt.Sprintf("unknown field %q", field))
		return rec.working, vErr
	}

	proposed.UpdatedAt = e.now()
	rec.working = proposed
	return rec.working, nil
}

// Commit validates the record in full and persists it through the gateway.
// On success the record becomes Committed (a never-persisted draft receives
// its store id) and the calendar is updated only after the store confirms.
// On failure the record and calendar are left unchanged and the caller gets
// a typed reason.
func (e *SchedulingEngine) Commit(ctx context.Context, id string) (appt Appointment, err error) {
	if e == nil {
		err = fmt.Errorf("SchedulingEngine is nil")
		return
	}

	logger := e.loggerWith(ctx, "Commit", "appointment_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "commit rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "appointment committed", "appointment_id", appt.ID)
	}()

	opLock := e.operationLock(id)
	opLock.Lock()
	defer opLock.Unlock()

	e.mu.Lock()
	rec, ok := e.records[id]
	if !ok {
		e.mu.Unlock()
		err = ErrNotFound
		return
	}
	if rec.working.State == StateCommitted {
		appt = rec.working
		e.mu.Unlock()
		return
	}

	candidate := rec.working
	if vErr := validateForCommit(candidate); vErr.HasErrors() {
		e.mu.Unlock()
		err = vErr
		return
	}
	if winErr := e.checkWindow(candidate.Date); winErr != nil {
		e.mu.Unlock()
		err = winErr
		return
	}
	if confErr := e.checkConflictsLocked(candidate); confErr != nil {
		e.mu.Unlock()
		err = confErr
		return
	}

	wasNew := rec.persisted == nil
	generation := e.generation
	upsert := candidate
	if wasNew {
		upsert.ID = ""
	}
	e.mu.Unlock()

	storedID, gatewayErr := e.gateway.Upsert(ctx, upsert)
	if gatewayErr != nil {
		err = mapStoreError(gatewayErr)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if wasNew && storedID != "" {
		candidate.ID = storedID
	}
	candidate.State = StateCommitted
	candidate.UpdatedAt = e.now()

	// The view may have moved to another day while the write was in flight.
	// The store holds the record, but it must not be spliced into state it
	// does not belong to.
	if e.generation != generation {
		appt = candidate
		return
	}

	if wasNew && storedID != "" && storedID != id {
		delete(e.records, id)
		e.records[storedID] = rec
		e.rekeyRoomEntryLocked(candidate.RoomID, id, storedID)
		e.inflightMu.Lock()
		delete(e.inflight, id)
		e.inflightMu.Unlock()
	}
	persisted := candidate
	rec.working = candidate
	rec.persisted = &persisted
	e.rebuildCalendarLocked()

	appt = candidate
	return
}

// Delete removes the record from the store and the calendar. Past days are
// read-only. A never-persisted draft is a pure in-memory removal with no
// gateway call.
func (e *SchedulingEngine) Delete(ctx context.Context, id string) (err error) {
	if e == nil {
		return fmt.Errorf("SchedulingEngine is nil")
	}

	logger := e.loggerWith(ctx, "Delete", "appointment_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "delete rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "appointment deleted")
	}()

	opLock := e.operationLock(id)
	opLock.Lock()
	defer opLock.Unlock()

	e.mu.Lock()
	rec, ok := e.records[id]
	if !ok {
		e.mu.Unlock()
		err = ErrNotFound
		return
	}
	if rec.working.Date.Before(calendar.DateOf(e.now())) {
		e.mu.Unlock()
		err = ErrPastDateImmutable
		return
	}

	if rec.persisted == nil {
		e.removeRecordLocked(id, rec.working.RoomID)
		e.mu.Unlock()
		return
	}

	roomID := rec.persisted.RoomID
	date := rec.persisted.Date
	generation := e.generation
	e.mu.Unlock()

	if gatewayErr := e.gateway.Delete(ctx, roomID, date, id); gatewayErr != nil {
		if errors.Is(gatewayErr, persistence.ErrNotFound) {
			// Already gone from the store; fall through and drop it locally.
		} else {
			err = mapStoreError(gatewayErr)
			return
		}
	}

	e.mu.Lock()
	if e.generation == generation {
		e.removeRecordLocked(id, rec.working.RoomID)
		e.rebuildCalendarLocked()
	}
	e.mu.Unlock()
	return
}

func (e *SchedulingEngine) checkWindow(date calendar.Date) error {
	today := calendar.DateOf(e.now())
	if date.Before(today) {
		return ErrOutOfWindow
	}
	if today.DaysUntil(date) > e.windowDays {
		return ErrOutOfWindow
	}
	return nil
}

// checkConflictsLocked runs the room and doctor exclusivity tests for the
// proposed record against the committed calendar, excluding the record's own
// slot.
func (e *SchedulingEngine) checkConflictsLocked(proposed Appointment) error {
	if conflict, found := e.cal.RoomConflict(proposed.RoomID, proposed.ID, proposed.StartTime, proposed.EndTime); found {
		return &ConflictError{Conflict: conflict}
	}
	if conflict, found := e.cal.DoctorConflict(proposed.Doctor, proposed.ID, proposed.StartTime, proposed.EndTime); found {
		return &ConflictError{Conflict: conflict}
	}
	return nil
}

func validateForCommit(appt Appointment) *ValidationError {
	vErr := &ValidationError{}
	if !appt.StartTime.IsSet() {
		vErr.add("startTime", "start time is required")
	}
	if !appt.EndTime.IsSet() {
		vErr.add("endTime", "end time is required")
	}
	if appt.ClientName == "" {
		vErr.add("clientName", "client name is required")
	}
	if appt.Procedure == "" {
		vErr.add("procedure", "procedure is required")
	}
	if appt.Doctor == "" {
		vErr.add("doctor", "doctor is required")
	}
	if appt.StartTime.IsSet() && appt.EndTime.IsSet() {
		if appt.StartTime == appt.EndTime {
			vErr.add("time", "empty interval")
		} else if appt.StartTime > appt.EndTime {
			vErr.add("time", "start must be before end")
		}
	}
	return vErr
}

func (e *SchedulingEngine) resolveClientID(ctx context.Context, name string) string {
	if e.clients == nil || name == "" {
		return ""
	}
	clients, err := e.clients.ListClients(ctx)
	if err != nil {
		return ""
	}
	for _, client := range clients {
		if client.DisplayName == name {
			return client.ID
		}
	}
	return ""
}

func (e *SchedulingEngine) roomKnownLocked(roomID string) bool {
	for _, room := range e.roomOrder {
		if room.ID == roomID {
			return true
		}
	}
	return false
}

func (e *SchedulingEngine) rebuildCalendarLocked() {
	bookings := make([]calendar.Booking, 0, len(e.records))
	for _, rec := range e.records {
		if rec.persisted == nil {
			continue
		}
		bookings = append(bookings, rec.persisted.booking())
	}
	e.cal = calendar.Build(bookings)
}

func (e *SchedulingEngine) dayViewLocked() DayView {
	view := DayView{Date: e.day}
	if len(e.warnings) > 0 {
		view.Warnings = append([]LoadWarning(nil), e.warnings...)
	}
	for _, room := range e.roomOrder {
		roomDay := RoomDay{Room: room}
		for _, id := range e.byRoom[room.ID] {
			if rec, ok := e.records[id]; ok {
				roomDay.Appointments = append(roomDay.Appointments, rec.working)
			}
		}
		view.Rooms = append(view.Rooms, roomDay)
	}
	return view
}

func (e *SchedulingEngine) removeRecordLocked(id, roomID string) {
	delete(e.records, id)
	ids := e.byRoom[roomID]
	for i, existing := range ids {
		if existing == id {
			e.byRoom[roomID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	e.inflightMu.Lock()
	delete(e.inflight, id)
	e.inflightMu.Unlock()
}

func (e *SchedulingEngine) rekeyRoomEntryLocked(roomID, oldID, newID string) {
	ids := e.byRoom[roomID]
	for i, existing := range ids {
		if existing == oldID {
			ids[i] = newID
			return
		}
	}
}

// operationLock returns the per-record mutex serializing commit and delete.
func (e *SchedulingEngine) operationLock(id string) *sync.Mutex {
	e.inflightMu.Lock()
	defer e.inflightMu.Unlock()
	lock, ok := e.inflight[id]
	if !ok {
		lock = &sync.Mutex{}
		e.inflight[id] = lock
	}
	return lock
}

// mapStoreError normalizes gateway failures into the retryable taxonomy.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrStoreTimeout, err)
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
