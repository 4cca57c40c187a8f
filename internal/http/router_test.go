package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/clinic-ops/internal/application"
	"github.com/example/clinic-ops/internal/calendar"
)

type scheduleServiceStub struct {
	view    application.DayView
	appt    application.Appointment
	date    calendar.Date
	err     error
	calls   []string
	lastID  string
	field   application.Field
	value   string
	deleted []string
}

func (s *scheduleServiceStub) LoadDay(ctx context.Context, date calendar.Date) (application.DayView, error) {
	s.calls = append(s.calls, "LoadDay")
	if s.err != nil {
		return application.DayView{}, s.err
	}
	return s.view, nil
}

func (s *scheduleServiceStub) DayView() (application.DayView, error) {
	s.calls = append(s.calls, "DayView")
	return s.view, s.err
}

func (s *scheduleServiceStub) NextDay() (calendar.Date, error) {
	s.calls = append(s.calls, "NextDay")
	return s.date, s.err
}

func (s *scheduleServiceStub) PrevDay() (calendar.Date, error) {
	s.calls = append(s.calls, "PrevDay")
	return s.date, s.err
}

func (s *scheduleServiceStub) ProposeCreate(ctx context.Context, roomID string, date calendar.Date) (application.Appointment, error) {
	s.calls = append(s.calls, "ProposeCreate")
	if s.err != nil {
		return application.Appointment{}, s.err
	}
	return s.appt, nil
}

func (s *scheduleServiceStub) BeginEdit(ctx context.Context, id string) (application.Appointment, error) {
	s.calls = append(s.calls, "BeginEdit")
	s.lastID = id
	if s.err != nil {
		return application.Appointment{}, s.err
	}
	return s.appt, nil
}

func (s *scheduleServiceStub) ProposeFieldChange(ctx context.Context, id string, field application.Field, value string) (application.Appointment, error) {
	s.calls = append(s.calls, "ProposeFieldChange")
	s.lastID = id
	s.field = field
	s.value = value
	if s.err != nil {
		return application.Appointment{}, s.err
	}
	return s.appt, nil
}

func (s *scheduleServiceStub) Commit(ctx context.Context, id string) (application.Appointment, error) {
	s.calls = append(s.calls, "Commit")
	s.lastID = id
	if s.err != nil {
		return application.Appointment{}, s.err
	}
	return s.appt, nil
}

func (s *scheduleServiceStub) Delete(ctx context.Context, id string) error {
	s.calls = append(s.calls, "Delete")
	s.deleted = append(s.deleted, id)
	return s.err
}

func scheduleRouter(service scheduleService) http.Handler {
	return NewRouter(RouterConfig{Schedule: NewScheduleHandler(service, nil)})
}

func testDate() calendar.Date {
	return calendar.Date{Year: 2026, Month: time.March, Day: 14}
}

func TestRouterLoadsDay(t *testing.T) {
	t.Parallel()

	service := &scheduleServiceStub{view: application.DayView{Date: testDate()}}
	router := scheduleRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schedule/day?date=2026-03-14", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var body dayViewDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Date != "2026-03-14" {
		t.Fatalf("date = %q", body.Date)
	}
}

func TestRouterRejectsBadDate(t *testing.T) {
	t.Parallel()

	router := scheduleRouter(&scheduleServiceStub{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schedule/day?date=14.03.2026", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRouterCreateDraft(t *testing.T) {
	t.Parallel()

	service := &scheduleServiceStub{appt: application.Appointment{ID: "draft-1", RoomID: "room-1", Date: testDate(), State: application.StateNew}}
	router := scheduleRouter(service)

	body := strings.NewReader(`{"room_id":"room-1","date":"2026-03-14"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/schedule/appointments", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var dto appointmentDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if dto.ID != "draft-1" || dto.State != string(application.StateNew) {
		t.Fatalf("unexpected draft: %+v", dto)
	}
	if dto.StartTime != "" {
		t.Fatalf("unset start time must be omitted, got %q", dto.StartTime)
	}
}

func TestRouterAppointmentActions(t *testing.T) {
	t.Parallel()

	service := &scheduleServiceStub{appt: application.Appointment{ID: "appt-1", RoomID: "room-1", Date: testDate()}}
	router := scheduleRouter(service)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		call   string
		status int
	}{
		{"field change", http.MethodPatch, "/schedule/appointments/appt-1", `{"field":"doctor","value":"Ivanov"}`, "ProposeFieldChange", http.StatusOK},
		{"begin edit", http.MethodPost, "/schedule/appointments/appt-1/edit", "", "BeginEdit", http.StatusOK},
		{"commit", http.MethodPost, "/schedule/appointments/appt-1/commit", "", "Commit", http.StatusOK},
		{"delete", http.MethodDelete, "/schedule/appointments/appt-1", "", "Delete", http.StatusNoContent},
	}
	for _, tc := range cases {
		service.calls = nil
		var body *strings.Reader
		if tc.body != "" {
			body = strings.NewReader(tc.body)
		} else {
			body = strings.NewReader("")
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, body))

		if rec.Code != tc.status {
			t.Errorf("%s: status = %d, want %d: %s", tc.name, rec.Code, tc.status, rec.Body)
			continue
		}
		if len(service.calls) != 1 || service.calls[0] != tc.call {
			t.Errorf("%s: calls = %v, want [%s]", tc.name, service.calls, tc.call)
		}
		if service.lastID != "appt-1" && tc.call != "Delete" {
			t.Errorf("%s: id = %q", tc.name, service.lastID)
		}
	}
	if len(service.deleted) != 1 || service.deleted[0] != "appt-1" {
		t.Fatalf("deleted = %v", service.deleted)
	}
	if service.field != application.FieldDoctor || service.value != "Ivanov" {
		t.Fatalf("field change saw %q=%q", service.field, service.value)
	}
}

func TestRouterMethodNotAllowedSetsAllowHeader(t *testing.T) {
	t.Parallel()

	router := scheduleRouter(&scheduleServiceStub{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/schedule/appointments/appt-1", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	allow := rec.Header().Get("Allow")
	if !strings.Contains(allow, http.MethodPatch) || !strings.Contains(allow, http.MethodDelete) {
		t.Fatalf("Allow = %q", allow)
	}
}

func TestRouterConflictBecomes409(t *testing.T) {
	t.Parallel()

	service := &scheduleServiceStub{err: &application.ConflictError{Conflict: calendar.Conflict{
		Resource:      calendar.ResourceRoom,
		WithBookingID: "appt-2",
		RoomID:        "room-1",
	}}}
	router := scheduleRouter(service)

	body := strings.NewReader(`{"field":"end_time","value":"10:30"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/schedule/appointments/appt-1", body))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ErrorCode != "BOOKING_CONFLICT" {
		t.Fatalf("error_code = %q", resp.ErrorCode)
	}
	if resp.Conflict == nil || resp.Conflict.AppointmentID != "appt-2" || resp.Conflict.RoomID != "room-1" {
		t.Fatalf("conflict = %+v", resp.Conflict)
	}
}

func TestRouterValidationBecomes422(t *testing.T) {
	t.Parallel()

	vErr := &application.ValidationError{FieldErrors: map[string]string{"doctor": "doctor is required"}}
	service := &scheduleServiceStub{err: vErr}
	router := scheduleRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/schedule/appointments/appt-1/commit", nil))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Errors["doctor"] == "" {
		t.Fatalf("errors = %v", resp.Errors)
	}
}

func TestRouterStoreOutageBecomes503(t *testing.T) {
	t.Parallel()

	service := &scheduleServiceStub{err: application.ErrStoreUnavailable}
	router := scheduleRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schedule/day?date=2026-03-14", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestRouterDateRuleErrorsCarryCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		code string
	}{
		{application.ErrOutOfWindow, "DATE_OUT_OF_WINDOW"},
		{application.ErrPastDateImmutable, "PAST_DATE_IMMUTABLE"},
		{application.ErrDoctorNotScheduled, "DOCTOR_NOT_SCHEDULED"},
	}
	for _, tc := range cases {
		router := scheduleRouter(&scheduleServiceStub{err: tc.err})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/schedule/appointments/appt-1/commit", nil))

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("%v: status = %d, want 422", tc.err, rec.Code)
			continue
		}
		var resp errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Errorf("%v: decode response: %v", tc.err, err)
			continue
		}
		if resp.ErrorCode != tc.code {
			t.Errorf("%v: error_code = %q, want %q", tc.err, resp.ErrorCode, tc.code)
		}
	}
}

type roomServiceStub struct {
	rooms   []application.Room
	room    application.Room
	err     error
	deleted []string
}

func (s *roomServiceStub) CreateRoom(ctx context.Context, principal application.Principal, input application.RoomInput) (application.Room, error) {
	if s.err != nil {
		return application.Room{}, s.err
	}
	return s.room, nil
}

func (s *roomServiceStub) DeleteRoom(ctx context.Context, principal application.Principal, roomID string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, roomID)
	return nil
}

func (s *roomServiceStub) ListRooms(ctx context.Context, principal application.Principal) ([]application.Room, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rooms, nil
}

func TestRouterRoomRoutes(t *testing.T) {
	t.Parallel()

	service := &roomServiceStub{
		rooms: []application.Room{{ID: "room-1", Name: "Surgery"}},
		room:  application.Room{ID: "room-2", Name: "Therapy"},
	}
	router := NewRouter(RouterConfig{Rooms: NewRoomHandler(service, nil)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	var list listRoomsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Rooms) != 1 || list.Rooms[0].Name != "Surgery" {
		t.Fatalf("rooms = %+v", list.Rooms)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rooms", strings.NewReader(`{"name":"Therapy"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d: %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/rooms/room-1", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	if len(service.deleted) != 1 || service.deleted[0] != "room-1" {
		t.Fatalf("deleted = %v", service.deleted)
	}
}

func TestRouterForbiddenCarriesCode(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Rooms: NewRoomHandler(&roomServiceStub{err: application.ErrUnauthorized}, nil)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/rooms/room-1", nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ErrorCode != "AUTH_FORBIDDEN" {
		t.Fatalf("error_code = %q", resp.ErrorCode)
	}
}

type rosterServiceStub struct {
	doctors []string
	err     error
	set     *setDutyRequest
}

func (s *rosterServiceStub) ListOnDuty(ctx context.Context, principal application.Principal, date calendar.Date) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.doctors, nil
}

func (s *rosterServiceStub) SetDuty(ctx context.Context, principal application.Principal, date calendar.Date, doctor string, onDuty bool) error {
	if s.err != nil {
		return s.err
	}
	s.set = &setDutyRequest{Date: date.String(), Doctor: doctor, OnDuty: onDuty}
	return nil
}

func TestRouterRosterRoutes(t *testing.T) {
	t.Parallel()

	service := &rosterServiceStub{doctors: []string{"Ivanov"}}
	router := NewRouter(RouterConfig{Roster: NewRosterHandler(service, nil)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roster?date=2026-03-14", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	var resp rosterResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if resp.Date != "2026-03-14" || len(resp.Doctors) != 1 {
		t.Fatalf("response = %+v", resp)
	}

	body := strings.NewReader(`{"date":"2026-03-14","doctor":"Petrov","on_duty":true}`)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/roster", body))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("set duty: status = %d: %s", rec.Code, rec.Body)
	}
	if service.set == nil || service.set.Doctor != "Petrov" || !service.set.OnDuty {
		t.Fatalf("set duty saw %+v", service.set)
	}
}
