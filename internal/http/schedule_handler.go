package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/clinic-ops/internal/application"
	"github.com/example/clinic-ops/internal/calendar"
)

type scheduleService interface {
	LoadDay(ctx context.Context, date calendar.Date) (application.DayView, error)
	DayView() (application.DayView, error)
	NextDay() (calendar.Date, error)
	PrevDay() (calendar.Date, error)
	ProposeCreate(ctx context.Context, roomID string, date calendar.Date) (application.Appointment, error)
	BeginEdit(ctx context.Context, id string) (application.Appointment, error)
	ProposeFieldChange(ctx context.Context, id string, field application.Field, value string) (application.Appointment, error)
	Commit(ctx context.Context, id string) (application.Appointment, error)
	Delete(ctx context.Context, id string) error
}

type ScheduleHandler struct {
	service   scheduleService
	responder responder
	logger    *slog.Logger
}

func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	base := defaultLogger(logger)
	return &ScheduleHandler{service: service, responder: newResponder(base), logger: base}
}

// Day loads and returns the requested day across all cabinets.
func (h *ScheduleHandler) Day(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, err := calendar.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	view, err := h.service.LoadDay(r.Context(), date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDayViewDTO(view))
}

// NextDay advances the loaded view one day forward and returns it.
func (h *ScheduleHandler) NextDay(w http.ResponseWriter, r *http.Request) {
	h.shiftDay(w, r, true)
}

// PrevDay moves the loaded view one day back and returns it.
func (h *ScheduleHandler) PrevDay(w http.ResponseWriter, r *http.Request) {
	h.shiftDay(w, r, false)
}

func (h *ScheduleHandler) shiftDay(w http.ResponseWriter, r *http.Request, forward bool) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var (
		date calendar.Date
		err  error
	)
	if forward {
		date, err = h.service.NextDay()
	} else {
		date, err = h.service.PrevDay()
	}
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusConflict, err)
		return
	}

	view, err := h.service.LoadDay(r.Context(), date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDayViewDTO(view))
}

// CreateDraft adds a blank appointment draft to a cabinet.
func (h *ScheduleHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req createDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if strings.TrimSpace(req.RoomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}
	date, err := calendar.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	appt, err := h.service.ProposeCreate(r.Context(), req.RoomID, date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toAppointmentDTO(appt))
}

// BeginEdit reopens a committed appointment for field changes.
func (h *ScheduleHandler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := AppointmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAppointmentID)
		return
	}

	appt, err := h.service.BeginEdit(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAppointmentDTO(appt))
}

// FieldChange applies one field edit to an open appointment record.
func (h *ScheduleHandler) FieldChange(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := AppointmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAppointmentID)
		return
	}

	var req fieldChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	appt, err := h.service.ProposeFieldChange(r.Context(), id, application.Field(strings.TrimSpace(req.Field)), req.Value)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAppointmentDTO(appt))
}

// Commit validates and persists an open appointment record.
func (h *ScheduleHandler) Commit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := AppointmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAppointmentID)
		return
	}

	appt, err := h.service.Commit(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAppointmentDTO(appt))
}

// Delete removes an appointment record.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := AppointmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAppointmentID)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type createDraftRequest struct {
	RoomID string `json:"room_id"`
	Date   string `json:"date"`
}

type fieldChangeRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type dayViewDTO struct {
	Date     string           `json:"date"`
	Rooms    []roomDayDTO     `json:"rooms"`
	Warnings []loadWarningDTO `json:"warnings,omitempty"`
}

type roomDayDTO struct {
	Room         roomDTO          `json:"room"`
	Appointments []appointmentDTO `json:"appointments"`
}

type loadWarningDTO struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"`
}

type appointmentDTO struct {
	ID         string `json:"id"`
	RoomID     string `json:"room_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time,omitempty"`
	EndTime    string `json:"end_time,omitempty"`
	ClientName string `json:"client_name,omitempty"`
	ClientID   string `json:"client_id,omitempty"`
	Procedure  string `json:"procedure,omitempty"`
	Doctor     string `json:"doctor,omitempty"`
	State      string `json:"state"`
}

func toAppointmentDTO(appt application.Appointment) appointmentDTO {
	dto := appointmentDTO{
		ID:         appt.ID,
		RoomID:     appt.RoomID,
		Date:       appt.Date.String(),
		ClientName: appt.ClientName,
		ClientID:   appt.ClientID,
		Procedure:  appt.Procedure,
		Doctor:     appt.Doctor,
		State:      string(appt.State),
	}
	if appt.StartTime.IsSet() {
		dto.StartTime = appt.StartTime.String()
	}
	if appt.EndTime.IsSet() {
		dto.EndTime = appt.EndTime.String()
	}
	return dto
}

func toDayViewDTO(view application.DayView) dayViewDTO {
	dto := dayViewDTO{Date: view.Date.String()}
	for _, roomDay := range view.Rooms {
		entry := roomDayDTO{Room: toRoomDTO(roomDay.Room), Appointments: []appointmentDTO{}}
		for _, appt := range roomDay.Appointments {
			entry.Appointments = append(entry.Appointments, toAppointmentDTO(appt))
		}
		dto.Rooms = append(dto.Rooms, entry)
	}
	for _, warning := range view.Warnings {
		dto.Warnings = append(dto.Warnings, loadWarningDTO{RoomID: warning.RoomID, Reason: warning.Reason})
	}
	return dto
}
