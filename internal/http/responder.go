package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/clinic-ops/internal/application"
	"github.com/example/clinic-ops/internal/calendar"
)

var (
	errBadRequestBody        = errors.New("the request body is malformed")
	errInvalidAppointmentID  = errors.New("an appointment id is required")
	errInvalidRoomID         = errors.New("a room id is required")
	errInvalidClientID       = errors.New("a client id is required")
	errInvalidBedID          = errors.New("a bed id is required")
	errInvalidItemID         = errors.New("a stock item id is required")
	errInvalidDate           = errors.New("a date in YYYY-MM-DD form is required")
	errMissingSessionToken   = errors.New("a session token is required")
	errInvalidSessionMessage = "the session is no longer valid; please sign in again"
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError translates the application error taxonomy into HTTP
// statuses: double-bookings are 409, date-rule and validation failures are
// 422, store outages are 503/504.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "you are not allowed to perform this operation",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "the requested resource was not found"})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "a resource with the same identity already exists"})
	case errors.Is(err, application.ErrOutOfWindow):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "DATE_OUT_OF_WINDOW",
			Message:   "appointments can only be booked up to 30 days ahead",
		})
	case errors.Is(err, application.ErrPastDateImmutable):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "PAST_DATE_IMMUTABLE",
			Message:   "past days are read-only",
		})
	case errors.Is(err, application.ErrDoctorNotScheduled):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "DOCTOR_NOT_SCHEDULED",
			Message:   "the doctor is not on duty that day",
		})
	case errors.Is(err, application.ErrStoreTimeout):
		r.writeJSON(ctx, w, http.StatusGatewayTimeout, errorResponse{Message: "the document store timed out; please retry"})
	case errors.Is(err, application.ErrStoreUnavailable):
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{Message: "the document store is unavailable; please retry"})
	default:
		var cErr *application.ConflictError
		if errors.As(err, &cErr) {
			r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
				ErrorCode: "BOOKING_CONFLICT",
				Message:   cErr.Error(),
				Conflict:  toConflictDTO(cErr.Conflict),
			})
			return
		}

		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "the submitted values are invalid",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "an internal error occurred"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflict  *conflictDTO      `json:"conflict,omitempty"`
}

type conflictDTO struct {
	Resource      string `json:"resource"`
	AppointmentID string `json:"appointment_id"`
	RoomID        string `json:"room_id,omitempty"`
	Doctor        string `json:"doctor,omitempty"`
}

func toConflictDTO(conflict calendar.Conflict) *conflictDTO {
	return &conflictDTO{
		Resource:      string(conflict.Resource),
		AppointmentID: conflict.WithBookingID,
		RoomID:        conflict.RoomID,
		Doctor:        conflict.Doctor,
	}
}
