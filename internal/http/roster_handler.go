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

type rosterService interface {
	ListOnDuty(ctx context.Context, principal application.Principal, date calendar.Date) ([]string, error)
	SetDuty(ctx context.Context, principal application.Principal, date calendar.Date, doctor string, onDuty bool) error
}

type RosterHandler struct {
	service   rosterService
	responder responder
}

func NewRosterHandler(service rosterService, logger *slog.Logger) *RosterHandler {
	return &RosterHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

func (h *RosterHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, err := calendar.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	doctors, err := h.service.ListOnDuty(r.Context(), principal, date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, rosterResponse{
		Date:    date.String(),
		Doctors: doctors,
	})
}

func (h *RosterHandler) SetDuty(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req setDutyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	date, err := calendar.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.SetDuty(r.Context(), principal, date, req.Doctor, req.OnDuty); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type setDutyRequest struct {
	Date   string `json:"date"`
	Doctor string `json:"doctor"`
	OnDuty bool   `json:"on_duty"`
}

type rosterResponse struct {
	Date    string   `json:"date"`
	Doctors []string `json:"doctors"`
}
