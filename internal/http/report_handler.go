package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/clinic-ops/internal/application"
	"github.com/example/clinic-ops/internal/calendar"
)

type reportService interface {
	DayReport(ctx context.Context, principal application.Principal, date calendar.Date) (application.DayReport, error)
	ExportDayCSV(ctx context.Context, principal application.Principal, date calendar.Date) ([]byte, error)
}

type ReportHandler struct {
	service   reportService
	responder responder
}

func NewReportHandler(service reportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

func (h *ReportHandler) Day(w http.ResponseWriter, r *http.Request) {
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
	report, err := h.service.DayReport(r.Context(), principal, date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDayReportDTO(report))
}

func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
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
	data, err := h.service.ExportDayCSV(r.Context(), principal, date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "schedule-"+date.String()+".csv"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		handlerLogger(r.Context(), h.responder.logger, "ReportHandler", "Export").ErrorContext(r.Context(), "failed to write export", "error", err)
	}
}

type dayReportDTO struct {
	Date      string           `json:"date"`
	Total     int              `json:"total"`
	PerRoom   map[string]int   `json:"per_room"`
	PerDoctor map[string]int   `json:"per_doctor"`
	Warnings  []loadWarningDTO `json:"warnings,omitempty"`
}

func toDayReportDTO(report application.DayReport) dayReportDTO {
	return dayReportDTO{
		Date:      report.Date.String(),
		Total:     report.Total,
		PerRoom:   report.PerRoom,
		PerDoctor: report.PerDoctor,
		Warnings:  toLoadWarningDTOs(report.Warnings),
	}
}

func toLoadWarningDTOs(warnings []application.LoadWarning) []loadWarningDTO {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]loadWarningDTO, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, loadWarningDTO{RoomID: warning.RoomID, Reason: warning.Reason})
	}
	return out
}
