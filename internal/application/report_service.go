package application

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"sort"

	"github.com/example/clinic-ops/internal/calendar"
)

// DayLoader provides the authoritative day view the reports are built from.
type DayLoader interface {
	LoadDay(ctx context.Context, date calendar.Date) (DayView, error)
}

// ReportService produces read-only daily summaries and CSV exports from the
// scheduler's day view.
type ReportService struct {
	loader DayLoader
	logger *slog.Logger
}

// NewReportService constructs a report service over the given day loader.
func NewReportService(loader DayLoader) *ReportService {
	return NewReportServiceWithLogger(loader, nil)
}

// NewReportServiceWithLogger constructs a report service with a specified logger.
func NewReportServiceWithLogger(loader DayLoader, logger *slog.Logger) *ReportService {
	return &ReportService{loader: loader, logger: defaultLogger(logger)}
}

func (s *ReportService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReportService", operation, attrs...)
}

// DayReport aggregates the day's committed appointments per room and per
// doctor. Load warnings carry through so a partially loaded day is marked as
// such rather than silently undercounted.
func (s *ReportService) DayReport(ctx context.Context, principal Principal, date calendar.Date) (report DayReport, err error) {
	if s == nil {
		err = fmt.Errorf("ReportService is nil")
		return
	}
	if s.loader == nil {
		err = fmt.Errorf("day loader not configured")
		return
	}

	logger := s.loggerWith(ctx, "DayReport",
		"principal_id", principal.UserID,
		"date", date.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build day report", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("total", report.Total).InfoContext(ctx, "day report built")
	}()

	var view DayView
	view, err = s.loader.LoadDay(ctx, date)
	if err != nil {
		return
	}

	report = DayReport{
		Date:      view.Date,
		PerRoom:   make(map[string]int),
		PerDoctor: make(map[string]int),
		Warnings:  view.Warnings,
	}
	for _, roomDay := range view.Rooms {
		for _, appt := range roomDay.Appointments {
			if appt.State != StateCommitted {
				continue
			}
			report.Total++
			report.PerRoom[roomDay.Room.Name]++
			if appt.Doctor != "" {
				report.PerDoctor[appt.Doctor]++
			}
		}
	}
	return
}

// ExportDayCSV renders the day's committed appointments as CSV, one row per
// appointment ordered by room then start time.
func (s *ReportService) ExportDayCSV(ctx context.Context, principal Principal, date calendar.Date) (data []byte, err error) {
	if s == nil {
		err = fmt.Errorf("ReportService is nil")
		return
	}
	if s.loader == nil {
		err = fmt.Errorf("day loader not configured")
		return
	}

	logger := s.loggerWith(ctx, "ExportDayCSV",
		"principal_id", principal.UserID,
		"date", date.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to export day", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("bytes", len(data)).InfoContext(ctx, "day exported")
	}()

	var view DayView
	view, err = s.loader.LoadDay(ctx, date)
	if err != nil {
		return
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err = writer.Write([]string{"date", "room", "start", "end", "client", "procedure", "doctor"}); err != nil {
		return
	}

	for _, roomDay := range view.Rooms {
		appts := append([]Appointment(nil), roomDay.Appointments...)
		sort.Slice(appts, func(i, j int) bool {
			if appts[i].StartTime == appts[j].StartTime {
				return appts[i].ID < appts[j].ID
			}
			return appts[i].StartTime < appts[j].StartTime
		})
		for _, appt := range appts {
			if appt.State != StateCommitted {
				continue
			}
			row := []string{
				appt.Date.String(),
				roomDay.Room.Name,
				appt.StartTime.String(),
				appt.EndTime.String(),
				appt.ClientName,
				appt.Procedure,
				appt.Doctor,
			}
			if err = writer.Write(row); err != nil {
				return
			}
		}
	}

	writer.Flush()
	if err = writer.Error(); err != nil {
		return
	}
	data = buf.Bytes()
	return
}
