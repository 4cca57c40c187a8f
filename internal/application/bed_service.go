package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/clinic-ops/internal/persistence"
)

// BedRepository captures the persistence operations for ward beds.
type BedRepository interface {
	CreateBed(ctx context.Context, bed Bed) (Bed, error)
	UpdateBed(ctx context.Context, bed Bed) (Bed, error)
	GetBed(ctx context.Context, id string) (Bed, error)
	ListBeds(ctx context.Context) ([]Bed, error)
}

// BedService manages ward beds and their occupancy.
type BedService struct {
	beds        BedRepository
	clients     ClientRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBedService constructs a bed service with the provided dependencies.
func NewBedService(beds BedRepository, clients ClientRepository, idGenerator func() string, now func() time.Time) *BedService {
	return NewBedServiceWithLogger(beds, clients, idGenerator, now, nil)
}

// NewBedServiceWithLogger constructs a bed service with a specified logger.
func NewBedServiceWithLogger(beds BedRepository, clients ClientRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BedService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BedService{beds: beds, clients: clients, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *BedService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BedService", operation, attrs...)
}

// CreateBed registers a new ward bed for administrators.
func (s *BedService) CreateBed(ctx context.Context, principal Principal, input BedInput) (bed Bed, err error) {
	if s == nil {
		err = fmt.Errorf("BedService is nil")
		return
	}
	if s.beds == nil {
		err = fmt.Errorf("bed repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateBed",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create bed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("bed_id", bed.ID).InfoContext(ctx, "bed created")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(input.Ward) == "" {
		vErr.add("ward", "ward is required")
	}
	if strings.TrimSpace(input.Label) == "" {
		vErr.add("label", "label is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	candidate := Bed{
		ID:        s.idGenerator(),
		Ward:      strings.TrimSpace(input.Ward),
		Label:     strings.TrimSpace(input.Label),
		CreatedAt: now,
		UpdatedAt: now,
	}

	bed, err = s.beds.CreateBed(ctx, candidate)
	if err != nil {
		err = mapBedRepoError(err)
		return
	}
	return
}

// AssignBed places a patient into the bed. The occupant must exist in the
// directory and the bed must be free.
func (s *BedService) AssignBed(ctx context.Context, principal Principal, bedID, clientID string) (bed Bed, err error) {
	if s == nil {
		err = fmt.Errorf("BedService is nil")
		return
	}
	if s.beds == nil {
		err = fmt.Errorf("bed repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "AssignBed",
		"principal_id", principal.UserID,
		"bed_id", bedID,
		"client_id", clientID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to assign bed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "bed assigned")
	}()

	var existing Bed
	existing, err = s.beds.GetBed(ctx, bedID)
	if err != nil {
		err = mapBedRepoError(err)
		return
	}
	if existing.Occupied {
		vErr := &ValidationError{}
		vErr.add("bed", "bed is already occupied")
		err = vErr
		return
	}

	if s.clients != nil {
		if _, clientErr := s.clients.GetClient(ctx, clientID); clientErr != nil {
			err = mapClientRepoError(clientErr)
			return
		}
	}

	existing.ClientID = clientID
	existing.Occupied = true
	existing.UpdatedAt = s.now()

	bed, err = s.beds.UpdateBed(ctx, existing)
	if err != nil {
		err = mapBedRepoError(err)
		return
	}
	return
}

// ReleaseBed frees the bed, clearing its occupant.
func (s *BedService) ReleaseBed(ctx context.Context, principal Principal, bedID string) (bed Bed, err error) {
	if s == nil {
		err = fmt.Errorf("BedService is nil")
		return
	}
	if s.beds == nil {
		err = fmt.Errorf("bed repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ReleaseBed",
		"principal_id", principal.UserID,
		"bed_id", bedID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to release bed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "bed released")
	}()

	var existing Bed
	existing, err = s.beds.GetBed(ctx, bedID)
	if err != nil {
		err = mapBedRepoError(err)
		return
	}

	existing.ClientID = ""
	existing.Occupied = false
	existing.UpdatedAt = s.now()

	bed, err = s.beds.UpdateBed(ctx, existing)
	if err != nil {
		err = mapBedRepoError(err)
		return
	}
	return
}

// ListBeds returns all beds grouped by ward then label.
func (s *BedService) ListBeds(ctx context.Context, principal Principal) (beds []Bed, err error) {
	if s == nil {
		err = fmt.Errorf("BedService is nil")
		return
	}
	if s.beds == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListBeds",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list beds", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(beds)).InfoContext(ctx, "beds listed")
	}()

	var raw []Bed
	raw, err = s.beds.ListBeds(ctx)
	if err != nil {
		err = mapBedRepoError(err)
		return
	}

	beds = make([]Bed, len(raw))
	copy(beds, raw)

	sort.Slice(beds, func(i, j int) bool {
		if beds[i].Ward == beds[j].Ward {
			return beds[i].Label < beds[j].Label
		}
		return beds[i].Ward < beds[j].Ward
	})

	return
}

func mapBedRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrUnavailable) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
