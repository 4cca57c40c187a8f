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

// ClientRepository captures the persistence operations for the patient directory.
type ClientRepository interface {
	CreateClient(ctx context.Context, client Client) (Client, error)
	UpdateClient(ctx context.Context, client Client) (Client, error)
	GetClient(ctx context.Context, id string) (Client, error)
	ListClients(ctx context.Context) ([]Client, error)
}

// ClientService manages the patient directory backing appointment name lookups.
type ClientService struct {
	clients     ClientRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewClientService constructs a client service with the provided dependencies.
func NewClientService(clients ClientRepository, idGenerator func() string, now func() time.Time) *ClientService {
	return NewClientServiceWithLogger(clients, idGenerator, now, nil)
}

// NewClientServiceWithLogger constructs a client service with a specified logger.
func NewClientServiceWithLogger(clients ClientRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ClientService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ClientService{clients: clients, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *ClientService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ClientService", operation, attrs...)
}

// CreateClient validates input and persists a new patient record.
func (s *ClientService) CreateClient(ctx context.Context, principal Principal, input ClientInput) (client Client, err error) {
	if s == nil {
		err = fmt.Errorf("ClientService is nil")
		return
	}
	if s.clients == nil {
		err = fmt.Errorf("client repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateClient",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create client", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("client_id", client.ID).InfoContext(ctx, "client created")
	}()

	if vErr := validateClientInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	candidate := Client{
		ID:          s.idGenerator(),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Phone:       strings.TrimSpace(input.Phone),
		Email:       strings.TrimSpace(input.Email),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	client, err = s.clients.CreateClient(ctx, candidate)
	if err != nil {
		err = mapClientRepoError(err)
		return
	}
	return
}

// UpdateClient validates input and updates an existing patient record.
func (s *ClientService) UpdateClient(ctx context.Context, principal Principal, clientID string, input ClientInput) (client Client, err error) {
	if s == nil {
		err = fmt.Errorf("ClientService is nil")
		return
	}
	if s.clients == nil {
		err = fmt.Errorf("client repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateClient",
		"principal_id", principal.UserID,
		"client_id", clientID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update client", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("client_id", client.ID).InfoContext(ctx, "client updated")
	}()

	var existing Client
	existing, err = s.clients.GetClient(ctx, clientID)
	if err != nil {
		err = mapClientRepoError(err)
		return
	}

	if vErr := validateClientInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.DisplayName = strings.TrimSpace(input.DisplayName)
	updated.Phone = strings.TrimSpace(input.Phone)
	updated.Email = strings.TrimSpace(input.Email)
	updated.UpdatedAt = s.now()

	client, err = s.clients.UpdateClient(ctx, updated)
	if err != nil {
		err = mapClientRepoError(err)
		return
	}
	return
}

// GetClient fetches one patient record.
func (s *ClientService) GetClient(ctx context.Context, principal Principal, clientID string) (Client, error) {
	if s == nil {
		return Client{}, fmt.Errorf("ClientService is nil")
	}
	if s.clients == nil {
		return Client{}, fmt.Errorf("client repository not configured")
	}

	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return Client{}, mapClientRepoError(err)
	}
	return client, nil
}

// ListClients returns the directory ordered by display name.
func (s *ClientService) ListClients(ctx context.Context, principal Principal) (clients []Client, err error) {
	if s == nil {
		err = fmt.Errorf("ClientService is nil")
		return
	}
	if s.clients == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListClients",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list clients", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(clients)).InfoContext(ctx, "clients listed")
	}()

	var raw []Client
	raw, err = s.clients.ListClients(ctx)
	if err != nil {
		err = mapClientRepoError(err)
		return
	}

	clients = make([]Client, len(raw))
	copy(clients, raw)

	sort.Slice(clients, func(i, j int) bool {
		if strings.EqualFold(clients[i].DisplayName, clients[j].DisplayName) {
			return clients[i].ID < clients[j].ID
		}
		return strings.ToLower(clients[i].DisplayName) < strings.ToLower(clients[j].DisplayName)
	})

	return
}

func validateClientInput(input ClientInput) *ValidationError {
	vErr := &ValidationError{}

	if !isLettersOnly(input.DisplayName) {
		vErr.add("displayName", "letters and spaces only")
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" && !isDigitsOnly(phone) {
		vErr.add("phone", "digits only")
	}
	if email := strings.TrimSpace(input.Email); email != "" && !isValidEmail(email) {
		vErr.add("email", "malformed email")
	}

	return vErr
}

func mapClientRepoError(err error) error {
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
