package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/clinic-ops/internal/persistence"
)

// StockRepository captures the persistence operations for consumables.
type StockRepository interface {
	CreateItem(ctx context.Context, item StockItem) (StockItem, error)
	UpdateItem(ctx context.Context, item StockItem) (StockItem, error)
	GetItem(ctx context.Context, id string) (StockItem, error)
	ListItems(ctx context.Context) ([]StockItem, error)
	DeleteItem(ctx context.Context, id string) error
}

// StockService manages the consumables inventory. Inputs arrive as form
// strings; the name must be letters only and the quantity digits only.
type StockService struct {
	stock       StockRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewStockService constructs a stock service with the provided dependencies.
func NewStockService(stock StockRepository, idGenerator func() string, now func() time.Time) *StockService {
	return NewStockServiceWithLogger(stock, idGenerator, now, nil)
}

// NewStockServiceWithLogger constructs a stock service with a specified logger.
func NewStockServiceWithLogger(stock StockRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *StockService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &StockService{stock: stock, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *StockService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "StockService", operation, attrs...)
}

// CreateItem validates the form input and persists a new stock item.
func (s *StockService) CreateItem(ctx context.Context, principal Principal, input StockInput) (item StockItem, err error) {
	if s == nil {
		err = fmt.Errorf("StockService is nil")
		return
	}
	if s.stock == nil {
		err = fmt.Errorf("stock repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateItem",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create stock item", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("item_id", item.ID).InfoContext(ctx, "stock item created")
	}()

	var quantity int
	quantity, err = parseStockInput(input)
	if err != nil {
		return
	}

	now := s.now()
	candidate := StockItem{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(input.Name),
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}

	item, err = s.stock.CreateItem(ctx, candidate)
	if err != nil {
		err = mapStockRepoError(err)
		return
	}
	return
}

// UpdateItem validates the form input and updates an existing stock item.
func (s *StockService) UpdateItem(ctx context.Context, principal Principal, itemID string, input StockInput) (item StockItem, err error) {
	if s == nil {
		err = fmt.Errorf("StockService is nil")
		return
	}
	if s.stock == nil {
		err = fmt.Errorf("stock repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateItem",
		"principal_id", principal.UserID,
		"item_id", itemID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update stock item", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("item_id", item.ID).InfoContext(ctx, "stock item updated")
	}()

	var existing StockItem
	existing, err = s.stock.GetItem(ctx, itemID)
	if err != nil {
		err = mapStockRepoError(err)
		return
	}

	var quantity int
	quantity, err = parseStockInput(input)
	if err != nil {
		return
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Quantity = quantity
	existing.UpdatedAt = s.now()

	item, err = s.stock.UpdateItem(ctx, existing)
	if err != nil {
		err = mapStockRepoError(err)
		return
	}
	return
}

// DeleteItem removes a stock item. Administrators only.
func (s *StockService) DeleteItem(ctx context.Context, principal Principal, itemID string) error {
	if s == nil {
		return fmt.Errorf("StockService is nil")
	}
	if s.stock == nil {
		return fmt.Errorf("stock repository not configured")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteItem",
		"principal_id", principal.UserID,
		"item_id", itemID,
	)

	if err := s.stock.DeleteItem(ctx, itemID); err != nil {
		err = mapStockRepoError(err)
		logger.ErrorContext(ctx, "failed to delete stock item", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "stock item deleted")
	return nil
}

// ListItems returns the inventory ordered by name.
func (s *StockService) ListItems(ctx context.Context, principal Principal) (items []StockItem, err error) {
	if s == nil {
		err = fmt.Errorf("StockService is nil")
		return
	}
	if s.stock == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListItems",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list stock items", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(items)).InfoContext(ctx, "stock items listed")
	}()

	var raw []StockItem
	raw, err = s.stock.ListItems(ctx)
	if err != nil {
		err = mapStockRepoError(err)
		return
	}

	items = make([]StockItem, len(raw))
	copy(items, raw)

	sort.Slice(items, func(i, j int) bool {
		if strings.EqualFold(items[i].Name, items[j].Name) {
			return items[i].ID < items[j].ID
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})

	return
}

func parseStockInput(input StockInput) (int, error) {
	vErr := &ValidationError{}
	if !isLettersOnly(input.Name) {
		vErr.add("name", "letters and spaces only")
	}
	quantityStr := strings.TrimSpace(input.Quantity)
	if !isDigitsOnly(quantityStr) {
		vErr.add("quantity", "digits only")
	}
	if vErr.HasErrors() {
		return 0, vErr
	}

	quantity, err := strconv.Atoi(quantityStr)
	if err != nil {
		vErr.add("quantity", "digits only")
		return 0, vErr
	}
	return quantity, nil
}

func mapStockRepoError(err error) error {
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
