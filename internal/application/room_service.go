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

// RoomRepository captures the persistence operations needed by the service.
// DeleteRoom is expected to remove the cabinet's appointment documents along
// with the cabinet itself.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
	DeleteRoom(ctx context.Context, id string) error
	ListRooms(ctx context.Context) ([]Room, error)
}

// RoomService orchestrates validation, authorization, and persistence for
// the cabinet catalog.
type RoomService struct {
	rooms       RoomRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomRepository, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, idGenerator, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom validates input and persists a new cabinet for administrators.
func (s *RoomService) CreateRoom(ctx context.Context, principal Principal, input RoomInput) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		vErr := &ValidationError{}
		vErr.add("name", "name is required")
		err = vErr
		return
	}

	room = Room{
		ID:        s.idGenerator(),
		Name:      name,
		CreatedAt: s.now(),
	}
	room.UpdatedAt = room.CreatedAt

	if s.rooms == nil {
		return
	}

	var persisted Room
	persisted, err = s.rooms.CreateRoom(ctx, room)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	room = persisted
	return
}

// DeleteRoom removes a cabinet and its appointment documents when requested
// by an administrator.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, roomID string) error {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if s.rooms == nil {
		return fmt.Errorf("room repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)

	if err := s.rooms.DeleteRoom(ctx, roomID); err != nil {
		err = mapRoomRepoError(err)
		logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "room deleted")
	return nil
}

// ListRooms returns the cabinet catalog for any authenticated user, ordered
// by name.
func (s *RoomService) ListRooms(ctx context.Context, principal Principal) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListRooms",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).InfoContext(ctx, "rooms listed")
	}()

	var raw []Room
	raw, err = s.rooms.ListRooms(ctx)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	rooms = make([]Room, len(raw))
	copy(rooms, raw)

	sort.Slice(rooms, func(i, j int) bool {
		if strings.EqualFold(rooms[i].Name, rooms[j].Name) {
			return rooms[i].ID < rooms[j].ID
		}
		return strings.ToLower(rooms[i].Name) < strings.ToLower(rooms[j].Name)
	})

	return
}

func mapRoomRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrNotFound) {
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
