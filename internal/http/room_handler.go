package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/clinic-ops/internal/application"
)

type roomService interface {
	CreateRoom(ctx context.Context, principal application.Principal, input application.RoomInput) (application.Room, error)
	DeleteRoom(ctx context.Context, principal application.Principal, roomID string) error
	ListRooms(ctx context.Context, principal application.Principal) ([]application.Room, error)
}

type RoomHandler struct {
	service   roomService
	responder responder
}

func NewRoomHandler(service roomService, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	rooms, err := h.service.ListRooms(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	room, err := h.service.CreateRoom(r.Context(), principal, application.RoomInput{Name: strings.TrimSpace(req.Name)})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toRoomDTO(room))
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := RoomIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteRoom(r.Context(), principal, roomID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type roomRequest struct {
	Name string `json:"name"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type roomDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func toRoomDTO(room application.Room) roomDTO {
	dto := roomDTO{ID: room.ID, Name: room.Name}
	if !room.CreatedAt.IsZero() {
		dto.CreatedAt = room.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if !room.UpdatedAt.IsZero() {
		dto.UpdatedAt = room.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}

func toRoomDTOs(rooms []application.Room) []roomDTO {
	if len(rooms) == 0 {
		return nil
	}
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}
