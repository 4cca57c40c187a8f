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

type clientService interface {
	CreateClient(ctx context.Context, principal application.Principal, input application.ClientInput) (application.Client, error)
	UpdateClient(ctx context.Context, principal application.Principal, clientID string, input application.ClientInput) (application.Client, error)
	GetClient(ctx context.Context, principal application.Principal, clientID string) (application.Client, error)
	ListClients(ctx context.Context, principal application.Principal) ([]application.Client, error)
}

type ClientHandler struct {
	service   clientService
	responder responder
}

func NewClientHandler(service clientService, logger *slog.Logger) *ClientHandler {
	return &ClientHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	clients, err := h.service.ListClients(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listClientsResponse{Clients: toClientDTOs(clients)})
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	client, err := h.service.CreateClient(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toClientDTO(client))
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	clientID, ok := ClientIDFromContext(r.Context())
	if !ok || strings.TrimSpace(clientID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidClientID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	client, err := h.service.GetClient(r.Context(), principal, clientID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toClientDTO(client))
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	clientID, ok := ClientIDFromContext(r.Context())
	if !ok || strings.TrimSpace(clientID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidClientID)
		return
	}

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	client, err := h.service.UpdateClient(r.Context(), principal, clientID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toClientDTO(client))
}

type clientRequest struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

func (r clientRequest) toInput() application.ClientInput {
	return application.ClientInput{
		DisplayName: strings.TrimSpace(r.DisplayName),
		Phone:       strings.TrimSpace(r.Phone),
		Email:       strings.TrimSpace(r.Email),
	}
}

type listClientsResponse struct {
	Clients []clientDTO `json:"clients"`
}

type clientDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

func toClientDTO(client application.Client) clientDTO {
	dto := clientDTO{
		ID:          client.ID,
		DisplayName: client.DisplayName,
		Phone:       client.Phone,
		Email:       client.Email,
	}
	if !client.CreatedAt.IsZero() {
		dto.CreatedAt = client.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if !client.UpdatedAt.IsZero() {
		dto.UpdatedAt = client.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}

func toClientDTOs(clients []application.Client) []clientDTO {
	if len(clients) == 0 {
		return nil
	}
	out := make([]clientDTO, 0, len(clients))
	for _, client := range clients {
		out = append(out, toClientDTO(client))
	}
	return out
}
