package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/clinic-ops/internal/application"
)

type stockService interface {
	CreateItem(ctx context.Context, principal application.Principal, input application.StockInput) (application.StockItem, error)
	UpdateItem(ctx context.Context, principal application.Principal, itemID string, input application.StockInput) (application.StockItem, error)
	DeleteItem(ctx context.Context, principal application.Principal, itemID string) error
	ListItems(ctx context.Context, principal application.Principal) ([]application.StockItem, error)
}

type StockHandler struct {
	service   stockService
	responder responder
}

func NewStockHandler(service stockService, logger *slog.Logger) *StockHandler {
	return &StockHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	items, err := h.service.ListItems(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listStockResponse{Items: toStockDTOs(items)})
}

func (h *StockHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	item, err := h.service.CreateItem(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toStockDTO(item))
}

func (h *StockHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	itemID, ok := ItemIDFromContext(r.Context())
	if !ok || strings.TrimSpace(itemID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidItemID)
		return
	}

	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	item, err := h.service.UpdateItem(r.Context(), principal, itemID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toStockDTO(item))
}

func (h *StockHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	itemID, ok := ItemIDFromContext(r.Context())
	if !ok || strings.TrimSpace(itemID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidItemID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteItem(r.Context(), principal, itemID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type stockRequest struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

func (r stockRequest) toInput() application.StockInput {
	return application.StockInput{
		Name:     strings.TrimSpace(r.Name),
		Quantity: strings.TrimSpace(r.Quantity),
	}
}

type listStockResponse struct {
	Items []stockDTO `json:"items"`
}

type stockDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

func toStockDTO(item application.StockItem) stockDTO {
	return stockDTO{ID: item.ID, Name: item.Name, Quantity: item.Quantity}
}

func toStockDTOs(items []application.StockItem) []stockDTO {
	if len(items) == 0 {
		return nil
	}
	out := make([]stockDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toStockDTO(item))
	}
	return out
}
