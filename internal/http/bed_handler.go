package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/clinic-ops/internal/application"
)

type bedService interface {
	CreateBed(ctx context.Context, principal application.Principal, input application.BedInput) (application.Bed, error)
	AssignBed(ctx context.Context, principal application.Principal, bedID, clientID string) (application.Bed, error)
	ReleaseBed(ctx context.Context, principal application.Principal, bedID string) (application.Bed, error)
	ListBeds(ctx context.Context, principal application.Principal) ([]application.Bed, error)
}

type BedHandler struct {
	service   bedService
	responder responder
}

func NewBedHandler(service bedService, logger *slog.Logger) *BedHandler {
	return &BedHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

func (h *BedHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	beds, err := h.service.ListBeds(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBedsResponse{Beds: toBedDTOs(beds)})
}

func (h *BedHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req bedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	bed, err := h.service.CreateBed(r.Context(), principal, application.BedInput{
		Ward:  strings.TrimSpace(req.Ward),
		Label: strings.TrimSpace(req.Label),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toBedDTO(bed))
}

func (h *BedHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bedID, ok := BedIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bedID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBedID)
		return
	}

	var req assignBedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if strings.TrimSpace(req.ClientID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidClientID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	bed, err := h.service.AssignBed(r.Context(), principal, bedID, strings.TrimSpace(req.ClientID))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBedDTO(bed))
}

func (h *BedHandler) Release(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bedID, ok := BedIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bedID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBedID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	bed, err := h.service.ReleaseBed(r.Context(), principal, bedID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBedDTO(bed))
}

type bedRequest struct {
	Ward  string `json:"ward"`
	Label string `json:"label"`
}

type assignBedRequest struct {
	ClientID string `json:"client_id"`
}

type listBedsResponse struct {
	Beds []bedDTO `json:"beds"`
}

type bedDTO struct {
	ID       string `json:"id"`
	Ward     string `json:"ward"`
	Label    string `json:"label"`
	ClientID string `json:"client_id,omitempty"`
	Occupied bool   `json:"occupied"`
}

func toBedDTO(bed application.Bed) bedDTO {
	return bedDTO{
		ID:       bed.ID,
		Ward:     bed.Ward,
		Label:    bed.Label,
		ClientID: bed.ClientID,
		Occupied: bed.Occupied,
	}
}

func toBedDTOs(beds []application.Bed) []bedDTO {
	if len(beds) == 0 {
		return nil
	}
	out := make([]bedDTO, 0, len(beds))
	for _, bed := range beds {
		out = append(out, toBedDTO(bed))
	}
	return out
}
