package allocation

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/transport"
)

type ServiceAPI interface {
	Allocate(ctx context.Context, actor internal.Actor, cardID string, dto AllocateDTO) (Result, error)
	Deallocate(ctx context.Context, actor internal.Actor, cardID string, dto DeallocateDTO) (Result, error)
	ListByCard(ctx context.Context, cardID string) ([]Allocation, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, base *transport.BaseHandler) *Handler {
	return &Handler{BaseHandler: base, Service: service}
}

func (h *Handler) Allocate(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("Naoo autenticado", internal.ErrCodeNotAllowed))
		return
	}

	var dto AllocateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("Corpo da requisiaCaoo invaalido", internal.ErrCodeValidationFailed))
		return
	}

	result, err := h.Service.Allocate(r.Context(), actor, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, result)
}

func (h *Handler) Deallocate(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("Naoo autenticado", internal.ErrCodeNotAllowed))
		return
	}

	var dto DeallocateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("Corpo da requisiaCaoo invaalido", internal.ErrCodeValidationFailed))
		return
	}

	result, err := h.Service.Deallocate(r.Context(), actor, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, result)
}

func (h *Handler) ListByCard(w http.ResponseWriter, r *http.Request) {
	allocations, err := h.Service.ListByCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, allocations)
}
