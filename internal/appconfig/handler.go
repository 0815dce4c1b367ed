package appconfig

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/transport"
)

type ServiceAPI interface {
	Get(ctx context.Context) (Config, error)
	Patch(ctx context.Context, actor internal.Actor, dto PatchDTO) (Config, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, base *transport.BaseHandler) *Handler {
	return &Handler{BaseHandler: base, Service: service}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Service.Get(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, cfg)
}

func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("Naoo autenticado", internal.ErrCodeNotAllowed))
		return
	}

	var dto PatchDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("Corpo da requisiaCaoo invaalido", internal.ErrCodeValidationFailed))
		return
	}

	cfg, err := h.Service.Patch(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, cfg)
}
