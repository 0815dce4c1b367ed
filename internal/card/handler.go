package card

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/docstore"
	"github.com/frahmantamala/benefits-portal/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, filters ListFilters) (Page, error)
	Get(ctx context.Context, id string) (Card, error)
	Timeline(ctx context.Context, id string) ([]Event, error)
	Create(ctx context.Context, actor internal.Actor, dto InputDTO) (Card, error)
	Update(ctx context.Context, actor internal.Actor, id string, dto InputDTO) (Card, error)
	AttachPhoto(ctx context.Context, actor internal.Actor, id string, input docstore.UploadInput) (Card, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, base *transport.BaseHandler) *Handler {
	return &Handler{BaseHandler: base, Service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := ListFilters{
		Search:  query.Get("search"),
		Marca:   query.Get("marca"),
		Unidade: query.Get("unidade"),
		Status:  query.Get("status"),
		Limit:   intQuery(query.Get("limit"), 10),
		Offset:  intQuery(query.Get("offset"), 0),
	}

	page, err := h.Service.List(r.Context(), filters)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, page)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, c)
}

func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.Timeline(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, events)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("Naoo autenticado", internal.ErrCodeNotAllowed))
		return
	}

	var dto InputDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("Corpo da requisiaCaoo invaalido", internal.ErrCodeValidationFailed))
		return
	}

	created, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusCreated, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("Naoo autenticado", internal.ErrCodeNotAllowed))
		return
	}

	var dto InputDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("Corpo da requisiaCaoo invaalido", internal.ErrCodeValidationFailed))
		return
	}

	updated, err := h.Service.Update(r.Context(), actor, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, updated)
}

func (h *Handler) AttachPhoto(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("Naoo autenticado", internal.ErrCodeNotAllowed))
		return
	}

	input, appErr := transport.ReadUpload(r)
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	updated, err := h.Service.AttachPhoto(r.Context(), actor, chi.URLParam(r, "id"), input)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, updated)
}

func intQuery(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
