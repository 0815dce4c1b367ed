package payment

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/docstore"
	"github.com/frahmantamala/benefits-portal/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor internal.Actor, dto CreateDTO) (Payment, error)
	Get(ctx context.Context, id string) (Payment, error)
	List(ctx context.Context, filters ListFilters) ([]Payment, error)
	Patch(ctx context.Context, actor internal.Actor, id string, dto PatchDTO) (Payment, error)
	MarkPaid(ctx context.Context, actor internal.Actor, id string) (Payment, error)
	UploadBoleto(ctx context.Context, actor internal.Actor, id string, input docstore.UploadInput) (Payment, error)
	Delete(ctx context.Context, actor internal.Actor, id string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, base *transport.BaseHandler) *Handler {
	return &Handler{BaseHandler: base, Service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("Naoo autenticado", internal.ErrCodeNotAllowed))
		return
	}

	var dto CreateDTO
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

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, p)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := ListFilters{
		Status:     query.Get("status"),
		Category:   query.Get("category"),
		Provider:   query.Get("provider"),
		Competence: query.Get("competence"),
		Owner:      query.Get("owner"),
		Query:      query.Get("q"),
	}

	payments, err := h.Service.List(r.Context(), filters)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, payments)
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

	updated, err := h.Service.Patch(r.Context(), actor, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, updated)
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("Naoo autenticado", internal.ErrCodeNotAllowed))
		return
	}

	updated, err := h.Service.MarkPaid(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, updated)
}

func (h *Handler) UploadBoleto(w http.ResponseWriter, r *http.Request) {
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

	updated, err := h.Service.UploadBoleto(r.Context(), actor, chi.URLParam(r, "id"), input)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("Naoo autenticado", internal.ErrCodeNotAllowed))
		return
	}

	if err := h.Service.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
