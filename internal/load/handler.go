package load

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor internal.Actor, cardID string, dto CreateDTO) (Load, error)
	List(ctx context.Context, filters ListFilters) (Page, error)
	ListByCard(ctx context.Context, cardID string) ([]Load, error)
	CardBalance(ctx context.Context, cardID string) (float64, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, base *transport.BaseHandler) *Handler {
	return &Handler{BaseHandler: base, Service: service}
}

// Create accepts a multipart form: data_carga, valor_carga, observacoes and
// the comprovante under "file".
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("Naoo autenticado", internal.ErrCodeNotAllowed))
		return
	}

	receipt, appErr := transport.ReadUpload(r)
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	dto := CreateDTO{
		DataCarga:   r.FormValue("data_carga"),
		ValorCarga:  ParseAmount(r.FormValue("valor_carga")),
		Observacoes: r.FormValue("observacoes"),
		Receipt:     receipt,
	}

	created, err := h.Service.Create(r.Context(), actor, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusCreated, created)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := ListFilters{
		From:         query.Get("from"),
		To:           query.Get("to"),
		NumeroCartao: query.Get("numero_cartao"),
		Marca:        query.Get("marca"),
		Unidade:      query.Get("unidade"),
		Limit:        intQuery(query.Get("limit"), 10),
		Offset:       intQuery(query.Get("offset"), 0),
	}

	page, err := h.Service.List(r.Context(), filters)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, page)
}

func (h *Handler) ListByCard(w http.ResponseWriter, r *http.Request) {
	loads, err := h.Service.ListByCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, loads)
}

func (h *Handler) CardBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.Service.CardBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, map[string]float64{"balance": balance})
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
