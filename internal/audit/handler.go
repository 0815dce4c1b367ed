package audit

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/benefits-portal/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, filters Filters) (Page, error)
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

	filters := Filters{
		EntityType: query.Get("entity_type"),
		Action:     query.Get("action"),
		Actor:      query.Get("actor"),
		From:       query.Get("from"),
		To:         query.Get("to"),
		Limit:      20,
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			filters.Limit = l
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filters.Offset = o
		}
	}

	page, err := h.Service.List(r.Context(), filters)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteData(w, http.StatusOK, page)
}
