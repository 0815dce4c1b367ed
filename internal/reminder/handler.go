package reminder

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/transport"
)

type EngineAPI interface {
	Run(ctx context.Context) (Summary, error)
}

// Handler exposes the batch trigger. The route is for the external scheduler,
// authenticated with the shared cron secret instead of a user token.
type Handler struct {
	*transport.BaseHandler
	Engine     EngineAPI
	CronSecret string
}

func NewHandler(engine EngineAPI, base *transport.BaseHandler, cronSecret string) *Handler {
	return &Handler{BaseHandler: base, Engine: engine, CronSecret: cronSecret}
}

func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	provided := r.Header.Get("X-Cron-Secret")
	if provided == "" {
		provided = h.ExtractTokenFromHeader(r)
	}

	if h.CronSecret == "" ||
		subtle.ConstantTimeCompare([]byte(provided), []byte(h.CronSecret)) != 1 {
		h.WriteAppError(w, internal.ErrUnauthorized)
		return
	}

	summary, err := h.Engine.Run(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, http.StatusOK, summary)
}
