package rest

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/benefits-portal/internal/allocation"
	"github.com/frahmantamala/benefits-portal/internal/appconfig"
	"github.com/frahmantamala/benefits-portal/internal/audit"
	"github.com/frahmantamala/benefits-portal/internal/auth"
	"github.com/frahmantamala/benefits-portal/internal/card"
	"github.com/frahmantamala/benefits-portal/internal/load"
	"github.com/frahmantamala/benefits-portal/internal/payment"
	"github.com/frahmantamala/benefits-portal/internal/person"
	"github.com/frahmantamala/benefits-portal/internal/ratelimit"
	"github.com/frahmantamala/benefits-portal/internal/reminder"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
	"github.com/frahmantamala/benefits-portal/internal/transport/middleware"
	"github.com/frahmantamala/benefits-portal/internal/transport/swagger"
)

// Handlers collects every feature handler the router mounts.
type Handlers struct {
	Auth        *auth.Handler
	Payments    *payment.Handler
	Reminders   *reminder.Handler
	Audit       *audit.Handler
	Config      *appconfig.Handler
	Cards       *card.Handler
	People      *person.Handler
	Allocations *allocation.Handler
	Loads       *load.Handler
}

func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	store rowstore.Store,
	backend string,
	handlers Handlers,
	limiter *ratelimit.Limiter,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db, store, backend)

	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Scheduler trigger: cron secret, not user auth.
		r.Group(func(cr chi.Router) {
			cr.Use(middleware.RateLimit(limiter, "payments-reminders", 5, time.Minute))
			cr.Post("/reminders/run", handlers.Reminders.Run)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(handlers.Auth.Middleware)

			pr.Route("/payments", func(er chi.Router) {
				er.Post("/", handlers.Payments.Create)
				er.Get("/", handlers.Payments.List)
				er.Get("/{id}", handlers.Payments.Get)
				er.Patch("/{id}", handlers.Payments.Patch)
				er.Delete("/{id}", handlers.Payments.Delete)
				er.Post("/{id}/mark-paid", handlers.Payments.MarkPaid)

				er.Group(func(ur chi.Router) {
					ur.Use(middleware.RateLimit(limiter, "payments-upload", 10, time.Minute))
					ur.Post("/{id}/upload-boleto", handlers.Payments.UploadBoleto)
				})
			})

			pr.Route("/cards", func(cr chi.Router) {
				cr.Post("/", handlers.Cards.Create)
				cr.Get("/", handlers.Cards.List)
				cr.Get("/{id}", handlers.Cards.Get)
				cr.Put("/{id}", handlers.Cards.Update)
				cr.Get("/{id}/events", handlers.Cards.Timeline)
				cr.Get("/{id}/allocations", handlers.Allocations.ListByCard)
				cr.Get("/{id}/loads", handlers.Loads.ListByCard)
				cr.Get("/{id}/balance", handlers.Loads.CardBalance)
				cr.Post("/{id}/loads", handlers.Loads.Create)

				cr.Group(func(ur chi.Router) {
					ur.Use(middleware.RateLimit(limiter, "cards-photo", 10, time.Minute))
					ur.Post("/{id}/photo", handlers.Cards.AttachPhoto)
				})

				cr.Group(func(ar chi.Router) {
					ar.Use(middleware.RateLimit(limiter, "cards-allocate", 20, time.Minute))
					ar.Post("/{id}/allocate", handlers.Allocations.Allocate)
					ar.Post("/{id}/deallocate", handlers.Allocations.Deallocate)
				})
			})

			pr.Route("/people", func(sr chi.Router) {
				sr.Post("/", handlers.People.Create)
				sr.Get("/", handlers.People.List)
				sr.Get("/{id}", handlers.People.Get)
				sr.Put("/{id}", handlers.People.Update)
			})

			pr.Get("/loads", handlers.Loads.List)

			// Admin surface.
			pr.Group(func(ar chi.Router) {
				ar.Use(handlers.Auth.RequireAdmin)
				ar.Get("/audit", handlers.Audit.List)
				ar.Get("/config", handlers.Config.Get)
				ar.Patch("/config", handlers.Config.Patch)
			})
		})
	})
}
