package reminder_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/benefits-portal/internal/reminder"
	"github.com/frahmantamala/benefits-portal/internal/transport"
)

type stubEngine struct {
	summary reminder.Summary
	runs    int
}

func (s *stubEngine) Run(_ context.Context) (reminder.Summary, error) {
	s.runs++
	return s.summary, nil
}

var _ = Describe("ReminderHandler", func() {
	var (
		engine  *stubEngine
		handler *reminder.Handler
	)

	BeforeEach(func() {
		engine = &stubEngine{summary: reminder.Summary{Date: "2025-03-10", Results: []reminder.Outcome{}}}
		base := transport.NewBaseHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
		handler = reminder.NewHandler(engine, base, "s3cret")
	})

	It("should run with the X-Cron-Secret header", func() {
		r := httptest.NewRequest("POST", "/reminders/run", nil)
		r.Header.Set("X-Cron-Secret", "s3cret")
		w := httptest.NewRecorder()

		handler.Run(w, r)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(engine.runs).To(Equal(1))
		Expect(w.Body.String()).To(ContainSubstring(`"date":"2025-03-10"`))
	})

	It("should accept the secret as a bearer token", func() {
		r := httptest.NewRequest("POST", "/reminders/run", nil)
		r.Header.Set("Authorization", "Bearer s3cret")
		w := httptest.NewRecorder()

		handler.Run(w, r)

		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("should reject a wrong secret", func() {
		r := httptest.NewRequest("POST", "/reminders/run", nil)
		r.Header.Set("X-Cron-Secret", "wrong")
		w := httptest.NewRecorder()

		handler.Run(w, r)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(engine.runs).To(BeZero())
	})

	It("should reject every request when no secret is configured", func() {
		handler = reminder.NewHandler(engine, transport.NewBaseHandler(slog.New(slog.NewTextHandler(io.Discard, nil))), "")

		r := httptest.NewRequest("POST", "/reminders/run", nil)
		r.Header.Set("X-Cron-Secret", "")
		w := httptest.NewRecorder()

		handler.Run(w, r)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})
