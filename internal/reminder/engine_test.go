package reminder_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/appconfig"
	"github.com/frahmantamala/benefits-portal/internal/audit"
	"github.com/frahmantamala/benefits-portal/internal/mailer"
	"github.com/frahmantamala/benefits-portal/internal/payment"
	"github.com/frahmantamala/benefits-portal/internal/reminder"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

// mockSender captures sent messages and can be told to fail.
type mockSender struct {
	sent    []mailer.Message
	sendErr error
}

func (m *mockSender) Send(_ context.Context, msg mailer.Message) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

var _ = Describe("Classify", func() {
	cfg := appconfig.Defaults()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	dueIn := func(days int) string {
		return now.AddDate(0, 0, days).Format("2006-01-02")
	}

	It("should pick D-3 three days before the due date", func() {
		reminderType, ok := reminder.Classify(dueIn(3), now, cfg)
		Expect(ok).To(BeTrue())
		Expect(reminderType).To(Equal(reminder.TypeD3))
	})

	It("should pick D-1 one day before the due date", func() {
		reminderType, ok := reminder.Classify(dueIn(1), now, cfg)
		Expect(ok).To(BeTrue())
		Expect(reminderType).To(Equal(reminder.TypeD1))
	})

	It("should pick D0 on the due date", func() {
		reminderType, ok := reminder.Classify(dueIn(0), now, cfg)
		Expect(ok).To(BeTrue())
		Expect(reminderType).To(Equal(reminder.TypeD0))
	})

	It("should pick OVERDUE after the due date", func() {
		reminderType, ok := reminder.Classify(dueIn(-2), now, cfg)
		Expect(ok).To(BeTrue())
		Expect(reminderType).To(Equal(reminder.TypeOverdue))
	})

	It("should send nothing two days before the due date", func() {
		_, ok := reminder.Classify(dueIn(2), now, cfg)
		Expect(ok).To(BeFalse())
	})

	It("should send nothing for an empty or invalid due date", func() {
		_, ok := reminder.Classify("", now, cfg)
		Expect(ok).To(BeFalse())
		_, ok = reminder.Classify("soon", now, cfg)
		Expect(ok).To(BeFalse())
	})

	Context("when toggles are off", func() {
		It("should skip the disabled type without falling through", func() {
			disabled := cfg
			disabled.ReminderD3Enabled = false
			_, ok := reminder.Classify(dueIn(3), now, disabled)
			Expect(ok).To(BeFalse())
		})

		It("should stay silent for overdue payments when disabled", func() {
			disabled := cfg
			disabled.ReminderOverdueEnabled = false
			_, ok := reminder.Classify(dueIn(-1), now, disabled)
			Expect(ok).To(BeFalse())
		})
	})

	Context("with an overdue cadence of two days", func() {
		It("should fire only on multiples of the cadence", func() {
			every2 := cfg
			every2.ReminderOverdueEveryDays = 2

			_, ok := reminder.Classify(dueIn(-4), now, every2)
			Expect(ok).To(BeTrue())

			_, ok = reminder.Classify(dueIn(-3), now, every2)
			Expect(ok).To(BeFalse())
		})
	})
})

var _ = Describe("Engine", func() {
	var (
		ctx     context.Context
		store   rowstore.CachedStore
		sender  *mockSender
		engine  *reminder.Engine
		configs *appconfig.Service
		loc     *time.Location
		log     *slog.Logger
	)

	dueIn := func(days int) string {
		return time.Now().In(loc).AddDate(0, 0, days).Format("2006-01-02")
	}

	addPayment := func(p payment.Payment) {
		Expect(store.AppendRow(ctx, rowstore.TablePayments, p.ToRecord())).To(Succeed())
	}

	ledgerRows := func() []reminder.Entry {
		rows, err := store.GetRows(ctx, rowstore.TableReminderLedger)
		Expect(err).NotTo(HaveOccurred())
		entries := make([]reminder.Entry, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, reminder.FromRecord(row))
		}
		return entries
	}

	BeforeEach(func() {
		ctx = context.Background()
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		store = rowstore.NewCached(rowstore.NewMemory(), rowstore.NewCache(), time.Second)
		sender = &mockSender{}
		recorder := audit.NewRecorder(store, log)
		configs = appconfig.NewService(store, recorder, log)
		engine = reminder.NewEngine(store, sender, recorder, configs, log, "https://portal.example.com/")
		loc = appconfig.Defaults().Location()
	})

	It("should send one reminder per due payment and record it", func() {
		addPayment(payment.Payment{
			ID:         "pay-1",
			Category:   payment.CategoryPlanoSaude,
			Provider:   payment.ProviderUnimed,
			DueDate:    dueIn(3),
			Status:     payment.StatusEmAcompanhamento,
			OwnerName:  "Maria",
			OwnerEmail: "maria@example.com",
		})

		summary, err := engine.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Total).To(Equal(1))
		Expect(summary.Results[0].Status).To(Equal(reminder.OutcomeSent))
		Expect(summary.Results[0].ReminderType).To(Equal(reminder.TypeD3))

		Expect(sender.sent).To(HaveLen(1))
		Expect(sender.sent[0].To).To(Equal([]string{"maria@example.com"}))
		Expect(sender.sent[0].Subject).To(ContainSubstring("[Beneficios] Lembrete D-3"))
		Expect(sender.sent[0].Body).To(ContainSubstring("https://portal.example.com/beneficios/pagamentos/pay-1"))

		entries := ledgerRows()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Result).To(Equal(reminder.ResultSent))
	})

	It("should skip paid payments entirely", func() {
		addPayment(payment.Payment{
			ID:         "pay-paid",
			DueDate:    dueIn(0),
			Status:     payment.StatusPago,
			OwnerEmail: "maria@example.com",
		})

		summary, err := engine.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Total).To(BeZero())
		Expect(sender.sent).To(BeEmpty())
	})

	It("should mark ownerless payments SKIPPED_NO_OWNER without a ledger row", func() {
		addPayment(payment.Payment{
			ID:      "pay-orphan",
			DueDate: dueIn(1),
			Status:  payment.StatusEmAcompanhamento,
		})

		summary, err := engine.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Results[0].Status).To(Equal(reminder.OutcomeSkippedNoOwner))
		Expect(ledgerRows()).To(BeEmpty())
	})

	It("should dedup a second run on the same day", func() {
		addPayment(payment.Payment{
			ID:         "pay-1",
			DueDate:    dueIn(0),
			Status:     payment.StatusAguardandoPagamento,
			OwnerName:  "Maria",
			OwnerEmail: "maria@example.com",
		})

		first, err := engine.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Results[0].Status).To(Equal(reminder.OutcomeSent))

		second, err := engine.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Results[0].Status).To(Equal(reminder.OutcomeSkippedAlreadySent))
		Expect(sender.sent).To(HaveLen(1))
	})

	It("should retry a failed send on the next run of the same day", func() {
		addPayment(payment.Payment{
			ID:         "pay-1",
			DueDate:    dueIn(0),
			Status:     payment.StatusAguardandoPagamento,
			OwnerName:  "Maria",
			OwnerEmail: "maria@example.com",
		})

		sender.sendErr = errors.New("provider down")
		first, err := engine.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Results[0].Status).To(Equal(reminder.OutcomeFailed))

		entries := ledgerRows()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Result).To(Equal(reminder.ResultFailed))
		Expect(entries[0].Error).To(ContainSubstring("provider down"))

		sender.sendErr = nil
		second, err := engine.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Results[0].Status).To(Equal(reminder.OutcomeSent))
	})

	It("should cc the configured team list", func() {
		_, err := configs.Patch(ctx, systemActorForTest(), appconfig.PatchDTO{
			TeamEmails: ptr("time-beneficios@example.com, gestao@example.com"),
		})
		Expect(err).NotTo(HaveOccurred())

		addPayment(payment.Payment{
			ID:         "pay-1",
			DueDate:    dueIn(0),
			Status:     payment.StatusAguardandoPagamento,
			OwnerName:  "Maria",
			OwnerEmail: "maria@example.com",
		})

		_, err = engine.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(sender.sent).To(HaveLen(1))
		Expect(sender.sent[0].Cc).To(Equal([]string{"time-beneficios@example.com", "gestao@example.com"}))
	})

	It("should record an audit RUN entry for every sent reminder", func() {
		addPayment(payment.Payment{
			ID:         "pay-1",
			DueDate:    dueIn(0),
			Status:     payment.StatusAguardandoPagamento,
			OwnerName:  "Maria",
			OwnerEmail: "maria@example.com",
		})

		_, err := engine.Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		rows, err := store.GetRows(ctx, rowstore.TableAuditLog)
		Expect(err).NotTo(HaveOccurred())

		var runEntries []audit.Entry
		for _, row := range rows {
			entry := audit.FromRecord(row)
			if entry.EntityType == audit.EntityReminderRun {
				runEntries = append(runEntries, entry)
			}
		}
		Expect(runEntries).To(HaveLen(1))
		Expect(runEntries[0].Action).To(Equal(audit.ActionRun))
		Expect(runEntries[0].ActorEmail).To(Equal("system"))
	})

	It("should stamp the last run on the global config", func() {
		_, err := engine.Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := configs.Get(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LastReminderRunAt).NotTo(BeEmpty())
	})
})

func ptr[T any](v T) *T { return &v }

func systemActorForTest() internal.Actor {
	return internal.Actor{Email: "admin@example.com", Role: internal.RoleAdmin}
}
