package payment_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/benefits-portal/internal/payment"
)

var _ = Describe("ComputeAutoStatus", func() {
	// Fixed clock: 2025-01-15 midday UTC.
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	Context("when the due date is in the past", func() {
		It("should derive ATRASADO", func() {
			status := payment.ComputeAutoStatus("2025-01-10", payment.StatusEmAcompanhamento, now)
			Expect(status).To(Equal(payment.StatusAtrasado))
		})

		It("should accept RFC3339 due dates", func() {
			status := payment.ComputeAutoStatus("2025-01-10T00:00:00Z", payment.StatusAguardandoPagamento, now)
			Expect(status).To(Equal(payment.StatusAtrasado))
		})

		It("should keep PAGO terminal", func() {
			status := payment.ComputeAutoStatus("2025-01-10", payment.StatusPago, now)
			Expect(status).To(Equal(payment.StatusPago))
		})
	})

	Context("when the due date is today", func() {
		It("should keep the persisted status", func() {
			status := payment.ComputeAutoStatus("2025-01-15", payment.StatusAguardandoPagamento, now)
			Expect(status).To(Equal(payment.StatusAguardandoPagamento))
		})
	})

	Context("when the due date is in the future", func() {
		It("should keep the persisted status", func() {
			status := payment.ComputeAutoStatus("2025-01-20", payment.StatusEmAcompanhamento, now)
			Expect(status).To(Equal(payment.StatusEmAcompanhamento))
		})
	})

	Context("when fields are missing", func() {
		It("should default an empty status to RASCUNHO", func() {
			status := payment.ComputeAutoStatus("", "", now)
			Expect(status).To(Equal(payment.StatusRascunho))
		})

		It("should keep the status when the due date is empty", func() {
			status := payment.ComputeAutoStatus("", payment.StatusEmAcompanhamento, now)
			Expect(status).To(Equal(payment.StatusEmAcompanhamento))
		})

		It("should keep the status when the due date is unparseable", func() {
			status := payment.ComputeAutoStatus("not-a-date", payment.StatusRascunho, now)
			Expect(status).To(Equal(payment.StatusRascunho))
		})
	})
})

var _ = Describe("Transitions", func() {
	It("should allow the forward path through the lifecycle", func() {
		Expect(payment.CanTransition(payment.StatusRascunho, payment.StatusEmAcompanhamento)).To(BeTrue())
		Expect(payment.CanTransition(payment.StatusEmAcompanhamento, payment.StatusAguardandoPagamento)).To(BeTrue())
		Expect(payment.CanTransition(payment.StatusAguardandoPagamento, payment.StatusPago)).To(BeTrue())
	})

	It("should allow recovering an overdue payment", func() {
		Expect(payment.CanTransition(payment.StatusAtrasado, payment.StatusPago)).To(BeTrue())
		Expect(payment.CanTransition(payment.StatusAtrasado, payment.StatusAguardandoPagamento)).To(BeTrue())
	})

	It("should treat PAGO as terminal", func() {
		Expect(payment.CanTransition(payment.StatusPago, payment.StatusRascunho)).To(BeFalse())
		Expect(payment.CanTransition(payment.StatusPago, payment.StatusAtrasado)).To(BeFalse())
	})

	It("should reject skipping straight from RASCUNHO to PAGO", func() {
		Expect(payment.CanTransition(payment.StatusRascunho, payment.StatusPago)).To(BeFalse())
	})

	It("should return a domain error from AssertTransition", func() {
		err := payment.AssertTransition(payment.StatusPago, payment.StatusRascunho)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("Transicao invalida"))
	})
})

var _ = Describe("Record mapping", func() {
	It("should round-trip a payment through a record", func() {
		p := payment.Payment{
			ID:           "pay-1",
			Category:     payment.CategoryPlanoSaude,
			Brand:        "Matriz",
			Provider:     payment.ProviderUnimed,
			Subtype:      "Saude",
			Competence:   "2025-01",
			TicketNumber: "BEN-0042",
			DueDate:      "2025-01-20",
			Amount:       1520.4,
			Status:       payment.StatusEmAcompanhamento,
			OwnerName:    "Maria",
			OwnerEmail:   "maria@example.com",
		}
		Expect(payment.FromRecord(p.ToRecord())).To(Equal(p))
	})

	It("should keep a zero amount empty in the record", func() {
		p := payment.Payment{ID: "pay-2", Status: payment.StatusRascunho}
		Expect(p.ToRecord()["amount"]).To(Equal(""))
	})
})
