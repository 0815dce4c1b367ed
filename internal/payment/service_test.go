package payment_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/audit"
	"github.com/frahmantamala/benefits-portal/internal/docstore"
	"github.com/frahmantamala/benefits-portal/internal/payment"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

func validCreateDTO() payment.CreateDTO {
	return payment.CreateDTO{
		Category:       payment.CategoryPlanoSaude,
		Brand:          "Matriz",
		Provider:       payment.ProviderUnimed,
		Subtype:        "Saude",
		Competence:     "2025-01",
		TicketNumber:   "BEN-0042",
		TicketSentDate: "2025-01-02",
		DueDate:        time.Now().AddDate(0, 0, 10).Format("2006-01-02"),
		Amount:         100.5,
		OwnerName:      "Maria Souza",
		OwnerEmail:     "maria@example.com",
	}
}

var _ = Describe("PaymentService", func() {
	var (
		ctx      context.Context
		store    rowstore.CachedStore
		service  *payment.Service
		enforced *payment.Service
		actor    internal.Actor
		log      *slog.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		store = rowstore.NewCached(rowstore.NewMemory(), rowstore.NewCache(), time.Second)
		recorder := audit.NewRecorder(store, log)
		docs := docstore.NewDev(log)
		service = payment.NewService(store, docs, recorder, log, time.UTC, false)
		enforced = payment.NewService(store, docs, recorder, log, time.UTC, true)
		actor = internal.Actor{Email: "rh@example.com", Role: internal.RoleUser}
	})

	Describe("Create", func() {
		It("should default the status to RASCUNHO", func() {
			dto := validCreateDTO()
			created, err := service.Create(ctx, actor, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).NotTo(BeEmpty())
			Expect(created.Status).To(Equal(payment.StatusRascunho))
		})

		It("should stamp paid fields when created as PAGO", func() {
			dto := validCreateDTO()
			dto.Status = payment.StatusPago
			created, err := service.Create(ctx, actor, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(created.PaidAt).NotTo(BeEmpty())
			Expect(created.PaidBy).To(Equal(actor.Email))
		})

		It("should record a CREATE audit entry", func() {
			_, err := service.Create(ctx, actor, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			rows, err := store.GetRows(ctx, rowstore.TableAuditLog)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			entry := audit.FromRecord(rows[0])
			Expect(entry.EntityType).To(Equal(audit.EntityPayment))
			Expect(entry.Action).To(Equal(audit.ActionCreate))
			Expect(entry.Before).To(BeEmpty())
			Expect(entry.ActorEmail).To(Equal(actor.Email))
		})

		It("should require provider_custom when provider is Outro", func() {
			dto := validCreateDTO()
			dto.Provider = payment.ProviderOutro
			_, err := service.Create(ctx, actor, dto)
			Expect(err).To(HaveOccurred())

			dto.ProviderCustom = "Porto Seguro"
			_, err = service.Create(ctx, actor, dto)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject a malformed competence", func() {
			dto := validCreateDTO()
			dto.Competence = "01/2025"
			_, err := service.Create(ctx, actor, dto)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Get", func() {
		It("should derive ATRASADO for an overdue unpaid payment", func() {
			dto := validCreateDTO()
			dto.DueDate = time.Now().AddDate(0, 0, -5).Format("2006-01-02")
			dto.Status = payment.StatusEmAcompanhamento
			created, err := service.Create(ctx, actor, dto)
			Expect(err).NotTo(HaveOccurred())

			got, err := service.Get(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(payment.StatusAtrasado))
		})

		It("should return not found for an unknown id", func() {
			_, err := service.Get(ctx, "missing")
			Expect(err).To(MatchError(internal.ErrPaymentNotFound))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			first := validCreateDTO()
			first.TicketNumber = "BEN-0001"
			_, err := service.Create(ctx, actor, first)
			Expect(err).NotTo(HaveOccurred())

			second := validCreateDTO()
			second.Category = payment.CategoryVT
			second.Provider = payment.ProviderAmil
			second.TicketNumber = "BEN-0002"
			second.OwnerName = "Joao Lima"
			second.OwnerEmail = "joao@example.com"
			_, err = service.Create(ctx, actor, second)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should filter by category", func() {
			payments, err := service.List(ctx, payment.ListFilters{Category: payment.CategoryVT})
			Expect(err).NotTo(HaveOccurred())
			Expect(payments).To(HaveLen(1))
			Expect(payments[0].TicketNumber).To(Equal("BEN-0002"))
		})

		It("should match the free-text query against the ticket number", func() {
			payments, err := service.List(ctx, payment.ListFilters{Query: "ben-0001"})
			Expect(err).NotTo(HaveOccurred())
			Expect(payments).To(HaveLen(1))
		})

		It("should match the owner filter against name and email", func() {
			payments, err := service.List(ctx, payment.ListFilters{Owner: "joao"})
			Expect(err).NotTo(HaveOccurred())
			Expect(payments).To(HaveLen(1))
			Expect(payments[0].OwnerEmail).To(Equal("joao@example.com"))
		})
	})

	Describe("Patch", func() {
		It("should apply partial updates and record before and after", func() {
			created, err := service.Create(ctx, actor, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			notes := "aguardando nota fiscal"
			updated, err := service.Patch(ctx, actor, created.ID, payment.PatchDTO{Notes: &notes})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Notes).To(Equal(notes))
			Expect(updated.TicketNumber).To(Equal(created.TicketNumber))
		})

		It("should allow any status change when enforcement is off", func() {
			created, err := service.Create(ctx, actor, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			paid := payment.StatusPago
			updated, err := service.Patch(ctx, actor, created.ID, payment.PatchDTO{Status: &paid})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(payment.StatusPago))
			Expect(updated.PaidAt).NotTo(BeEmpty())
		})

		It("should reject an invalid transition when enforcement is on", func() {
			created, err := enforced.Create(ctx, actor, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			paid := payment.StatusPago
			_, err = enforced.Patch(ctx, actor, created.ID, payment.PatchDTO{Status: &paid})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("Transicao invalida"))
		})
	})

	Describe("MarkPaid", func() {
		It("should set PAGO with paid stamps and audit MARK_PAID", func() {
			created, err := service.Create(ctx, actor, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.MarkPaid(ctx, actor, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(payment.StatusPago))
			Expect(updated.PaidBy).To(Equal(actor.Email))

			rows, err := store.GetRows(ctx, rowstore.TableAuditLog)
			Expect(err).NotTo(HaveOccurred())
			last := audit.FromRecord(rows[len(rows)-1])
			Expect(last.Action).To(Equal(audit.ActionMarkPaid))
		})
	})

	Describe("UploadBoleto", func() {
		It("should stamp the stored file on the payment", func() {
			created, err := service.Create(ctx, actor, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.UploadBoleto(ctx, actor, created.ID, docstore.UploadInput{
				Bytes:    []byte("boleto"),
				Filename: "boleto.pdf",
				MimeType: "application/pdf",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.DriveFileID).NotTo(BeEmpty())
			Expect(updated.DriveLink).NotTo(BeEmpty())
			Expect(updated.DriveFilename).To(Equal("boleto.pdf"))
		})

		It("should blank the file id in the audit snapshots", func() {
			created, err := service.Create(ctx, actor, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.UploadBoleto(ctx, actor, created.ID, docstore.UploadInput{
				Bytes:    []byte("boleto"),
				Filename: "boleto.pdf",
			})
			Expect(err).NotTo(HaveOccurred())

			rows, err := store.GetRows(ctx, rowstore.TableAuditLog)
			Expect(err).NotTo(HaveOccurred())
			last := audit.FromRecord(rows[len(rows)-1])
			Expect(last.Action).To(Equal(audit.ActionUpload))
			Expect(last.After).NotTo(ContainSubstring("drive_file_id"))
		})

		It("should reject an empty file", func() {
			created, err := service.Create(ctx, actor, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.UploadBoleto(ctx, actor, created.ID, docstore.UploadInput{})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		It("should remove the row and audit with the before snapshot only", func() {
			created, err := service.Create(ctx, actor, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Delete(ctx, actor, created.ID)).To(Succeed())

			_, err = service.Get(ctx, created.ID)
			Expect(err).To(MatchError(internal.ErrPaymentNotFound))

			rows, err := store.GetRows(ctx, rowstore.TableAuditLog)
			Expect(err).NotTo(HaveOccurred())
			last := audit.FromRecord(rows[len(rows)-1])
			Expect(last.Action).To(Equal(audit.ActionDelete))
			Expect(last.Before).NotTo(BeEmpty())
			Expect(last.After).To(BeEmpty())
		})
	})
})
