package person_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/audit"
	"github.com/frahmantamala/benefits-portal/internal/person"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

var _ = Describe("PersonService", func() {
	var (
		ctx     context.Context
		store   rowstore.CachedStore
		service *person.Service
		actor   internal.Actor
	)

	validInput := func() person.InputDTO {
		return person.InputDTO{
			Nome:           "Maria Souza",
			ChapaMatricula: "C-1001",
			Marca:          "Matriz",
			Unidade:        "Sao Paulo",
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		log := slog.New(slog.NewTextHandler(io.Discard, nil))
		store = rowstore.NewCached(rowstore.NewMemory(), rowstore.NewCache(), time.Second)
		service = person.NewService(store, audit.NewRecorder(store, log), log)
		actor = internal.Actor{Email: "rh@example.com", Role: internal.RoleUser}
	})

	Describe("Create", func() {
		It("should default the status to ATIVO", func() {
			created, err := service.Create(ctx, actor, validInput())
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).NotTo(BeEmpty())
			Expect(created.Status).To(Equal(person.StatusAtivo))
		})

		It("should require the registration fields", func() {
			_, err := service.Create(ctx, actor, person.InputDTO{Nome: "  "})
			Expect(err).To(HaveOccurred())
		})

		It("should record a PERSON CREATE audit entry", func() {
			_, err := service.Create(ctx, actor, validInput())
			Expect(err).NotTo(HaveOccurred())

			rows, err := store.GetRows(ctx, rowstore.TableAuditLog)
			Expect(err).NotTo(HaveOccurred())
			entry := audit.FromRecord(rows[0])
			Expect(entry.EntityType).To(Equal(audit.EntityPerson))
			Expect(entry.Action).To(Equal(audit.ActionCreate))
		})
	})

	Describe("Update", func() {
		It("should apply the new fields and stamp the actor", func() {
			created, err := service.Create(ctx, actor, validInput())
			Expect(err).NotTo(HaveOccurred())

			input := validInput()
			input.Unidade = "Campinas"
			input.Status = person.StatusInativo
			updated, err := service.Update(ctx, actor, created.ID, input)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Unidade).To(Equal("Campinas"))
			Expect(updated.Status).To(Equal(person.StatusInativo))
			Expect(updated.UpdatedBy).To(Equal(actor.Email))
		})

		It("should return not found for an unknown person", func() {
			_, err := service.Update(ctx, actor, "missing", validInput())
			Expect(err).To(MatchError(internal.ErrPersonNotFound))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			_, err := service.Create(ctx, actor, validInput())
			Expect(err).NotTo(HaveOccurred())

			second := validInput()
			second.Nome = "Joao Lima"
			second.ChapaMatricula = "C-1002"
			second.Unidade = "Campinas"
			_, err = service.Create(ctx, actor, second)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should search by name fragment", func() {
			page, err := service.List(ctx, person.ListFilters{Search: "joao"})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Total).To(Equal(1))
			Expect(page.Rows[0].ChapaMatricula).To(Equal("C-1002"))
		})

		It("should search by registration number", func() {
			page, err := service.List(ctx, person.ListFilters{Search: "c-1001"})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Total).To(Equal(1))
			Expect(page.Rows[0].Nome).To(Equal("Maria Souza"))
		})

		It("should filter by unit", func() {
			page, err := service.List(ctx, person.ListFilters{Unidade: "Campinas"})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Total).To(Equal(1))
		})
	})
})
