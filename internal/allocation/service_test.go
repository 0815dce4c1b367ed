package allocation_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/allocation"
	"github.com/frahmantamala/benefits-portal/internal/audit"
	"github.com/frahmantamala/benefits-portal/internal/card"
	"github.com/frahmantamala/benefits-portal/internal/docstore"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

var _ = Describe("AllocationService", func() {
	var (
		ctx     context.Context
		store   rowstore.CachedStore
		cards   *card.Service
		service *allocation.Service
		actor   internal.Actor
		cardID  string
	)

	BeforeEach(func() {
		ctx = context.Background()
		log := slog.New(slog.NewTextHandler(io.Discard, nil))
		store = rowstore.NewCached(rowstore.NewMemory(), rowstore.NewCache(), time.Second)
		recorder := audit.NewRecorder(store, log)
		events := card.NewEventLog(store)
		cards = card.NewService(store, docstore.NewDev(log), events, recorder, log)
		service = allocation.NewService(store, cards, events, recorder, log)
		actor = internal.Actor{Email: "rh@example.com", Role: internal.RoleUser}

		created, err := cards.Create(ctx, actor, card.InputDTO{
			NumeroCartao: "5078 6000 0000 0001",
			Marca:        "Matriz",
			Unidade:      "Sao Paulo",
		})
		Expect(err).NotTo(HaveOccurred())
		cardID = created.ID
	})

	allocate := func() allocation.Result {
		result, err := service.Allocate(ctx, actor, cardID, allocation.AllocateDTO{
			PersonID:   "person-1",
			DataInicio: "2025-02-01",
		})
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	Describe("Allocate", func() {
		It("should open an ATIVA allocation and flip the card to ALOCADO", func() {
			result := allocate()
			Expect(result.Allocation.Status).To(Equal(allocation.StatusAtiva))
			Expect(result.Card.Status).To(Equal(card.StatusAlocado))

			got, err := cards.Get(ctx, cardID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(card.StatusAlocado))
		})

		It("should reject a second active allocation for the same card", func() {
			allocate()

			_, err := service.Allocate(ctx, actor, cardID, allocation.AllocateDTO{
				PersonID:   "person-2",
				DataInicio: "2025-02-02",
			})
			Expect(err).To(MatchError(internal.ErrActiveAllocation))

			allocations, err := service.ListByCard(ctx, cardID)
			Expect(err).NotTo(HaveOccurred())
			Expect(allocations).To(HaveLen(1))
		})

		It("should require the person and start date", func() {
			_, err := service.Allocate(ctx, actor, cardID, allocation.AllocateDTO{})
			Expect(err).To(HaveOccurred())
		})

		It("should return not found for an unknown card", func() {
			_, err := service.Allocate(ctx, actor, "missing", allocation.AllocateDTO{
				PersonID:   "person-1",
				DataInicio: "2025-02-01",
			})
			Expect(err).To(MatchError(internal.ErrCardNotFound))
		})

		It("should record ALLOCATED on the card timeline", func() {
			allocate()

			timeline, err := cards.Timeline(ctx, cardID)
			Expect(err).NotTo(HaveOccurred())
			Expect(timeline[0].Type).To(Equal(card.EventAllocated))
		})
	})

	Describe("Deallocate", func() {
		It("should close the active allocation and return the card to ESTOQUE", func() {
			opened := allocate()

			result, err := service.Deallocate(ctx, actor, cardID, allocation.DeallocateDTO{
				DataFim: "2025-03-01",
				Motivo:  "desligamento",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Allocation.ID).To(Equal(opened.Allocation.ID))
			Expect(result.Allocation.Status).To(Equal(allocation.StatusEncerrada))
			Expect(result.Allocation.DataFim).To(Equal("2025-03-01"))
			Expect(result.Card.Status).To(Equal(card.StatusEstoque))
		})

		It("should fail when there is no active allocation", func() {
			_, err := service.Deallocate(ctx, actor, cardID, allocation.DeallocateDTO{DataFim: "2025-03-01"})
			Expect(err).To(MatchError(internal.ErrAllocationNotActive))
		})

		It("should allow allocating again after closing", func() {
			allocate()

			_, err := service.Deallocate(ctx, actor, cardID, allocation.DeallocateDTO{DataFim: "2025-03-01"})
			Expect(err).NotTo(HaveOccurred())

			result, err := service.Allocate(ctx, actor, cardID, allocation.AllocateDTO{
				PersonID:   "person-2",
				DataInicio: "2025-03-02",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Allocation.PersonID).To(Equal("person-2"))

			allocations, err := service.ListByCard(ctx, cardID)
			Expect(err).NotTo(HaveOccurred())
			Expect(allocations).To(HaveLen(2))
		})
	})

	It("should record audit entries for both the allocation and the card", func() {
		allocate()

		rows, err := store.GetRows(ctx, rowstore.TableAuditLog)
		Expect(err).NotTo(HaveOccurred())

		var types []audit.EntityType
		for _, row := range rows {
			types = append(types, audit.FromRecord(row).EntityType)
		}
		Expect(types).To(ContainElement(audit.EntityAllocation))
		Expect(types).To(ContainElement(audit.EntityCard))
	})
})
