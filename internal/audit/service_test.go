package audit_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/audit"
	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

var _ = Describe("Recorder", func() {
	var (
		ctx      context.Context
		store    rowstore.CachedStore
		recorder *audit.Recorder
	)

	BeforeEach(func() {
		ctx = context.Background()
		log := slog.New(slog.NewTextHandler(io.Discard, nil))
		store = rowstore.NewCached(rowstore.NewMemory(), rowstore.NewCache(), time.Second)
		recorder = audit.NewRecorder(store, log)
	})

	It("should serialize the before and after snapshots", func() {
		type snapshot struct {
			Status string `json:"status"`
		}

		err := recorder.Record(ctx, audit.Change{
			EntityType: audit.EntityPayment,
			EntityID:   "pay-1",
			Action:     audit.ActionUpdate,
			Before:     snapshot{Status: "RASCUNHO"},
			After:      snapshot{Status: "EM_ACOMPANHAMENTO"},
			Actor:      internal.Actor{Email: "rh@example.com", Role: internal.RoleUser},
		})
		Expect(err).NotTo(HaveOccurred())

		rows, err := store.GetRows(ctx, rowstore.TableAuditLog)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))

		entry := audit.FromRecord(rows[0])
		Expect(entry.ID).NotTo(BeEmpty())
		Expect(entry.Before).To(MatchJSON(`{"status":"RASCUNHO"}`))
		Expect(entry.After).To(MatchJSON(`{"status":"EM_ACOMPANHAMENTO"}`))
		Expect(entry.CreatedAt).NotTo(BeEmpty())
	})

	It("should leave snapshots empty when nil", func() {
		err := recorder.Record(ctx, audit.Change{
			EntityType: audit.EntityPayment,
			EntityID:   "pay-1",
			Action:     audit.ActionCreate,
			Actor:      internal.Actor{Email: "rh@example.com"},
		})
		Expect(err).NotTo(HaveOccurred())

		rows, err := store.GetRows(ctx, rowstore.TableAuditLog)
		Expect(err).NotTo(HaveOccurred())
		entry := audit.FromRecord(rows[0])
		Expect(entry.Before).To(BeEmpty())
		Expect(entry.After).To(BeEmpty())
	})
})

var _ = Describe("AuditService", func() {
	var (
		ctx     context.Context
		store   rowstore.CachedStore
		service *audit.Service
	)

	appendEntry := func(entry audit.Entry) {
		Expect(store.AppendRow(ctx, rowstore.TableAuditLog, entry.ToRecord())).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		log := slog.New(slog.NewTextHandler(io.Discard, nil))
		store = rowstore.NewCached(rowstore.NewMemory(), rowstore.NewCache(), time.Second)
		service = audit.NewService(store, log)

		appendEntry(audit.Entry{
			ID: "a1", EntityType: audit.EntityPayment, EntityID: "pay-1",
			Action: audit.ActionCreate, ActorEmail: "rh@example.com",
			CreatedAt: "2025-01-01T10:00:00Z",
		})
		appendEntry(audit.Entry{
			ID: "a2", EntityType: audit.EntityCard, EntityID: "card-1",
			Action: audit.ActionUpdate, ActorEmail: "admin@example.com",
			CreatedAt: "2025-01-03T10:00:00Z",
		})
		appendEntry(audit.Entry{
			ID: "a3", EntityType: audit.EntityPayment, EntityID: "pay-2",
			Action: audit.ActionMarkPaid, ActorEmail: "rh@example.com",
			CreatedAt: "2025-01-02T10:00:00Z",
		})
	})

	It("should sort entries newest first", func() {
		page, err := service.List(ctx, audit.Filters{})
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Total).To(Equal(3))
		Expect(page.Entries[0].ID).To(Equal("a2"))
		Expect(page.Entries[1].ID).To(Equal("a3"))
		Expect(page.Entries[2].ID).To(Equal("a1"))
	})

	It("should put the later append first when timestamps tie", func() {
		appendEntry(audit.Entry{
			ID: "a4", EntityType: audit.EntityCard, EntityID: "card-1",
			Action: audit.ActionUpdate, ActorEmail: "rh@example.com",
			CreatedAt: "2025-01-03T10:00:00Z",
		})

		page, err := service.List(ctx, audit.Filters{})
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Entries[0].ID).To(Equal("a4"))
		Expect(page.Entries[1].ID).To(Equal("a2"))
	})

	It("should filter by entity type", func() {
		page, err := service.List(ctx, audit.Filters{EntityType: string(audit.EntityPayment)})
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Total).To(Equal(2))
	})

	It("should filter by action", func() {
		page, err := service.List(ctx, audit.Filters{Action: string(audit.ActionMarkPaid)})
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Total).To(Equal(1))
		Expect(page.Entries[0].ID).To(Equal("a3"))
	})

	It("should filter by actor substring", func() {
		page, err := service.List(ctx, audit.Filters{Actor: "admin"})
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Total).To(Equal(1))
		Expect(page.Entries[0].ActorEmail).To(Equal("admin@example.com"))
	})

	It("should bound by the date range", func() {
		page, err := service.List(ctx, audit.Filters{
			From: "2025-01-02T00:00:00Z",
			To:   "2025-01-02T23:59:59Z",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Total).To(Equal(1))
		Expect(page.Entries[0].ID).To(Equal("a3"))
	})

	It("should paginate", func() {
		page, err := service.List(ctx, audit.Filters{Limit: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Total).To(Equal(3))
		Expect(page.Entries).To(HaveLen(2))

		next, err := service.List(ctx, audit.Filters{Limit: 2, Offset: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Entries).To(HaveLen(1))
		Expect(next.Entries[0].ID).To(Equal("a1"))
	})
})
