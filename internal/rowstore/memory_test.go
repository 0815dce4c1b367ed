package rowstore_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/benefits-portal/internal/rowstore"
)

var _ = Describe("Memory", func() {
	var (
		ctx   context.Context
		store *rowstore.Memory
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = rowstore.NewMemory()
	})

	It("should keep append order", func() {
		Expect(store.AppendRow(ctx, "t", rowstore.Record{"id": "1"})).To(Succeed())
		Expect(store.AppendRow(ctx, "t", rowstore.Record{"id": "2"})).To(Succeed())

		rows, err := store.GetRows(ctx, "t")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0].Get("id")).To(Equal("1"))
		Expect(rows[1].Get("id")).To(Equal("2"))
	})

	It("should return clones so callers cannot mutate stored rows", func() {
		Expect(store.AppendRow(ctx, "t", rowstore.Record{"id": "1", "name": "a"})).To(Succeed())

		rows, err := store.GetRows(ctx, "t")
		Expect(err).NotTo(HaveOccurred())
		rows[0]["name"] = "mutated"

		again, err := store.GetRows(ctx, "t")
		Expect(err).NotTo(HaveOccurred())
		Expect(again[0].Get("name")).To(Equal("a"))
	})

	It("should patch only the given columns on update", func() {
		Expect(store.AppendRow(ctx, "t", rowstore.Record{"id": "1", "a": "x", "b": "y"})).To(Succeed())
		Expect(store.UpdateRowByID(ctx, "t", "id", "1", rowstore.Record{"b": "z"})).To(Succeed())

		row, err := store.FindByID(ctx, "t", "id", "1")
		Expect(err).NotTo(HaveOccurred())
		Expect(row.Get("a")).To(Equal("x"))
		Expect(row.Get("b")).To(Equal("z"))
	})

	It("should match ids with surrounding whitespace trimmed", func() {
		Expect(store.AppendRow(ctx, "t", rowstore.Record{"id": " 1 "})).To(Succeed())

		_, err := store.FindByID(ctx, "t", "id", "1")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should delete the matching row only", func() {
		Expect(store.AppendRow(ctx, "t", rowstore.Record{"id": "1"})).To(Succeed())
		Expect(store.AppendRow(ctx, "t", rowstore.Record{"id": "2"})).To(Succeed())

		Expect(store.DeleteRowByID(ctx, "t", "id", "1")).To(Succeed())

		rows, err := store.GetRows(ctx, "t")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].Get("id")).To(Equal("2"))
	})

	It("should return ErrRowNotFound for missing rows", func() {
		_, err := store.FindByID(ctx, "t", "id", "missing")
		Expect(err).To(MatchError(rowstore.ErrRowNotFound))
		Expect(store.UpdateRowByID(ctx, "t", "id", "missing", rowstore.Record{})).To(MatchError(rowstore.ErrRowNotFound))
		Expect(store.DeleteRowByID(ctx, "t", "id", "missing")).To(MatchError(rowstore.ErrRowNotFound))
	})
})

var _ = Describe("Cached", func() {
	var (
		ctx     context.Context
		backing *rowstore.Memory
		cached  *rowstore.Cached
	)

	newCached := func(ttl time.Duration) *rowstore.Cached {
		return rowstore.NewCached(backing, rowstore.NewCache(), ttl)
	}

	BeforeEach(func() {
		ctx = context.Background()
		backing = rowstore.NewMemory()
		cached = newCached(time.Minute)
	})

	It("should serve stale rows within the TTL", func() {
		Expect(backing.AppendRow(ctx, "t", rowstore.Record{"id": "1"})).To(Succeed())

		rows, err := cached.GetRowsCached(ctx, "t")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))

		// Write behind the decorator's back; the cache does not see it.
		Expect(backing.AppendRow(ctx, "t", rowstore.Record{"id": "2"})).To(Succeed())

		rows, err = cached.GetRowsCached(ctx, "t")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))
	})

	It("should always read fresh through GetRows", func() {
		Expect(backing.AppendRow(ctx, "t", rowstore.Record{"id": "1"})).To(Succeed())
		_, err := cached.GetRowsCached(ctx, "t")
		Expect(err).NotTo(HaveOccurred())

		Expect(backing.AppendRow(ctx, "t", rowstore.Record{"id": "2"})).To(Succeed())

		rows, err := cached.GetRows(ctx, "t")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))
	})

	It("should expire entries after the TTL", func() {
		cached = newCached(10 * time.Millisecond)

		Expect(backing.AppendRow(ctx, "t", rowstore.Record{"id": "1"})).To(Succeed())
		_, err := cached.GetRowsCached(ctx, "t")
		Expect(err).NotTo(HaveOccurred())

		Expect(backing.AppendRow(ctx, "t", rowstore.Record{"id": "2"})).To(Succeed())
		time.Sleep(20 * time.Millisecond)

		rows, err := cached.GetRowsCached(ctx, "t")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))
	})

	It("should invalidate the table on writes through the decorator", func() {
		Expect(cached.AppendRow(ctx, "t", rowstore.Record{"id": "1"})).To(Succeed())
		_, err := cached.GetRowsCached(ctx, "t")
		Expect(err).NotTo(HaveOccurred())

		Expect(cached.AppendRow(ctx, "t", rowstore.Record{"id": "2"})).To(Succeed())
		rows, err := cached.GetRowsCached(ctx, "t")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))

		Expect(cached.UpdateRowByID(ctx, "t", "id", "2", rowstore.Record{"name": "b"})).To(Succeed())
		rows, err = cached.GetRowsCached(ctx, "t")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows[1].Get("name")).To(Equal("b"))

		Expect(cached.DeleteRowByID(ctx, "t", "id", "1")).To(Succeed())
		rows, err = cached.GetRowsCached(ctx, "t")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))
	})

	It("should keep other tables cached independently", func() {
		Expect(cached.AppendRow(ctx, "a", rowstore.Record{"id": "1"})).To(Succeed())
		Expect(cached.AppendRow(ctx, "b", rowstore.Record{"id": "1"})).To(Succeed())

		_, err := cached.GetRowsCached(ctx, "a")
		Expect(err).NotTo(HaveOccurred())
		_, err = cached.GetRowsCached(ctx, "b")
		Expect(err).NotTo(HaveOccurred())

		// A write to table a must not drop table b's cache.
		Expect(cached.AppendRow(ctx, "a", rowstore.Record{"id": "2"})).To(Succeed())
		Expect(backing.AppendRow(ctx, "b", rowstore.Record{"id": "2"})).To(Succeed())

		rowsB, err := cached.GetRowsCached(ctx, "b")
		Expect(err).NotTo(HaveOccurred())
		Expect(rowsB).To(HaveLen(1))
	})
})
