package history_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spoolworks/reel/pkg/history"
)

var _ = Describe("SQLiteStore", func() {
	var (
		store *history.SQLiteStore
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		store, err = history.NewSQLiteStore(":memory:")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
	})

	Describe("NewSQLiteStore", func() {
		It("creates a store with a file database", func() {
			dbPath := filepath.Join(GinkgoT().TempDir(), "history.db")

			s, err := history.NewSQLiteStore(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			_, err = os.Stat(dbPath)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Record", func() {
		It("stores a view", func() {
			err := store.Record(ctx, history.KindFile, "/tmp/run.json", 12)
			Expect(err).NotTo(HaveOccurred())

			views, err := store.Recent(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(HaveLen(1))
			Expect(views[0].Kind).To(Equal(history.KindFile))
			Expect(views[0].Reference).To(Equal("/tmp/run.json"))
			Expect(views[0].ItemCount).To(Equal(12))
		})

		It("rejects an empty reference", func() {
			Expect(store.Record(ctx, history.KindRun, "", 0)).To(HaveOccurred())
		})
	})

	Describe("Recent", func() {
		It("returns newest first", func() {
			Expect(store.Record(ctx, history.KindRun, "a/b/1", 1)).To(Succeed())
			Expect(store.Record(ctx, history.KindRun, "a/b/2", 2)).To(Succeed())
			Expect(store.Record(ctx, history.KindRun, "a/b/3", 3)).To(Succeed())

			views, err := store.Recent(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(HaveLen(2))
			Expect(views[0].Reference).To(Equal("a/b/3"))
			Expect(views[1].Reference).To(Equal("a/b/2"))
		})

		It("returns nothing for an empty store", func() {
			views, err := store.Recent(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(BeEmpty())
		})
	})

	Describe("Clear", func() {
		It("removes all recorded views", func() {
			Expect(store.Record(ctx, history.KindFile, "/tmp/x.json", 0)).To(Succeed())
			Expect(store.Clear(ctx)).To(Succeed())

			views, err := store.Recent(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(BeEmpty())
		})
	})
})
