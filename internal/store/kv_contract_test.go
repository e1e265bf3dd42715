// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package store_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/autolinker/autolinker/internal/store"
)

// describeKV runs the behaviour every KV backend must share.
func describeKV(name string, open func() store.KV) {
	Describe(name, func() {
		var (
			ctx context.Context
			kv  store.KV
		)

		BeforeEach(func() {
			ctx = context.Background()
			kv = open()
			DeferCleanup(func() { _ = kv.Close() })
		})

		It("reports a missing key as ErrNotFound", func() {
			_, err := kv.Get(ctx, "@autolinker/users")
			Expect(err).To(MatchError(store.ErrNotFound))
		})

		It("returns what was set", func() {
			Expect(kv.Set(ctx, "@autolinker/users", []byte(`[]`))).To(Succeed())

			got, err := kv.Get(ctx, "@autolinker/users")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal([]byte(`[]`)))
		})

		It("replaces the previous value", func() {
			Expect(kv.Set(ctx, "@autolinker/session", []byte(`{"id":"a"}`))).To(Succeed())
			Expect(kv.Set(ctx, "@autolinker/session", []byte(`null`))).To(Succeed())

			got, err := kv.Get(ctx, "@autolinker/session")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(got)).To(Equal("null"))
		})

		It("keeps keys independent", func() {
			Expect(kv.Set(ctx, "a", []byte("1"))).To(Succeed())
			Expect(kv.Set(ctx, "b", []byte("2"))).To(Succeed())

			a, err := kv.Get(ctx, "a")
			Expect(err).NotTo(HaveOccurred())
			b, err := kv.Get(ctx, "b")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(a)).To(Equal("1"))
			Expect(string(b)).To(Equal("2"))
		})

		It("stores an empty value", func() {
			Expect(kv.Set(ctx, "empty", nil)).To(Succeed())

			got, err := kv.Get(ctx, "empty")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeEmpty())
		})

		It("survives concurrent writers", func() {
			var wg sync.WaitGroup
			for i := range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					Expect(kv.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"))).To(Succeed())
				}()
			}
			wg.Wait()

			for i := range 8 {
				_, err := kv.Get(ctx, fmt.Sprintf("k%d", i))
				Expect(err).NotTo(HaveOccurred())
			}
		})
	})
}

var _ = Describe("KV backends", func() {
	describeKV("Memory", func() store.KV {
		return store.NewMemory()
	})

	describeKV("SQLiteKV", func() store.KV {
		kv, err := store.OpenSQLite(context.Background(), filepath.Join(GinkgoT().TempDir(), "autolinker.db"))
		Expect(err).NotTo(HaveOccurred())
		return kv
	})
})
