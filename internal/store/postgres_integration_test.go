// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/autolinker/autolinker/internal/store"
)

// setupPostgresContainer starts PostgreSQL and returns its connection string.
func setupPostgresContainer() (string, func(), error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("autolinker_test"),
		postgres.WithUsername("autolinker"),
		postgres.WithPassword("autolinker"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return "", nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return "", nil, err
	}

	return connStr, func() { _ = container.Terminate(ctx) }, nil
}

var _ = Describe("PostgresKV", Ordered, func() {
	var (
		dsn     string
		cleanup func()
	)

	BeforeAll(func() {
		var err error
		dsn, cleanup, err = setupPostgresContainer()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if cleanup != nil {
			cleanup()
		}
	})

	It("migrates up and reports the version", func() {
		m, err := store.NewMigrator(dsn)
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = m.Close() }()

		Expect(m.Up()).To(Succeed())
		Expect(m.Up()).To(Succeed())

		version, dirty, err := m.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(1)))
		Expect(dirty).To(BeFalse())
	})

	describeKV("through Open", func() store.KV {
		kv, err := store.Open(context.Background(), store.Options{
			Driver:      store.DriverPostgres,
			DSN:         dsn,
			AutoMigrate: true,
		})
		Expect(err).NotTo(HaveOccurred())
		return kv
	})

	It("keeps the layout marker across connections", func() {
		ctx := context.Background()
		first, err := store.OpenPostgres(ctx, dsn)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.EnsureLayout(ctx, first, "@autolinker/layout", store.LayoutVersion)).To(Succeed())
		Expect(first.Close()).To(Succeed())

		second, err := store.OpenPostgres(ctx, dsn)
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = second.Close() }()

		got, err := second.Get(ctx, "@autolinker/layout")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(got)).To(Equal(store.LayoutVersion))
	})
})
