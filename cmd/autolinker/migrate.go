// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/autolinker/autolinker/internal/store"
	"github.com/autolinker/autolinker/pkg/errutil"
)

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL store schema",
		Long: `Apply pending schema migrations to the PostgreSQL store.
Only the postgres driver has a schema to migrate; --store-dsn or store.dsn
names the database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runMigrate(cmd, func(m Migrator) error {
				cmd.Println("Running migrations...")
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Println("Migrations completed successfully")
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Drop the store schema and every stored record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runMigrate(cmd, func(m Migrator) error {
				cmd.Println("Rolling back migrations...")
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("Rollback completed successfully")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runMigrate(cmd, func(m Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				switch {
				case v == 0:
					cmd.Println("No migrations applied")
				case dirty:
					cmd.Printf("Version: %d (dirty)\n", v)
				default:
					cmd.Printf("Version: %d\n", v)
				}
				return nil
			})
		},
	})

	return cmd
}

func (c *cli) runMigrate(cmd *cobra.Command, fn func(Migrator) error) (err error) {
	if c.cfg.Store.Driver != store.DriverPostgres {
		return oops.Code("CONFIG_INVALID").
			With("field", "store.driver").
			Errorf("migrate needs the postgres store driver, got %q", c.cfg.Store.Driver)
	}

	m, err := c.deps.MigratorFactory(c.cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			errutil.LogError(c.logger, "failed to close migrator", closeErr)
		}
	}()

	return fn(m)
}
