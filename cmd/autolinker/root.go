// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/autolinker/autolinker/internal/config"
	"github.com/autolinker/autolinker/internal/logging"
	"github.com/autolinker/autolinker/internal/xdg"
)

const serviceName = "autolinker"

// cli carries state resolved by the root command to its subcommands.
type cli struct {
	deps       *Deps
	configFile string
	cfg        config.Config
	logger     *slog.Logger
}

// NewRootCmd creates the root command for the AutoLinker CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmdWithDeps(nil)
}

func newRootCmdWithDeps(deps *Deps) *cobra.Command {
	c := &cli{deps: deps.withDefaults()}

	cmd := &cobra.Command{
		Use:   "autolinker",
		Short: "AutoLinker - accounts and sessions for drivers and rental agencies",
		Long: `AutoLinker keeps a local registry of Driver and RentalAgency accounts
and remembers which one is signed in between runs.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file path (default "+xdg.ConfigFile()+")")
	flags.String("namespace", "", "prefix of every stored record key")
	flags.String("log-format", "", "log format (json or text)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("store-driver", "", "store backend (memory, sqlite, postgres)")
	flags.String("store-path", "", "sqlite database file")
	flags.String("store-dsn", "", "postgres connection URL")
	flags.Bool("auto-migrate", false, "apply postgres migrations before opening the store")

	cmd.AddCommand(newRegisterCmd(c))
	cmd.AddCommand(newLoginCmd(c))
	cmd.AddCommand(newLogoutCmd(c))
	cmd.AddCommand(newWhoamiCmd(c))
	cmd.AddCommand(newUsersCmd(c))
	cmd.AddCommand(newShellCmd(c))
	cmd.AddCommand(newMigrateCmd(c))
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// setup loads configuration and the logger before any subcommand runs.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	path, explicit := c.configFile, c.configFile != ""
	if !explicit {
		path = xdg.ConfigFile()
	}

	cfg, err := config.Load(path, explicit, cmd.Flags())
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = logging.Setup(serviceName, version, cfg.Log.Format, level, cmd.ErrOrStderr())
	return nil
}
