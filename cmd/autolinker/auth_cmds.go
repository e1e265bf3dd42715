// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/autolinker/autolinker/internal/auth"
)

type registerConfig struct {
	name     string
	email    string
	role     string
	password string
}

func newRegisterCmd(c *cli) *cobra.Command {
	cfg := &registerConfig{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Long: `Create a Driver or RentalAgency account and sign in as it.
The password is prompted for when --password is not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runRegister(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.name, "name", "", "display name")
	cmd.Flags().StringVar(&cfg.email, "email", "", "email address")
	cmd.Flags().StringVar(&cfg.role, "role", "", "Driver or RentalAgency")
	cmd.Flags().StringVar(&cfg.password, "password", "", "password (prompted when empty)")

	return cmd
}

func (c *cli) runRegister(cmd *cobra.Command, cfg *registerConfig) error {
	role, err := auth.ParseRole(cfg.role)
	if err != nil {
		return c.present(err)
	}

	secret, err := c.newPrompter(cmd, bufio.NewReader(cmd.InOrStdin())).Password(cfg.password)
	if err != nil {
		return err
	}

	return c.withApp(cmd.Context(), func(a *app) error {
		sess, err := a.service.Register(cmd.Context(), cfg.name, cfg.email, secret, role)
		if err != nil {
			return c.present(err)
		}
		printSignedIn(cmd.OutOrStdout(), sess)
		return nil
	})
}

type loginConfig struct {
	email    string
	password string
}

func newLoginCmd(c *cli) *cobra.Command {
	cfg := &loginConfig{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to an existing account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runLogin(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.email, "email", "", "email address")
	cmd.Flags().StringVar(&cfg.password, "password", "", "password (prompted when empty)")

	return cmd
}

func (c *cli) runLogin(cmd *cobra.Command, cfg *loginConfig) error {
	secret, err := c.newPrompter(cmd, bufio.NewReader(cmd.InOrStdin())).Password(cfg.password)
	if err != nil {
		return err
	}

	return c.withApp(cmd.Context(), func(a *app) error {
		sess, err := a.service.Login(cmd.Context(), cfg.email, secret)
		if err != nil {
			return c.present(err)
		}
		printSignedIn(cmd.OutOrStdout(), sess)
		return nil
	})
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app) error {
				if err := a.service.Logout(cmd.Context()); err != nil {
					return c.present(err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
				return nil
			})
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app) error {
				return printSession(cmd.OutOrStdout(), a.service.CurrentSession(), jsonOutput)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output the session as JSON")

	return cmd
}

func newUsersCmd(c *cli) *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List registered accounts",
		Long: `List registered accounts in registration order.
--match filters by email with a glob pattern such as '*@example.com'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app) error {
				return listUsers(cmd.OutOrStdout(), a.users, match)
			})
		},
	}

	cmd.Flags().StringVar(&match, "match", "", "glob pattern on email")

	return cmd
}

func printSignedIn(w io.Writer, sess *auth.Session) {
	_, _ = fmt.Fprintf(w, "Signed in as %s <%s> (%s).\n", sess.Name, sess.Email, sess.Role)
}

func printSession(w io.Writer, sess *auth.Session, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sess); err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		return nil
	}

	if sess == nil {
		_, _ = fmt.Fprintln(w, "Not signed in.")
		return nil
	}
	printSignedIn(w, sess)
	return nil
}

func listUsers(w io.Writer, users *auth.Registry, match string) error {
	list, err := users.List(match)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tCREATED")
	for _, u := range list {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, u.CreatedAt.Format(time.DateOnly))
	}
	return tw.Flush()
}
