// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package main

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	grantgraph "github.com/grantgraph/grantgraph"
	"github.com/grantgraph/grantgraph/internal/store"
)

func newMigrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the ACL schema for the Postgres storage adapter",
		Long: `migrate applies and inspects the golang-migrate schema for the
Postgres ACL tables (acl_rows, acl_counters). It expects a postgres:// or pgx5:// connection
string, via --database-url or the DATABASE_URL environment variable.`,
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (env: DATABASE_URL)")

	cmd.AddCommand(newMigrateUpCmd(&databaseURL))
	cmd.AddCommand(newMigrateDownCmd(&databaseURL))
	cmd.AddCommand(newMigrateStatusCmd(&databaseURL))
	cmd.AddCommand(newMigrateForceCmd(&databaseURL))

	return cmd
}

func openMigrator(cmd *cobra.Command, databaseURL string) (*store.Migrator, error) {
	url := databaseURL
	if url == "" {
		url = envOr("DATABASE_URL", "")
	}
	if url == "" {
		return nil, oops.Code(grantgraph.CodeInvalidRequest).Errorf("--database-url or DATABASE_URL must be set")
	}

	m, err := store.NewMigrator(url)
	if err != nil {
		return nil, oops.Wrapf(err, "opening migrator")
	}
	return m, nil
}

func newMigrateUpCmd(databaseURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openMigrator(cmd, *databaseURL)
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, m)
			return m.Up()
		},
	}
}

func newMigrateDownCmd(databaseURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (destructive)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openMigrator(cmd, *databaseURL)
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, m)
			return m.Down()
		},
	}
}

func newMigrateStatusCmd(databaseURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current migration version and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openMigrator(cmd, *databaseURL)
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, m)

			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d (dirty: %t)\n", version, dirty)

			pending, err := m.PendingMigrations()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "pending: none")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pending: %v\n", pending)
			return nil
		},
	}
}

func newMigrateForceCmd(databaseURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Force the migration version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var version int
			if _, err := fmt.Sscanf(args[0], "%d", &version); err != nil {
				return oops.Code(grantgraph.CodeInvalidRequest).With("input", args[0]).Errorf("version must be an integer")
			}

			m, err := openMigrator(cmd, *databaseURL)
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, m)
			return m.Force(version)
		},
	}
}

func closeMigrator(cmd *cobra.Command, m *store.Migrator) {
	if err := m.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "closing migrator: %v\n", err)
	}
}
