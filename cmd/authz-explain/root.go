// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/grantgraph/grantgraph/internal/logging"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the authz-explain CLI.
func NewRootCmd() *cobra.Command {
	defaults := defaultConfig()

	cmd := &cobra.Command{
		Use:   "authz-explain",
		Short: "Run and explain grantgraph authorization decisions",
		Long: `authz-explain drives grantgraph's decision engine against a
fixture store and, with the explain subcommand, prints a full trace of
how a decision was reached. The serve subcommand exposes metrics and
health endpoints, and migrate manages the Postgres ACL schema.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.SetDefault("authz-explain", cmd.Root().Version, logFormatFlag)
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/grantgraph/config.yaml)")
	cmd.PersistentFlags().IntVar(&maxDepthFlag, "max-depth", defaults.MaxDepth, "depth bound on resource/subject group closures")
	cmd.PersistentFlags().StringVar(&allResourcesGroupFlag, "all-resources-group", defaults.AllResourcesGroup, "implicit resource group id included in every closure")
	cmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", defaults.LogFormat, "log output format: json or text")

	cmd.AddCommand(newExplainCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())

	return cmd
}

// Flag-backed variables shared by loadConfig via posflag. cobra's flag
// parsing happens before any subcommand RunE runs, so loadConfig reads
// these back through cmd.Flags() rather than the variables directly.
var (
	maxDepthFlag          int
	allResourcesGroupFlag string
	logFormatFlag         string
)
