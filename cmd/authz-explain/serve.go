// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/grantgraph/grantgraph/internal/observability"
)

func newServeCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve Prometheus metrics and health endpoints",
		Long: `serve starts a long-running HTTP server exposing the
decision engine's Prometheus metrics at /metrics and liveness/readiness
probes at /healthz/liveness and /healthz/readiness. It does not itself
evaluate decisions; it is meant to run alongside a process that imports
grantgraph as a library and records its own decisions against the same
default Prometheus registry.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if metricsAddr == "" {
				metricsAddr = cfg.MetricsAddr
			}
			if metricsAddr == "" {
				metricsAddr = defaultConfig().MetricsAddr
			}
			return runServe(cmd, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve /metrics and health probes on (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	ready := func() bool { return true }
	srv := observability.NewServer(addr, ready)

	errCh, err := srv.Start()
	if err != nil {
		return oops.With("addr", addr).Wrapf(err, "starting observability server")
	}

	slog.Info("serving metrics and health endpoints", "addr", srv.Addr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Wrapf(err, "observability server failed")
		}
	case <-ctx.Done():
		slog.Info("shutting down observability server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			return oops.Wrapf(err, "stopping observability server")
		}
	}

	return nil
}
