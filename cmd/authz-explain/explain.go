// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	grantgraph "github.com/grantgraph/grantgraph"
	"github.com/grantgraph/grantgraph/fixtures"
	"github.com/grantgraph/grantgraph/fixtures/fixlang"
	"github.com/grantgraph/grantgraph/pkg/errutil"
	"github.com/grantgraph/grantgraph/trace"
)

type explainConfig struct {
	fixturePath   string
	resourceID    string
	subjectID     string
	requestedMask string
	resourceGlob  string
	format        string
}

func newExplainCmd() *cobra.Command {
	ecfg := &explainConfig{}

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Explain a single authorization decision",
		Long: `explain loads a fixlang fixture file, runs a single Authorize
decision through the engine with every trace channel enabled, and
prints the resulting decision report.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runExplain(cmd, ecfg, cfg)
		},
	}

	cmd.Flags().StringVar(&ecfg.fixturePath, "fixture", "", "path to a fixlang fixture file (required)")
	cmd.Flags().StringVar(&ecfg.resourceID, "resource", "", "resource id to authorize against (required)")
	cmd.Flags().StringVar(&ecfg.subjectID, "subject", "", "subject id requesting access (required)")
	cmd.Flags().StringVar(&ecfg.requestedMask, "request", "CRUD", "requested access, as a decimal mask or CRUD letters")
	cmd.Flags().StringVar(&ecfg.resourceGlob, "resource-filter", "", "glob pattern restricting which group-walk rows are printed")
	cmd.Flags().StringVar(&ecfg.format, "format", "json", "output format: json or text")

	return cmd
}

func runExplain(cmd *cobra.Command, ecfg *explainConfig, cfg *appConfig) error {
	if ecfg.fixturePath == "" || ecfg.resourceID == "" || ecfg.subjectID == "" {
		return oops.Code(grantgraph.CodeInvalidRequest).Errorf("--fixture, --resource, and --subject are all required")
	}

	requested, err := parseMask(ecfg.requestedMask)
	if err != nil {
		return err
	}

	text, err := os.ReadFile(ecfg.fixturePath)
	if err != nil {
		return oops.Code(grantgraph.CodeInvalidRequest).With("path", ecfg.fixturePath).Wrapf(err, "reading fixture file")
	}

	store := fixtures.New()
	if err := fixlang.Load(store, string(text)); err != nil {
		return oops.Code(grantgraph.CodeInvalidRequest).With("path", ecfg.fixturePath).Wrapf(err, "parsing fixture")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	report, _, err := grantgraph.Trace(ctx, ecfg.resourceID, ecfg.subjectID, requested, store, cfg.WithOptions()...)
	if err != nil {
		errutil.LogError(slog.Default(), "decision failed", err)
		return err
	}

	if err := trace.Validate(report); err != nil {
		return oops.Code(grantgraph.CodeInvalidRequest).Wrapf(err, "trace report failed schema validation")
	}

	if ecfg.resourceGlob != "" {
		if err := filterReportByGlob(report, ecfg.resourceGlob); err != nil {
			return err
		}
	}

	switch ecfg.format {
	case "text":
		printReportText(cmd, report)
	default:
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return oops.Wrapf(err, "encoding trace report")
		}
	}
	return nil
}

// filterReportByGlob restricts a report's group-walk events to those
// whose id matches pattern, leaving the decision fields untouched.
func filterReportByGlob(report *trace.Report, pattern string) error {
	g, err := glob.Compile(pattern)
	if err != nil {
		return oops.Code(grantgraph.CodeInvalidRequest).With("pattern", pattern).Wrapf(err, "compiling resource filter glob")
	}

	report.ResourceWalk = filterGroupEvents(report.ResourceWalk, g)
	report.SubjectWalk = filterGroupEvents(report.SubjectWalk, g)
	return nil
}

func filterGroupEvents(events []trace.GroupEvent, g glob.Glob) []trace.GroupEvent {
	if events == nil {
		return nil
	}
	kept := make([]trace.GroupEvent, 0, len(events))
	for _, ev := range events {
		if g.Match(ev.ID) {
			kept = append(kept, ev)
		}
	}
	return kept
}

func printReportText(cmd *cobra.Command, report *trace.Report) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "decision %s: resource=%s subject=%s requested=%s final=%s truncated=%t\n",
		report.DecisionID, report.ResourceID, report.SubjectID,
		grantgraph.Mask(report.Requested), grantgraph.Mask(report.Final), report.Truncated)
	for _, ev := range report.ResourceWalk {
		fmt.Fprintf(w, "  resource-walk depth=%d id=%s residual=%s\n", ev.Depth, ev.ID, grantgraph.Mask(ev.Residual))
	}
	for _, ev := range report.SubjectWalk {
		fmt.Fprintf(w, "  subject-walk depth=%d id=%s residual=%s\n", ev.Depth, ev.ID, grantgraph.Mask(ev.Residual))
	}
	for _, hit := range report.PermissionHits {
		fmt.Fprintf(w, "  permission resource-group=%s subject-group=%s access=%s grant=%s deny=%s residual=%s\n",
			hit.ResourceGroup, hit.SubjectGroup, grantgraph.Mask(hit.Access), grantgraph.Mask(hit.Grant),
			grantgraph.Mask(hit.Deny), grantgraph.Mask(hit.Residual))
	}
	for _, info := range report.Info {
		fmt.Fprintf(w, "  info: %s\n", info)
	}
}
