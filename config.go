// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package grantgraph

import (
	"github.com/grantgraph/grantgraph/trace"
)

// Default engine configuration values.
const (
	defaultMaxDepth           = 32
	defaultAllResourcesGroup  = "AllResourcesGroup"
)

// Option configures a single Authorize or Trace call.
type Option func(*evalConfig)

type evalConfig struct {
	maxDepth          int
	allResourcesGroup string
	traceChannels     trace.Channel
	counters          bool
}

// WithMaxDepth overrides the depth bound on both closures. Exceeding
// it truncates the walk rather than returning an error.
func WithMaxDepth(depth int) Option {
	return func(c *evalConfig) {
		c.maxDepth = depth
	}
}

// WithAllResourcesGroupID overrides the implicit resource group id
// every resource closure includes.
func WithAllResourcesGroupID(id string) Option {
	return func(c *evalConfig) {
		c.allResourcesGroup = id
	}
}

// WithCounters enables per-record usage counter consumption against a
// storage.CounterConsumer. Ignored when the Storage passed to
// Authorize does not implement that interface.
func WithCounters(enabled bool) Option {
	return func(c *evalConfig) {
		c.counters = enabled
	}
}

func withTraceChannels(ch trace.Channel) Option {
	return func(c *evalConfig) {
		c.traceChannels = ch
	}
}

func newEvalConfig(opts ...Option) evalConfig {
	cfg := evalConfig{
		maxDepth:          defaultMaxDepth,
		allResourcesGroup: defaultAllResourcesGroup,
		counters:          true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
