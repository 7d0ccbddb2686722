// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package grantgraph

import "log/slog"

var logger = slog.Default()

// SetLogger overrides the slog.Logger used for non-fatal engine
// diagnostics (decode corruption, depth truncation). CachingStorage
// does not use it; its logger is set with WithCacheLogger. A nil
// logger is ignored; callers that want silence should pass
// slog.New(slog.DiscardHandler) or an equivalent themselves.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}
