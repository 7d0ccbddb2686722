// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package grantgraph

import (
	"context"

	"github.com/grantgraph/grantgraph/storage"
)

// hasUsesRemaining consumes one use from each of rec's named counters
// against cc and reports whether the record still has uses left. A
// record with no counters is always considered unlimited.
func hasUsesRemaining(ctx context.Context, cc storage.CounterConsumer, recordKey string, rec storage.Record) (bool, error) {
	if len(rec.Counters) == 0 {
		return true, nil
	}
	for name := range rec.Counters {
		_, ok, err := cc.ConsumeCounter(ctx, recordKey, name)
		if err != nil {
			return false, errStorageFailure(recordKey, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
