// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package grantgraph

import (
	"context"

	"github.com/grantgraph/grantgraph/storage"
	"github.com/grantgraph/grantgraph/trace"
)

// loadFilterMask fetches and decodes the filter row for id, if one
// exists. A missing row is not a restriction: found is false and the
// caller should leave its running intersection untouched.
func loadFilterMask(ctx context.Context, st storage.Storage, id string, rec *trace.Recorder) (Mask, bool, error) {
	key := storage.FilterPrefix + id
	raw, found, err := st.Get(ctx, key)
	if err != nil {
		return 0, false, errStorageFailure(key, err)
	}
	if !found {
		return 0, false, nil
	}

	m, err := st.DecodeFilter(raw)
	if err != nil {
		rec.RecordInfo("decode corruption at " + key)
		return 0, false, nil
	}
	return positive(Mask(m)), true, nil
}
