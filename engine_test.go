// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package grantgraph_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grantgraph/grantgraph"
	"github.com/grantgraph/grantgraph/fixtures"
	"github.com/grantgraph/grantgraph/storage"
)

func TestAuthorize_DirectGrant(t *testing.T) {
	st := fixtures.New()
	st.SetPermissions("doc1", false, storage.Record{SubjectID: "u1", Access: 2})

	got, err := grantgraph.Authorize(context.Background(), "doc1", "u1", 15, st)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)
}

func TestAuthorize_GroupGrant(t *testing.T) {
	st := fixtures.New()
	st.SetMembership("u1", false, storage.Record{SubjectID: "g1", Access: 15})
	st.SetPermissions("doc1", false, storage.Record{SubjectID: "g1", Access: 6})

	got, err := grantgraph.Authorize(context.Background(), "doc1", "u1", 15, st)
	require.NoError(t, err)
	assert.EqualValues(t, 6, got)
}

func TestAuthorize_DenyOverridesGrant(t *testing.T) {
	st := fixtures.New()
	st.SetPermissions("doc1", false,
		storage.Record{SubjectID: "u1", Access: 6},
		storage.Record{SubjectID: "u1", Access: 0 | (2 << 4)},
	)

	got, err := grantgraph.Authorize(context.Background(), "doc1", "u1", 15, st)
	require.NoError(t, err)
	assert.EqualValues(t, 4, got)
}

func TestAuthorize_CycleSafety(t *testing.T) {
	st := fixtures.New()
	st.SetMembership("g1", false, storage.Record{SubjectID: "g2", Access: 15})
	st.SetMembership("g2", false, storage.Record{SubjectID: "g1", Access: 15})
	st.SetMembership("u1", false, storage.Record{SubjectID: "g1", Access: 15})
	st.SetPermissions("doc1", false, storage.Record{SubjectID: "g2", Access: 2})

	got, err := grantgraph.Authorize(context.Background(), "doc1", "u1", 15, st)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)
}

func TestAuthorize_ExclusiveRule(t *testing.T) {
	st := fixtures.New()
	st.SetMembership("u1", false,
		storage.Record{SubjectID: "gExcl", Access: 15, Marker: storage.MarkerExclusive},
		storage.Record{SubjectID: "gOpen", Access: 15},
	)
	st.SetPermissions("doc1", false,
		storage.Record{SubjectID: "gExcl", Access: 2},
		storage.Record{SubjectID: "gOpen", Access: 4},
	)

	got, err := grantgraph.Authorize(context.Background(), "doc1", "u1", 15, st)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)
}

func TestAuthorize_FilterIntersection(t *testing.T) {
	st := fixtures.New()
	st.SetFilter("doc1", 2)
	st.SetPermissions("doc1", false, storage.Record{SubjectID: "u1", Access: 6})

	got, err := grantgraph.Authorize(context.Background(), "doc1", "u1", 15, st)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)
}

func TestAuthorize_IgnoreFilterMarkerBypassesIntersection(t *testing.T) {
	st := fixtures.New()
	st.SetFilter("doc1", 2)
	st.SetPermissions("doc1", false,
		storage.Record{SubjectID: "u1", Access: 6, Marker: storage.MarkerIgnoreFilter},
	)

	got, err := grantgraph.Authorize(context.Background(), "doc1", "u1", 15, st)
	require.NoError(t, err)
	assert.EqualValues(t, 6, got)
}

func TestAuthorize_BoundaryEmptyIDs(t *testing.T) {
	st := fixtures.New()

	got, err := grantgraph.Authorize(context.Background(), "", "u1", 15, st)
	require.NoError(t, err)
	assert.Zero(t, got)

	got, err = grantgraph.Authorize(context.Background(), "doc1", "", 15, st)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestAuthorize_BoundaryZeroRequestedMask(t *testing.T) {
	st := fixtures.New()
	st.SetPermissions("doc1", false, storage.Record{SubjectID: "u1", Access: 15})

	got, err := grantgraph.Authorize(context.Background(), "doc1", "u1", 0, st)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestAuthorize_DepthTruncation(t *testing.T) {
	st := fixtures.New()

	const chainLen = 33
	prev := "u1"
	for i := 0; i < chainLen; i++ {
		next := fmt.Sprintf("g%d", i)
		st.SetMembership(prev, false, storage.Record{SubjectID: next, Access: 15})
		prev = next
	}
	st.SetPermissions("doc1", false, storage.Record{SubjectID: prev, Access: 2})

	report, got, err := grantgraph.Trace(context.Background(), "doc1", "u1", 15, st)
	require.NoError(t, err)
	assert.Zero(t, got, "the granting group sits beyond the default depth bound")
	assert.True(t, report.Truncated)
}

func TestAuthorize_ResultNeverExceedsRequested(t *testing.T) {
	st := fixtures.New()
	st.SetPermissions("doc1", false, storage.Record{SubjectID: "u1", Access: 15})

	got, err := grantgraph.Authorize(context.Background(), "doc1", "u1", 6, st)
	require.NoError(t, err)
	assert.EqualValues(t, 6, got)
	assert.Zero(t, uint16(got)&^6)
}

func TestAuthorize_MonotonicInRequestedMask(t *testing.T) {
	st := fixtures.New()
	st.SetPermissions("doc1", false, storage.Record{SubjectID: "u1", Access: 15})

	small, err := grantgraph.Authorize(context.Background(), "doc1", "u1", 2, st)
	require.NoError(t, err)
	big, err := grantgraph.Authorize(context.Background(), "doc1", "u1", 6, st)
	require.NoError(t, err)
	assert.EqualValues(t, small, big&2)
}

func TestAuthorize_Idempotent(t *testing.T) {
	st := fixtures.New()
	st.SetMembership("u1", false, storage.Record{SubjectID: "g1", Access: 15})
	st.SetPermissions("doc1", false, storage.Record{SubjectID: "g1", Access: 6})

	first, err := grantgraph.Authorize(context.Background(), "doc1", "u1", 15, st)
	require.NoError(t, err)
	second, err := grantgraph.Authorize(context.Background(), "doc1", "u1", 15, st)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

