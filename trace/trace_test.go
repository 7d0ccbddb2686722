// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package trace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grantgraph/grantgraph/storage"
	"github.com/grantgraph/grantgraph/trace"
)

func TestRecorder_DisabledChannelsRecordNothing(t *testing.T) {
	rec := trace.New(0)
	rec.RecordGroup(trace.SideSubject, "g1", 1, storage.Record{SubjectID: "g1"}, 0)
	rec.RecordPermission("doc1", "u1", 6, 6, 0, 6)
	rec.RecordInfo("should be dropped")

	report := rec.Report("doc1", "u1", 15, 6)
	assert.Empty(t, report.SubjectWalk)
	assert.Empty(t, report.PermissionHits)
	assert.Empty(t, report.Info)
}

func TestRecorder_EnabledChannelsAccumulate(t *testing.T) {
	rec := trace.New(trace.ChannelAll)
	rec.RecordGroup(trace.SideSubject, "g1", 1, storage.Record{SubjectID: "g1", Access: 15}, 15)
	rec.RecordPermission("doc1", "g1", 6, 6, 0, 6)
	rec.RecordInfo("decode corruption at P<doc2>")
	rec.MarkTruncated()

	report := rec.Report("doc1", "u1", 15, 6)
	require.Len(t, report.SubjectWalk, 1)
	require.Len(t, report.PermissionHits, 1)
	require.Len(t, report.Info, 1)
	assert.True(t, report.Truncated)
	assert.Equal(t, "doc1", report.ResourceID)
	assert.Equal(t, "u1", report.SubjectID)
	assert.NotEmpty(t, report.DecisionID)
}

func TestReport_ValidatesAgainstItsOwnSchema(t *testing.T) {
	rec := trace.New(trace.ChannelAll)
	rec.RecordGroup(trace.SideResource, "doc1", 0, storage.Record{SubjectID: "doc1", Access: 6}, 6)
	rec.RecordPermission("doc1", "u1", 6, 6, 0, 6)

	report := rec.Report("doc1", "u1", 15, 6)
	assert.NoError(t, trace.Validate(report))
}
