// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package grantgraph

import (
	"context"
	"testing"

	"github.com/grantgraph/grantgraph/fixtures"
	"github.com/grantgraph/grantgraph/storage"
)

func TestBuildSubjectClosure_DirectMembership(t *testing.T) {
	st := fixtures.New()
	st.SetMembership("u1", false, storage.Record{SubjectID: "g1", Access: 15})

	closure, seenExclusive, truncated, err := buildSubjectClosure(context.Background(), st, "u1", newEvalConfig(), nil)
	if err != nil {
		t.Fatalf("buildSubjectClosure: %v", err)
	}
	if truncated {
		t.Fatal("did not expect truncation")
	}
	if seenExclusive {
		t.Fatal("did not expect an exclusive edge")
	}
	if node, ok := closure["g1"]; !ok || node.depth != 1 || node.chainClean {
		t.Fatalf("expected g1 at depth 1 with a non-clean chain (plain edge), got %+v (ok=%v)", node, ok)
	}
	if _, ok := closure["u1"]; !ok {
		t.Fatal("expected subject_id itself to be in its own closure at depth 0")
	}
}

func TestBuildSubjectClosure_ExclusiveEdgeMarksChain(t *testing.T) {
	st := fixtures.New()
	st.SetMembership("u1", false,
		storage.Record{SubjectID: "gExcl", Access: 15, Marker: storage.MarkerExclusive},
		storage.Record{SubjectID: "gOpen", Access: 15},
	)

	closure, seenExclusive, _, err := buildSubjectClosure(context.Background(), st, "u1", newEvalConfig(), nil)
	if err != nil {
		t.Fatalf("buildSubjectClosure: %v", err)
	}
	if !seenExclusive {
		t.Fatal("expected seenExclusive to be true")
	}
	if !closure["gExcl"].chainClean {
		t.Fatal("expected gExcl's chain to be clean (exclusive edge)")
	}
	if closure["gOpen"].chainClean {
		t.Fatal("expected gOpen's chain to be dirty (plain edge)")
	}
}

func TestBuildSubjectClosure_CycleTerminates(t *testing.T) {
	st := fixtures.New()
	st.SetMembership("g1", false, storage.Record{SubjectID: "g2", Access: 15})
	st.SetMembership("g2", false, storage.Record{SubjectID: "g1", Access: 15})
	st.SetMembership("u1", false, storage.Record{SubjectID: "g1", Access: 15})

	closure, _, truncated, err := buildSubjectClosure(context.Background(), st, "u1", newEvalConfig(), nil)
	if err != nil {
		t.Fatalf("buildSubjectClosure: %v", err)
	}
	if truncated {
		t.Fatal("cycle should not trigger depth truncation")
	}
	for _, id := range []string{"u1", "g1", "g2"} {
		if _, ok := closure[id]; !ok {
			t.Fatalf("expected %s in closure, got %+v", id, closure)
		}
	}
}

func TestBuildSubjectClosure_TerminalRowStopsUpwardWalk(t *testing.T) {
	st := fixtures.New()
	st.SetMembership("u1", true, storage.Record{SubjectID: "g1", Access: 15})
	st.SetMembership("g1", false, storage.Record{SubjectID: "g2", Access: 15})

	closure, _, _, err := buildSubjectClosure(context.Background(), st, "u1", newEvalConfig(), nil)
	if err != nil {
		t.Fatalf("buildSubjectClosure: %v", err)
	}
	if _, ok := closure["g1"]; !ok {
		t.Fatal("expected g1 to be reachable")
	}
	if _, ok := closure["g2"]; ok {
		t.Fatal("terminal row on u1 should have stopped the walk before reaching g2")
	}
}
