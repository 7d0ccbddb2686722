// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package grantgraph

import (
	"context"
	"fmt"
	"time"

	"github.com/grantgraph/grantgraph/storage"
	"github.com/grantgraph/grantgraph/trace"
)

// subjectNode is what the subject-side closure remembers about one
// reached subject-group: the depth at which it was first found, and
// whether the chain of memberships from the original subject to it
// consists entirely of exclusive or ignore-exclusive edges.
type subjectNode struct {
	depth      int
	chainClean bool
}

type frontierItem struct {
	id         string
	depth      int
	chainClean bool
}

// buildSubjectClosure computes the transitive set of subject-groups
// reachable from subjectID, once per decision. It also reports whether
// any exclusive-marked membership edge was traversed anywhere in the
// walk (seenExclusive) and whether the depth bound truncated it.
func buildSubjectClosure(ctx context.Context, st storage.Storage, subjectID string, cfg evalConfig, rec *trace.Recorder) (map[string]subjectNode, bool, bool, error) {
	visited := map[string]subjectNode{subjectID: {depth: 0, chainClean: true}}
	queue := []frontierItem{{id: subjectID, depth: 0, chainClean: true}}

	var seenExclusive, truncated bool

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if item.depth >= cfg.maxDepth {
			if !truncated {
				logger.WarnContext(ctx, "subject closure hit depth bound", "max_depth", cfg.maxDepth, "group_id", item.id)
			}
			truncated = true
			continue
		}

		key := storage.MembershipPrefix + item.id
		raw, found, err := st.Get(ctx, key)
		if err != nil {
			return nil, false, false, errStorageFailure(key, err)
		}
		if !found {
			continue
		}

		records, terminal, err := st.DecodeMembership(raw)
		if err != nil {
			logger.WarnContext(ctx, "skipping corrupt membership row", "error", errDecodeCorruption(key, err))
			rec.RecordInfo(fmt.Sprintf("decode corruption at %s: %v", key, err))
			continue
		}

		now := time.Now()
		for _, mrec := range records {
			if mrec.SubjectID == "" {
				rec.RecordInfo(fmt.Sprintf("skipping corrupt membership record with empty subject id at %s", key))
				continue
			}
			if mrec.IsDeleted || mrec.Expired(now) || mrec.SubjectID == item.id {
				continue
			}

			edgeClean := mrec.Marker == storage.MarkerExclusive || mrec.Marker == storage.MarkerIgnoreExclusive
			if mrec.Marker == storage.MarkerExclusive {
				seenExclusive = true
			}
			childClean := item.chainClean && edgeClean

			if _, already := visited[mrec.SubjectID]; already {
				continue
			}
			visited[mrec.SubjectID] = subjectNode{depth: item.depth + 1, chainClean: childClean}
			rec.RecordGroup(trace.SideSubject, mrec.SubjectID, item.depth+1, mrec, 0)

			if !terminal {
				queue = append(queue, frontierItem{id: mrec.SubjectID, depth: item.depth + 1, chainClean: childClean})
			}
		}
	}

	return visited, seenExclusive, truncated, nil
}

// resourceFrontierItem is one pending node in the resource-side walk.
type resourceFrontierItem struct {
	id    string
	depth int
}
