// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package grantgraph

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/grantgraph/grantgraph/storage"
	"github.com/grantgraph/grantgraph/trace"
)

var tracer = otel.Tracer("github.com/grantgraph/grantgraph")

func attrString(key, value string) attribute.KeyValue { return attribute.String(key, value) }
func attrInt64(key string, value int64) attribute.KeyValue { return attribute.Int64(key, value) }

// Authorize returns the subset of requestedMask that subjectID may
// exercise on resourceID, per st. It never returns bits outside
// requestedMask. Storage failures are propagated unchanged; decode
// corruption and depth truncation are handled internally and never
// fail the decision.
func Authorize(ctx context.Context, resourceID, subjectID string, requestedMask uint16, st storage.Storage, opts ...Option) (Mask, error) {
	mask, _, err := evaluate(ctx, resourceID, subjectID, requestedMask, st, nil, opts...)
	return mask, err
}

// Trace runs a decision with every trace channel enabled and returns
// the serialized explanation alongside the resulting mask.
func Trace(ctx context.Context, resourceID, subjectID string, requestedMask uint16, st storage.Storage, opts ...Option) (*trace.Report, Mask, error) {
	opts = append(opts, withTraceChannels(trace.ChannelAll))
	mask, rec, err := evaluate(ctx, resourceID, subjectID, requestedMask, st, nil, opts...)
	if err != nil {
		return nil, mask, err
	}
	return rec.Report(resourceID, subjectID, requestedMask, uint16(mask)), mask, nil
}

// evaluate is the shared implementation behind Authorize and Trace. If
// a non-nil *trace.Recorder is passed in recorder, it is used in place
// of one built from the option-configured channels — reserved for
// callers (audit wrappers) that want to inspect a trace produced by an
// Authorize-equivalent call.
func evaluate(ctx context.Context, resourceID, subjectID string, requestedMask uint16, st storage.Storage, recorder *trace.Recorder, opts ...Option) (Mask, *trace.Recorder, error) {
	cfg := newEvalConfig(opts...)
	rec := recorder
	if rec == nil {
		rec = trace.New(cfg.traceChannels)
	}
	start := time.Now()

	ctx, span := tracer.Start(ctx, "grantgraph.authorize")
	defer span.End()
	span.SetAttributes(
		attrString("resource.id", resourceID),
		attrString("subject.id", subjectID),
		attrInt64("requested.mask", int64(requestedMask)),
	)

	requested := requestedBits(Mask(requestedMask))
	if resourceID == "" || subjectID == "" || requested == 0 {
		return 0, rec, nil
	}

	subjectClosure, seenExclusive, subjectTruncated, err := buildSubjectClosure(ctx, st, subjectID, cfg, rec)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, rec, err
	}

	var cc storage.CounterConsumer
	if cfg.counters {
		cc, _ = st.(storage.CounterConsumer)
	}

	var (
		accumulatedGrant Mask
		accumulatedDeny  Mask
		filterMask       = Mask(0xFFFF)
		filterSeen       bool
		ignoreFilterBits Mask
		truncated        = subjectTruncated
	)

	visitedResource := map[string]struct{}{}
	terminalResource := map[string]struct{}{}
	queue := []resourceFrontierItem{{id: resourceID, depth: 0}}
	visitedResource[resourceID] = struct{}{}
	if resourceID != cfg.allResourcesGroup {
		queue = append(queue, resourceFrontierItem{id: cfg.allResourcesGroup, depth: 0})
		visitedResource[cfg.allResourcesGroup] = struct{}{}
	}

	now := time.Now()

	for len(queue) > 0 {
		residualGrant := requested &^ accumulatedDeny
		if residualGrant == 0 {
			break
		}

		item := queue[0]
		queue = queue[1:]

		if fm, found, err := loadFilterMask(ctx, st, item.id, rec); err != nil {
			return 0, rec, err
		} else if found {
			if !filterSeen {
				filterMask = fm
				filterSeen = true
			} else {
				filterMask &= fm
			}
		}

		permKey := storage.PermissionPrefix + item.id
		raw, found, err := st.Get(ctx, permKey)
		if err != nil {
			return 0, rec, errStorageFailure(permKey, err)
		}
		if found {
			records, _, err := st.DecodePermissions(raw)
			if err != nil {
				logger.WarnContext(ctx, "skipping corrupt permission row", "error", errDecodeCorruption(permKey, err))
				rec.RecordInfo(fmt.Sprintf("decode corruption at %s: %v", permKey, err))
			} else {
				for _, prec := range records {
					if prec.SubjectID == "" {
						rec.RecordInfo(fmt.Sprintf("skipping corrupt permission record with empty subject id at %s", permKey))
						continue
					}
					if prec.IsDeleted || prec.Expired(now) {
						continue
					}

					node, reachable := subjectClosure[prec.SubjectID]
					if prec.SubjectID == subjectID {
						node, reachable = subjectNode{depth: 0, chainClean: true}, true
					}
					if !reachable {
						continue
					}

					recordKey := permKey + ":" + prec.SubjectID
					if cc != nil {
						ok, err := hasUsesRemaining(ctx, cc, recordKey, prec)
						if err != nil {
							return 0, rec, err
						}
						if !ok {
							continue
						}
					}

					grantBits := positive(Mask(prec.Access))
					denyBits := deny(Mask(prec.Access))

					gated := seenExclusive && !node.chainClean && prec.Marker != storage.MarkerIgnoreExclusive
					appliedGrant := grantBits
					if gated {
						appliedGrant = 0
					}

					accumulatedGrant |= appliedGrant
					accumulatedDeny |= denyBits

					if prec.Marker == storage.MarkerIgnoreFilter {
						ignoreFilterBits |= appliedGrant
					}

					rec.RecordPermission(item.id, prec.SubjectID, uint16(prec.Access), uint16(appliedGrant), uint16(denyBits), uint16(requested&^accumulatedDeny))
				}
			}
		}

		if _, stop := terminalResource[item.id]; stop {
			continue
		}
		if item.depth >= cfg.maxDepth {
			if !truncated {
				logger.WarnContext(ctx, "resource closure hit depth bound", "max_depth", cfg.maxDepth, "group_id", item.id)
			}
			truncated = true
			continue
		}

		memKey := storage.MembershipPrefix + item.id
		mraw, mfound, err := st.Get(ctx, memKey)
		if err != nil {
			return 0, rec, errStorageFailure(memKey, err)
		}
		if !mfound {
			continue
		}
		mrecords, terminal, err := st.DecodeMembership(mraw)
		if err != nil {
			logger.WarnContext(ctx, "skipping corrupt membership row", "error", errDecodeCorruption(memKey, err))
			rec.RecordInfo(fmt.Sprintf("decode corruption at %s: %v", memKey, err))
			continue
		}
		for _, mrec := range mrecords {
			if mrec.SubjectID == "" || mrec.IsDeleted || mrec.Expired(now) || mrec.SubjectID == item.id {
				continue
			}
			if _, already := visitedResource[mrec.SubjectID]; already {
				continue
			}
			visitedResource[mrec.SubjectID] = struct{}{}
			if terminal {
				terminalResource[mrec.SubjectID] = struct{}{}
			}
			rec.RecordGroup(trace.SideResource, mrec.SubjectID, item.depth+1, mrec, uint16(requested&^accumulatedDeny))
			queue = append(queue, resourceFrontierItem{id: mrec.SubjectID, depth: item.depth + 1})
		}
	}

	if truncated {
		rec.MarkTruncated()
	}

	base := applyDeny(accumulatedGrant, accumulatedDeny)
	filteredBase := base & positive(filterMask)
	withOverride := filteredBase | (ignoreFilterBits &^ accumulatedDeny)
	result := withOverride & requested

	span.SetAttributes(attrInt64("result.mask", int64(result)))
	recordDecisionMetrics(time.Since(start), result, truncated)
	return result, rec, nil
}
