// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

// Package trace accumulates structured evidence of a single decision
// and serializes it into an explanation on demand. It is pure data: no
// logging framework, no I/O, no ordering guarantees beyond insertion
// order. The engine decides what to visit and in what order; the
// recorder just remembers.
package trace

import (
	"github.com/oklog/ulid/v2"

	"github.com/grantgraph/grantgraph/storage"
)

// Channel selects which kinds of events a Recorder accepts. Channels
// compose with bitwise OR.
type Channel uint8

// Channel values. A Recorder constructed with channel bits unset for a
// given kind of event costs nothing for that kind: the Record* methods
// check the corresponding flag before allocating anything.
const (
	ChannelGroup Channel = 1 << iota
	ChannelPermission
	ChannelInfo
)

// ChannelAll enables every channel; used by the Trace convenience
// wrapper.
const ChannelAll = ChannelGroup | ChannelPermission | ChannelInfo

// Side identifies which of the two interleaved closures an event
// belongs to.
type Side string

// Side values.
const (
	SideResource Side = "resource"
	SideSubject  Side = "subject"
)

// GroupEvent records one group expansion step.
type GroupEvent struct {
	Side     Side          `json:"side"`
	ID       string        `json:"id"`
	Depth    int           `json:"depth"`
	Record   storage.Record `json:"record"`
	Residual uint16        `json:"residual"`
}

// PermissionEvent records one permission application: the grant and
// deny bits one permission record contributed. Filter intersections
// are not recorded as events.
type PermissionEvent struct {
	ResourceGroup string `json:"resource_group"`
	SubjectGroup  string `json:"subject_group"`
	Access        uint16 `json:"access"`
	Grant         uint16 `json:"grant"`
	Deny          uint16 `json:"deny"`
	Residual      uint16 `json:"residual"`
}

// Recorder accumulates events for a single decision. It is not safe
// for concurrent use; each decision should own its own Recorder.
type Recorder struct {
	channels Channel
	id       ulid.ULID

	resourceWalk   []GroupEvent
	subjectWalk    []GroupEvent
	permissionHits []PermissionEvent
	info           []string
	truncated      bool
}

// New creates a Recorder accepting the given channels. Passing 0
// disables tracing entirely; every Record* call becomes a no-op.
func New(channels Channel) *Recorder {
	return &Recorder{channels: channels, id: ulid.Make()}
}

// Disabled reports whether no channel is enabled, letting callers skip
// work that only exists to feed the trace (e.g. path reconstruction).
func (r *Recorder) Disabled() bool {
	return r == nil || r.channels == 0
}

// GroupEnabled reports whether group-walk events are recorded.
func (r *Recorder) GroupEnabled() bool {
	return r != nil && r.channels&ChannelGroup != 0
}

// PermissionEnabled reports whether permission-match events are recorded.
func (r *Recorder) PermissionEnabled() bool {
	return r != nil && r.channels&ChannelPermission != 0
}

// InfoEnabled reports whether free-form info events are recorded.
func (r *Recorder) InfoEnabled() bool {
	return r != nil && r.channels&ChannelInfo != 0
}

// RecordGroup appends a group-walk event if the group channel is enabled.
func (r *Recorder) RecordGroup(side Side, id string, depth int, rec storage.Record, residual uint16) {
	if !r.GroupEnabled() {
		return
	}
	ev := GroupEvent{Side: side, ID: id, Depth: depth, Record: rec, Residual: residual}
	if side == SideResource {
		r.resourceWalk = append(r.resourceWalk, ev)
	} else {
		r.subjectWalk = append(r.subjectWalk, ev)
	}
}

// RecordPermission appends a permission-match event if the permission
// channel is enabled.
func (r *Recorder) RecordPermission(resourceGroup, subjectGroup string, access, grant, deny uint16, residual uint16) {
	if !r.PermissionEnabled() {
		return
	}
	r.permissionHits = append(r.permissionHits, PermissionEvent{
		ResourceGroup: resourceGroup,
		SubjectGroup:  subjectGroup,
		Access:        access,
		Grant:         grant,
		Deny:          deny,
		Residual:      residual,
	})
}

// RecordInfo appends a free-form info event if the info channel is enabled.
func (r *Recorder) RecordInfo(msg string) {
	if !r.InfoEnabled() {
		return
	}
	r.info = append(r.info, msg)
}

// MarkTruncated flags the decision as having hit the depth bound on at
// least one side.
func (r *Recorder) MarkTruncated() {
	if r == nil {
		return
	}
	r.truncated = true
}
