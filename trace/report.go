// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package trace

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/oklog/ulid/v2"
	jsonschemav6 "github.com/santhosh-tekuri/jsonschema/v6"
)

// Report is the serialized, human-readable explanation of one decision.
type Report struct {
	DecisionID     string            `json:"decision_id" jsonschema_description:"ULID identifying this decision"`
	ResourceID     string            `json:"resource_id"`
	SubjectID      string            `json:"subject_id"`
	Requested      uint16            `json:"requested_mask"`
	Final          uint16            `json:"final_mask"`
	Truncated      bool              `json:"truncated"`
	ResourceWalk   []GroupEvent      `json:"resource_walk,omitempty"`
	SubjectWalk    []GroupEvent      `json:"subject_walk,omitempty"`
	PermissionHits []PermissionEvent `json:"permission_hits,omitempty"`
	Info           []string          `json:"info,omitempty"`
}

// Report assembles the Recorder's accumulated events into a Report for
// the given decision parameters and final mask.
func (r *Recorder) Report(resourceID, subjectID string, requested, final uint16) *Report {
	id := ulid.ULID{}
	if r != nil {
		id = r.id
	}
	rep := &Report{
		DecisionID: id.String(),
		ResourceID: resourceID,
		SubjectID:  subjectID,
		Requested:  requested,
		Final:      final,
	}
	if r == nil {
		return rep
	}
	rep.Truncated = r.truncated
	rep.ResourceWalk = r.resourceWalk
	rep.SubjectWalk = r.subjectWalk
	rep.PermissionHits = r.permissionHits
	rep.Info = r.info
	return rep
}

var (
	schemaOnce sync.Once
	schemaDoc  *jsonschema.Schema
	validator  *jsonschemav6.Schema
	schemaErr  error
)

// Schema returns the JSON Schema describing the Report shape, generated
// once from the Go struct tags.
func Schema() *jsonschema.Schema {
	buildSchema()
	return schemaDoc
}

// Validate checks that a Report serializes to something conforming to
// Schema(). It is used by the CLI to sanity-check its own output before
// printing; a failure here indicates a bug in Report construction, not
// bad input.
func Validate(rep *Report) error {
	buildSchema()
	if schemaErr != nil {
		return schemaErr
	}
	raw, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return validator.Validate(doc)
}

func buildSchema() {
	schemaOnce.Do(func() {
		reflector := &jsonschema.Reflector{ExpandedStruct: true}
		schemaDoc = reflector.Reflect(&Report{})

		raw, err := json.Marshal(schemaDoc)
		if err != nil {
			schemaErr = err
			return
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			schemaErr = err
			return
		}
		compiler := jsonschemav6.NewCompiler()
		const resourceName = "grantgraph-trace-report.json"
		if err := compiler.AddResource(resourceName, doc); err != nil {
			schemaErr = err
			return
		}
		validator, schemaErr = compiler.Compile(resourceName)
	})
}
