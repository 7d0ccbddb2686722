// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

package fixlang

import (
	"fmt"

	"github.com/samber/oops"

	"github.com/grantgraph/grantgraph/fixtures"
	"github.com/grantgraph/grantgraph/storage"
)

// Parse parses fixture text into a Document without loading it
// anywhere, useful for inspection or re-serialization.
func Parse(text string) (*Document, error) {
	doc, err := fixlangParser.ParseString("", text)
	if err != nil {
		return nil, oops.Wrapf(err, "parsing fixture text")
	}
	return doc, nil
}

// Load parses text and populates dst with the rows it describes.
func Load(dst *fixtures.MemoryStorage, text string) error {
	doc, err := Parse(text)
	if err != nil {
		return err
	}
	for _, row := range doc.Rows {
		switch row.Kind {
		case "F":
			if len(row.Entries) != 1 || row.Entries[0].SubjectID != "" {
				return oops.
					Code("FIXTURE_INVALID").
					With("id", row.ID).
					Errorf("F<%s> row must carry exactly one bare mask value", row.ID)
			}
			dst.SetFilter(row.ID, uint16(row.Entries[0].Mask))
		case "M":
			dst.SetMembership(row.ID, row.Terminal, toRecords(row.Entries)...)
		case "P":
			dst.SetPermissions(row.ID, row.Terminal, toRecords(row.Entries)...)
		default:
			return fmt.Errorf("fixlang: unknown row kind %q", row.Kind)
		}
	}
	return nil
}

func toRecords(entries []*Entry) []storage.Record {
	recs := make([]storage.Record, 0, len(entries))
	for _, e := range entries {
		recs = append(recs, storage.Record{
			SubjectID: e.SubjectID,
			Access:    uint16(e.Mask),
			Marker:    markerFrom(e.Marker),
		})
	}
	return recs
}

func markerFrom(s string) storage.Marker {
	if s == "" {
		return storage.MarkerNone
	}
	return storage.Marker(s[0])
}
