// Package sync exports periodic snapshots of the record engine's state to
// external destinations.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/groblegark/krecords/internal/model"
	"github.com/groblegark/krecords/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version           string    `json:"version"`
	Type              string    `json:"type"`
	Timestamp         time.Time `json:"timestamp"`
	ObjectTypeCount   int       `json:"object_type_count"`
	RecordCount       int       `json:"record_count"`
	RelationshipCount int       `json:"relationship_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes the full schema and record state as JSONL to w: a header
// line, then object types (fields embedded), records (attributes embedded),
// and relationship rows. Archived object types are included so the snapshot
// is a complete restore source.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	types, err := s.ListObjectTypes(ctx, true)
	if err != nil {
		return fmt.Errorf("list object types: %w", err)
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i].ID < types[j].ID
	})

	var records []*model.Record
	relSeen := make(map[string]bool)
	var rels []*model.Relationship
	for _, ot := range types {
		recs, _, err := s.ListRecords(ctx, model.RecordFilter{ObjectTypeID: ot.ID, Sort: "created_at"})
		if err != nil {
			return fmt.Errorf("list records of %s: %w", ot.ID, err)
		}
		records = append(records, recs...)

		// Relationship rows show up once per endpoint; dedup by id.
		typeRels, err := s.ListRelationshipsForObjectType(ctx, ot.ID)
		if err != nil {
			return fmt.Errorf("list relationships of %s: %w", ot.ID, err)
		}
		for _, rel := range typeRels {
			if !relSeen[rel.ID] {
				relSeen[rel.ID] = true
				rels = append(rels, rel)
			}
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
	sort.Slice(rels, func(i, j int) bool {
		return rels[i].ID < rels[j].ID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:           "1",
		Type:              "header",
		Timestamp:         time.Now().UTC(),
		ObjectTypeCount:   len(types),
		RecordCount:       len(records),
		RelationshipCount: len(rels),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, ot := range types {
		if err := enc.Encode(record{Type: "object_type", Data: ot}); err != nil {
			return fmt.Errorf("encode object type %s: %w", ot.ID, err)
		}
	}
	for _, r := range records {
		if err := enc.Encode(record{Type: "record", Data: r}); err != nil {
			return fmt.Errorf("encode record %s: %w", r.ID, err)
		}
	}
	for _, rel := range rels {
		if err := enc.Encode(record{Type: "relationship", Data: rel}); err != nil {
			return fmt.Errorf("encode relationship %s: %w", rel.ID, err)
		}
	}

	return nil
}
