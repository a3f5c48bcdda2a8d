package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/groblegark/krecords/internal/model"
	"github.com/groblegark/krecords/internal/store/storetest"
)

func TestExportJSONL_Empty(t *testing.T) {
	ms := storetest.New()
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.ObjectTypeCount != 0 || h.RecordCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_FullSnapshot(t *testing.T) {
	ms := storetest.New()
	now := time.Now().UTC()

	ms.ObjectTypes["obj-account"] = &model.ObjectType{ID: "obj-account", APIName: "account", Name: "Account", CreatedAt: now, UpdatedAt: now}
	ms.ObjectTypes["obj-contact"] = &model.ObjectType{ID: "obj-contact", APIName: "contact", Name: "Contact", CreatedAt: now, UpdatedAt: now}

	// Records out of ID order to verify sorting.
	ms.Records["rec-zzz"] = &model.Record{ID: "rec-zzz", ObjectTypeID: "obj-contact", CreatedAt: now, UpdatedAt: now}
	ms.Records["rec-aaa"] = &model.Record{ID: "rec-aaa", ObjectTypeID: "obj-account", CreatedAt: now, UpdatedAt: now}
	ms.Attributes["rec-aaa"] = model.AttributeMap{"name": "Acme"}

	// One relationship touching both types; must appear exactly once.
	ms.Relationships["rel-1"] = &model.Relationship{ID: "rel-1", Name: "contacts", FromObjectID: "obj-account", ToObjectID: "obj-contact", CreatedAt: now}

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 2 object types + 2 records + 1 relationship = 6 lines
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.ObjectTypeCount != 2 || h.RecordCount != 2 || h.RelationshipCount != 1 {
		t.Fatalf("header counts: types=%d records=%d rels=%d", h.ObjectTypeCount, h.RecordCount, h.RelationshipCount)
	}

	// Records sorted by ID (rec-aaa before rec-zzz), attributes embedded.
	var rec3, rec4 record
	if err := json.Unmarshal([]byte(lines[3]), &rec3); err != nil {
		t.Fatalf("unmarshal line 3: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[4]), &rec4); err != nil {
		t.Fatalf("unmarshal line 4: %v", err)
	}
	if rec3.Type != "record" || rec4.Type != "record" {
		t.Fatalf("expected record types, got %q and %q", rec3.Type, rec4.Type)
	}

	data3, _ := json.Marshal(rec3.Data)
	data4, _ := json.Marshal(rec4.Data)
	var r1, r2 model.Record
	if err := json.Unmarshal(data3, &r1); err != nil {
		t.Fatalf("unmarshal r1: %v", err)
	}
	if err := json.Unmarshal(data4, &r2); err != nil {
		t.Fatalf("unmarshal r2: %v", err)
	}
	if r1.ID != "rec-aaa" || r2.ID != "rec-zzz" {
		t.Fatalf("records not sorted: got %q, %q", r1.ID, r2.ID)
	}
	if r1.Attributes["name"] != "Acme" {
		t.Fatalf("expected embedded attributes, got %v", r1.Attributes)
	}

	var rec5 record
	if err := json.Unmarshal([]byte(lines[5]), &rec5); err != nil {
		t.Fatalf("unmarshal line 5: %v", err)
	}
	if rec5.Type != "relationship" {
		t.Fatalf("expected relationship type, got %q", rec5.Type)
	}
}

func TestExportJSONL_IncludesArchivedTypes(t *testing.T) {
	ms := storetest.New()
	now := time.Now().UTC()
	ms.ObjectTypes["obj-old"] = &model.ObjectType{ID: "obj-old", APIName: "old", Name: "Old", IsArchived: true, CreatedAt: now, UpdatedAt: now}

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 2 {
		t.Fatalf("expected header + archived type, got %d lines", len(lines))
	}
}

func nonEmptyLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}
