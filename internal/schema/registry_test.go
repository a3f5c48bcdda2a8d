package schema

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/groblegark/krecords/internal/model"
	"github.com/groblegark/krecords/internal/store/storetest"
)

func newTestRegistry(t *testing.T) (*Registry, *storetest.MemStore) {
	t.Helper()
	ms := storetest.New()
	return New(ms, nil), ms
}

func TestCreateObjectType(t *testing.T) {
	r, _ := newTestRegistry(t)

	ot := &model.ObjectType{APIName: "account", Name: "Account"}
	if err := r.CreateObjectType(context.Background(), ot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ot.ID == "" {
		t.Error("id should be generated")
	}
	if ot.CreatedAt.IsZero() || ot.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}

func TestCreateObjectType_Validation(t *testing.T) {
	r, _ := newTestRegistry(t)

	bad := []*model.ObjectType{
		{APIName: "", Name: "X"},
		{APIName: "Account", Name: "X"},  // uppercase
		{APIName: "1account", Name: "X"}, // leading digit
		{APIName: "my-type", Name: "X"},  // hyphen
		{APIName: "account", Name: ""},   // missing name
	}
	for _, ot := range bad {
		if err := r.CreateObjectType(context.Background(), ot); err == nil {
			t.Errorf("expected error for %+v", ot)
		}
	}
}

func TestCreateField(t *testing.T) {
	r, ms := newTestRegistry(t)
	now := time.Now().UTC()
	ms.ObjectTypes["obj-1"] = &model.ObjectType{ID: "obj-1", APIName: "account", Name: "Account", CreatedAt: now, UpdatedAt: now}

	f := &model.FieldDefinition{ObjectTypeID: "obj-1", APIName: "name", Name: "Name", DataType: model.TypeText}
	if err := r.CreateField(context.Background(), f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.ID == "" {
		t.Error("id should be generated")
	}
	if f.DisplayOrder != 1 {
		t.Errorf("first field should get display_order 1, got %d", f.DisplayOrder)
	}

	// Second field appends.
	f2 := &model.FieldDefinition{ObjectTypeID: "obj-1", APIName: "email", Name: "Email", DataType: model.TypeEmail}
	if err := r.CreateField(context.Background(), f2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f2.DisplayOrder != 2 {
		t.Errorf("second field should get display_order 2, got %d", f2.DisplayOrder)
	}

	// Duplicate api_name within the type is rejected.
	dup := &model.FieldDefinition{ObjectTypeID: "obj-1", APIName: "name", Name: "Name 2", DataType: model.TypeText}
	if err := r.CreateField(context.Background(), dup); err == nil {
		t.Error("duplicate api_name should be rejected")
	}
}

func TestCreateField_Validation(t *testing.T) {
	r, ms := newTestRegistry(t)
	now := time.Now().UTC()
	ms.ObjectTypes["obj-1"] = &model.ObjectType{ID: "obj-1", APIName: "account", Name: "Account", CreatedAt: now, UpdatedAt: now}

	tests := []struct {
		desc  string
		field *model.FieldDefinition
	}{
		{"bad api_name", &model.FieldDefinition{ObjectTypeID: "obj-1", APIName: "Bad Name", Name: "X", DataType: model.TypeText}},
		{"unknown data_type", &model.FieldDefinition{ObjectTypeID: "obj-1", APIName: "x", Name: "X", DataType: "varchar"}},
		{"lookup without target", &model.FieldDefinition{ObjectTypeID: "obj-1", APIName: "x", Name: "X", DataType: model.TypeLookup}},
		{"lookup dangling target", &model.FieldDefinition{ObjectTypeID: "obj-1", APIName: "x", Name: "X", DataType: model.TypeLookup, Options: json.RawMessage(`{"target_object_type_id":"obj-gone"}`)}},
		{"picklist without options", &model.FieldDefinition{ObjectTypeID: "obj-1", APIName: "x", Name: "X", DataType: model.TypePicklist}},
	}
	for _, tt := range tests {
		if err := r.CreateField(context.Background(), tt.field); err == nil {
			t.Errorf("%s: expected error", tt.desc)
		}
	}
}

func TestCreateField_LookupTargetMustExist(t *testing.T) {
	r, ms := newTestRegistry(t)
	now := time.Now().UTC()
	ms.ObjectTypes["obj-contact"] = &model.ObjectType{ID: "obj-contact", APIName: "contact", Name: "Contact", CreatedAt: now, UpdatedAt: now}
	ms.ObjectTypes["obj-account"] = &model.ObjectType{ID: "obj-account", APIName: "account", Name: "Account", CreatedAt: now, UpdatedAt: now}

	f := &model.FieldDefinition{
		ObjectTypeID: "obj-contact", APIName: "account_id", Name: "Account",
		DataType: model.TypeLookup,
		Options:  json.RawMessage(`{"target_object_type_id":"obj-account"}`),
	}
	if err := r.CreateField(context.Background(), f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDataTypes(t *testing.T) {
	r, ms := newTestRegistry(t)
	ms.Fields["fld-1"] = &model.FieldDefinition{ID: "fld-1", ObjectTypeID: "obj-1", APIName: "name", DataType: model.TypeText, DisplayOrder: 1}
	ms.Fields["fld-2"] = &model.FieldDefinition{ID: "fld-2", ObjectTypeID: "obj-1", APIName: "amount", DataType: model.TypeCurrency, DisplayOrder: 2}

	types, err := r.DataTypes(context.Background(), "obj-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if types["name"] != model.TypeText || types["amount"] != model.TypeCurrency {
		t.Errorf("unexpected mapping: %v", types)
	}
}

func TestLookupFieldsTargeting(t *testing.T) {
	r, ms := newTestRegistry(t)
	ms.Fields["fld-1"] = &model.FieldDefinition{ID: "fld-1", ObjectTypeID: "obj-contact", APIName: "account_id", DataType: model.TypeLookup, DisplayOrder: 1, Options: json.RawMessage(`{"target_object_type_id":"obj-account"}`)}
	ms.Fields["fld-2"] = &model.FieldDefinition{ID: "fld-2", ObjectTypeID: "obj-contact", APIName: "referred_by", DataType: model.TypeLookup, DisplayOrder: 2, Options: json.RawMessage(`{"target_object_type_id":"obj-contact"}`)}
	ms.Fields["fld-3"] = &model.FieldDefinition{ID: "fld-3", ObjectTypeID: "obj-contact", APIName: "name", DataType: model.TypeText, DisplayOrder: 3}
	ms.Fields["fld-4"] = &model.FieldDefinition{ID: "fld-4", ObjectTypeID: "obj-contact", APIName: "broken", DataType: model.TypeLookup, DisplayOrder: 4, Options: json.RawMessage(`{oops`)}

	lookups, err := r.LookupFieldsTargeting(context.Background(), "obj-contact", "obj-account")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lookups) != 1 || lookups[0].APIName != "account_id" {
		t.Fatalf("unexpected lookups: %v", lookups)
	}
}

func TestCreateRelationship(t *testing.T) {
	r, ms := newTestRegistry(t)
	now := time.Now().UTC()
	ms.ObjectTypes["obj-a"] = &model.ObjectType{ID: "obj-a", APIName: "a", Name: "A", CreatedAt: now, UpdatedAt: now}
	ms.ObjectTypes["obj-b"] = &model.ObjectType{ID: "obj-b", APIName: "b", Name: "B", CreatedAt: now, UpdatedAt: now}

	rel := &model.Relationship{Name: "links", FromObjectID: "obj-a", ToObjectID: "obj-b"}
	if err := r.CreateRelationship(context.Background(), rel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rel.ID == "" {
		t.Error("id should be generated")
	}
	if rel.RelationshipType != model.RelationshipOneToMany {
		t.Errorf("type should default to one_to_many, got %s", rel.RelationshipType)
	}

	// Dangling endpoints are rejected.
	bad := &model.Relationship{Name: "links", FromObjectID: "obj-a", ToObjectID: "obj-gone"}
	if err := r.CreateRelationship(context.Background(), bad); err == nil {
		t.Error("dangling to_object_id should be rejected")
	}
	bad = &model.Relationship{Name: "", FromObjectID: "obj-a", ToObjectID: "obj-b"}
	if err := r.CreateRelationship(context.Background(), bad); err == nil {
		t.Error("empty name should be rejected")
	}
}

func TestArchiveObjectType(t *testing.T) {
	r, ms := newTestRegistry(t)
	now := time.Now().UTC()
	ms.ObjectTypes["obj-1"] = &model.ObjectType{ID: "obj-1", APIName: "account", Name: "Account", CreatedAt: now, UpdatedAt: now}

	if err := r.ArchiveObjectType(context.Background(), "obj-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	types, err := r.ListObjectTypes(context.Background(), false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(types) != 0 {
		t.Errorf("archived type should be excluded from default listing")
	}
	types, _ = r.ListObjectTypes(context.Background(), true)
	if len(types) != 1 {
		t.Errorf("archived type should appear with include_archived")
	}
}
