package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/groblegark/krecords/internal/model"
	"github.com/groblegark/krecords/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

// objectTypeRowColumns is the column list for scanObjectType results.
var objectTypeRowColumns = []string{
	"id", "api_name", "name", "default_field_api_name",
	"is_system", "is_published", "is_archived", "owner_id", "created_at", "updated_at",
}

// fieldRowColumns is the column list for scanField results.
var fieldRowColumns = []string{
	"id", "object_type_id", "api_name", "name", "data_type",
	"is_required", "display_order", "options", "created_at", "updated_at",
}

// recordWithTotalColumns is the column list for queryListRecords results
// (total_count + record columns).
var recordWithTotalColumns = []string{
	"total_count",
	"id", "object_type_id", "owner_id", "created_at", "updated_at",
}

func TestParseSortClause(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  string
	}{
		{"", "created_at DESC"},
		{"updated_at", "updated_at ASC"},
		{"-updated_at", "updated_at DESC"},
		{"value", "created_at DESC"},
		{"-value", "created_at DESC"},
		{"created_at; DROP TABLE records", "created_at DESC"},
	} {
		if got := parseSortClause(tc.input); got != tc.want {
			t.Errorf("parseSortClause(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
	// All allowed columns.
	for _, col := range []string{"created_at", "updated_at", "id"} {
		if got := parseSortClause(col); got != col+" ASC" {
			t.Errorf("parseSortClause(%q) = %q, want %q", col, got, col+" ASC")
		}
		if got := parseSortClause("-" + col); got != col+" DESC" {
			t.Errorf("parseSortClause(-%q) = %q, want %q", col, got, col+" DESC")
		}
	}
}

func TestScanHelpers(t *testing.T) {
	// nullString
	if nullString("").Valid {
		t.Error("nullString(\"\") should be invalid")
	}
	if ns := nullString("owner-1"); !ns.Valid || ns.String != "owner-1" {
		t.Errorf("nullString(\"owner-1\") = %v", ns)
	}

	// jsonbBytes
	if jsonbBytes(nil) != nil {
		t.Error("jsonbBytes(nil) should be nil")
	}
	if jsonbBytes(json.RawMessage{}) != nil {
		t.Error("jsonbBytes({}) should be nil")
	}
	input := json.RawMessage(`{"picklist":[]}`)
	if string(jsonbBytes(input)) != `{"picklist":[]}` {
		t.Errorf("jsonbBytes round trip failed: %s", jsonbBytes(input))
	}

	// marshalVisibleFields encodes nil as an empty JSON array, never null.
	data, err := marshalVisibleFields(nil)
	if err != nil {
		t.Fatalf("marshalVisibleFields(nil): %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("marshalVisibleFields(nil) = %s, want []", data)
	}
	data, _ = marshalVisibleFields([]string{"name", "email"})
	if string(data) != `["name","email"]` {
		t.Errorf("marshalVisibleFields = %s", data)
	}
}

func TestGetObjectType(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM object_types WHERE id = \\$1").
		WithArgs("obj-1").
		WillReturnRows(sqlmock.NewRows(objectTypeRowColumns).
			AddRow("obj-1", "account", "Account", "name", false, true, false, nil, now, now))
	mock.ExpectQuery("SELECT .+ FROM field_definitions WHERE object_type_id = \\$1 ORDER BY display_order ASC, api_name ASC").
		WithArgs("obj-1").
		WillReturnRows(sqlmock.NewRows(fieldRowColumns).
			AddRow("fld-1", "obj-1", "name", "Name", "text", false, 1, nil, now, now).
			AddRow("fld-2", "obj-1", "stage", "Stage", "picklist", false, 2, []byte(`{"picklist":[{"value":"open","label":"Open"}]}`), now, now))

	ot, err := s.GetObjectType(context.Background(), "obj-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ot.APIName != "account" || ot.DefaultFieldAPIName != "name" || !ot.IsPublished {
		t.Errorf("unexpected object type: %+v", ot)
	}
	if len(ot.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(ot.Fields))
	}
	if ot.Fields[1].DataType != model.TypePicklist || len(ot.Fields[1].Options) == 0 {
		t.Errorf("picklist field lost its options: %+v", ot.Fields[1])
	}
}

func TestGetObjectType_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectQuery("SELECT .+ FROM object_types WHERE id = \\$1").
		WithArgs("obj-gone").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetObjectType(context.Background(), "obj-gone")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected store.ErrNotFound, got %v", err)
	}
}

func TestUpsertAttribute(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectExec("INSERT INTO attribute_values .+ ON CONFLICT \\(record_id, field_api_name\\) DO UPDATE SET value = \\$3, updated_at = NOW\\(\\)").
		WithArgs("rec-1", "revenue", "1500.5").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.UpsertAttribute(context.Background(), "rec-1", "revenue", "1500.5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListRecords_EqualityPushdown(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}
	now := time.Now()

	// The equality condition becomes an EXISTS point query against the EAV
	// table; the greaterThan and empty-value conditions stay out of the SQL.
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) OVER\\(\\) AS total_count, .+ FROM records WHERE object_type_id = \\$1 AND EXISTS \\(SELECT 1 FROM attribute_values av WHERE av\\.record_id = records\\.id AND av\\.field_api_name = \\$2 AND av\\.value = \\$3\\) ORDER BY created_at DESC LIMIT \\$4").
		WithArgs("obj-1", "stage", "open", 10).
		WillReturnRows(sqlmock.NewRows(recordWithTotalColumns).
			AddRow(2, "rec-1", "obj-1", nil, now, now).
			AddRow(2, "rec-2", "obj-1", "owner-1", now, now))
	mock.ExpectQuery("SELECT record_id, field_api_name, value FROM attribute_values WHERE record_id = ANY\\(\\$1\\)").
		WithArgs(pq.Array([]string{"rec-1", "rec-2"})).
		WillReturnRows(sqlmock.NewRows([]string{"record_id", "field_api_name", "value"}).
			AddRow("rec-1", "stage", "open").
			AddRow("rec-2", "stage", "open").
			AddRow("rec-2", "amount", "200"))

	records, total, err := s.ListRecords(context.Background(), model.RecordFilter{
		ObjectTypeID: "obj-1",
		Conditions: []model.FilterCondition{
			{FieldAPIName: "stage", Operator: model.OpEquals, Value: "open"},
			{FieldAPIName: "amount", Operator: model.OpGreaterThan, Value: "100"},
			{FieldAPIName: "email", Operator: model.OpEquals, Value: ""},
		},
		Limit: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(records) != 2 {
		t.Fatalf("got %d records, total %d", len(records), total)
	}
	if records[1].OwnerID != "owner-1" {
		t.Errorf("owner not scanned: %+v", records[1])
	}
	if records[1].Attributes["amount"] != "200" {
		t.Errorf("attributes not attached: %v", records[1].Attributes)
	}
}

func TestListRecords_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	// No rows means no attribute batch query either.
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) OVER\\(\\) AS total_count, .+ FROM records WHERE object_type_id = \\$1 ORDER BY created_at DESC").
		WithArgs("obj-1").
		WillReturnRows(sqlmock.NewRows(recordWithTotalColumns))

	records, total, err := s.ListRecords(context.Background(), model.RecordFilter{ObjectTypeID: "obj-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 || len(records) != 0 {
		t.Errorf("got %d records, total %d", len(records), total)
	}
}

func TestListRecordIDsByAttribute(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectQuery("SELECT record_id FROM attribute_values WHERE field_api_name = ANY\\(\\$1\\) AND value = \\$2 ORDER BY record_id").
		WithArgs(pq.Array([]string{"account_id", "billing_account_id"}), "rec-acme").
		WillReturnRows(sqlmock.NewRows([]string{"record_id"}).
			AddRow("rec-alice").
			AddRow("rec-bob"))

	ids, err := s.ListRecordIDsByAttribute(context.Background(), []string{"account_id", "billing_account_id"}, "rec-acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "rec-alice" || ids[1] != "rec-bob" {
		t.Errorf("unexpected ids: %v", ids)
	}

	// Empty field list short-circuits without touching the database.
	ids, err = s.ListRecordIDsByAttribute(context.Background(), nil, "rec-acme")
	if err != nil || ids != nil {
		t.Errorf("empty field list: got %v, %v", ids, err)
	}
}

func TestDeleteField_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectExec("DELETE FROM field_definitions WHERE id = \\$1").
		WithArgs("fld-gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.DeleteField(context.Background(), "fld-gone"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected store.ErrNotFound, got %v", err)
	}
}

func TestVisibleFields(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectExec("INSERT INTO preferences .+ ON CONFLICT \\(user_id, object_type_id\\) DO UPDATE SET visible_fields = \\$3, updated_at = NOW\\(\\)").
		WithArgs("user-1", "obj-1", []byte(`["name","email"]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT visible_fields FROM preferences WHERE user_id = \\$1 AND object_type_id = \\$2").
		WithArgs("user-1", "obj-1").
		WillReturnRows(sqlmock.NewRows([]string{"visible_fields"}).AddRow([]byte(`["name","email"]`)))

	if err := s.SetVisibleFields(context.Background(), "user-1", "obj-1", []string{"name", "email"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	fields, err := s.GetVisibleFields(context.Background(), "user-1", "obj-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(fields) != 2 || fields[0] != "name" || fields[1] != "email" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestVisibleFields_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectQuery("SELECT visible_fields FROM preferences WHERE user_id = \\$1 AND object_type_id = \\$2").
		WithArgs("user-2", "obj-1").
		WillReturnError(sql.ErrNoRows)

	if _, err := s.GetVisibleFields(context.Background(), "user-2", "obj-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected store.ErrNotFound, got %v", err)
	}
}

func TestListRelationshipsForObjectType(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM relationships WHERE from_object_id = \\$1 OR to_object_id = \\$1 ORDER BY created_at ASC, id ASC").
		WithArgs("obj-account").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "from_object_id", "to_object_id", "relationship_type", "created_by", "created_at"}).
			AddRow("rel-1", "contacts", "obj-account", "obj-contact", "one_to_many", nil, now).
			AddRow("rel-2", "deals", "obj-account", "obj-deal", nil, "user-1", now.Add(time.Second)))

	rels, err := s.ListRelationshipsForObjectType(context.Background(), "obj-account")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rels) != 2 {
		t.Fatalf("expected 2 relationships, got %d", len(rels))
	}
	if rels[0].RelationshipType != model.RelationshipOneToMany {
		t.Errorf("relationship_type not scanned: %+v", rels[0])
	}
	if rels[1].RelationshipType != "" || rels[1].CreatedBy != "user-1" {
		t.Errorf("null relationship_type handling: %+v", rels[1])
	}
}

func TestRunInTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attribute_values").
		WithArgs("rec-1", "name", "Acme").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE records SET updated_at = NOW\\(\\) WHERE id = \\$1").
		WithArgs("rec-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		if err := tx.UpsertAttribute(context.Background(), "rec-1", "name", "Acme"); err != nil {
			return err
		}
		return tx.TouchRecord(context.Background(), "rec-1")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunInTransaction_RollbackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectBegin()
	mock.ExpectRollback()

	wantErr := errors.New("boom")
	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected callback error, got %v", err)
	}
}
