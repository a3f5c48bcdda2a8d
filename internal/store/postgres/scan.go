package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/groblegark/krecords/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanObjectType scans a single row into a model.ObjectType.
// The row must contain columns in the order defined by objectTypeColumns.
func scanObjectType(row scannable) (*model.ObjectType, error) {
	var ot model.ObjectType
	var (
		defaultField sql.NullString
		ownerID      sql.NullString
	)

	err := row.Scan(
		&ot.ID,
		&ot.APIName,
		&ot.Name,
		&defaultField,
		&ot.IsSystem,
		&ot.IsPublished,
		&ot.IsArchived,
		&ownerID,
		&ot.CreatedAt,
		&ot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ot.DefaultFieldAPIName = defaultField.String
	ot.OwnerID = ownerID.String
	return &ot, nil
}

// scanObjectTypes scans multiple rows into a slice of model.ObjectType pointers.
func scanObjectTypes(rows *sql.Rows) ([]*model.ObjectType, error) {
	var types []*model.ObjectType
	for rows.Next() {
		ot, err := scanObjectType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, ot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return types, nil
}

// scanField scans a single row into a model.FieldDefinition.
func scanField(row scannable) (*model.FieldDefinition, error) {
	var f model.FieldDefinition
	var options []byte

	err := row.Scan(
		&f.ID,
		&f.ObjectTypeID,
		&f.APIName,
		&f.Name,
		&f.DataType,
		&f.IsRequired,
		&f.DisplayOrder,
		&options,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(options) > 0 {
		f.Options = json.RawMessage(options)
	}
	return &f, nil
}

// scanFields scans multiple rows into a slice of model.FieldDefinition pointers.
func scanFields(rows *sql.Rows) ([]*model.FieldDefinition, error) {
	var fields []*model.FieldDefinition
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fields, nil
}

// scanRecord scans a single row into a model.Record.
// The row must contain columns in the order defined by recordColumns.
func scanRecord(row scannable) (*model.Record, error) {
	var r model.Record
	var ownerID sql.NullString

	err := row.Scan(
		&r.ID,
		&r.ObjectTypeID,
		&ownerID,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.OwnerID = ownerID.String
	return &r, nil
}

// scanRecordWithTotal scans a row that has a leading total_count column
// followed by the standard record columns. Used by queryListRecords with
// COUNT(*) OVER().
func scanRecordWithTotal(row scannable) (*model.Record, int, error) {
	var total int
	var r model.Record
	var ownerID sql.NullString

	err := row.Scan(
		&total,
		&r.ID,
		&r.ObjectTypeID,
		&ownerID,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, 0, err
	}

	r.OwnerID = ownerID.String
	return &r, total, nil
}

// scanRelationship scans a single row into a model.Relationship.
func scanRelationship(row scannable) (*model.Relationship, error) {
	var rel model.Relationship
	var (
		relType   sql.NullString
		createdBy sql.NullString
	)
	err := row.Scan(
		&rel.ID,
		&rel.Name,
		&rel.FromObjectID,
		&rel.ToObjectID,
		&relType,
		&createdBy,
		&rel.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rel.RelationshipType = model.RelationshipType(relType.String)
	rel.CreatedBy = createdBy.String
	return &rel, nil
}

// scanRelationships scans multiple rows into a slice of model.Relationship pointers.
func scanRelationships(rows *sql.Rows) ([]*model.Relationship, error) {
	var rels []*model.Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rels, nil
}

// marshalVisibleFields encodes a visible-field list for the JSONB column.
func marshalVisibleFields(fields []string) ([]byte, error) {
	if fields == nil {
		fields = []string{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal visible fields: %w", err)
	}
	return data, nil
}

// scanVisibleFields decodes the JSONB visible-field list.
func scanVisibleFields(row scannable) ([]string, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		return nil, err
	}
	var fields []string
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal visible fields: %w", err)
	}
	return fields, nil
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// jsonbBytes converts json.RawMessage to a []byte suitable for JSONB columns.
func jsonbBytes(m json.RawMessage) []byte {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}
