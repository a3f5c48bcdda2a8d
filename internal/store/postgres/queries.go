package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/groblegark/krecords/internal/model"
	"github.com/groblegark/krecords/internal/store"
)

// objectTypeColumns is the column list for SELECTs on the object_types table.
const objectTypeColumns = `id, api_name, name, default_field_api_name,
	is_system, is_published, is_archived, owner_id, created_at, updated_at`

// fieldColumns is the column list for SELECTs on the field_definitions table.
const fieldColumns = `id, object_type_id, api_name, name, data_type,
	is_required, display_order, options, created_at, updated_at`

// recordColumns is the column list for SELECTs on the records table.
const recordColumns = `id, object_type_id, owner_id, created_at, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// notFound maps sql.ErrNoRows to the store's recoverable sentinel.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func queryCreateObjectType(ctx context.Context, db executor, ot *model.ObjectType) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO object_types (
			id, api_name, name, default_field_api_name,
			is_system, is_published, is_archived, owner_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ot.ID,
		ot.APIName,
		ot.Name,
		nullString(ot.DefaultFieldAPIName),
		ot.IsSystem,
		ot.IsPublished,
		ot.IsArchived,
		nullString(ot.OwnerID),
		ot.CreatedAt,
		ot.UpdatedAt,
	)
	return err
}

func queryGetObjectType(ctx context.Context, db executor, id string) (*model.ObjectType, error) {
	row := db.QueryRowContext(ctx, `SELECT `+objectTypeColumns+` FROM object_types WHERE id = $1`, id)
	ot, err := scanObjectType(row)
	if err != nil {
		return nil, notFound(err)
	}

	fields, err := queryListFields(ctx, db, id)
	if err != nil {
		return nil, err
	}
	ot.Fields = fields

	return ot, nil
}

func queryGetObjectTypeByAPIName(ctx context.Context, db executor, apiName string) (*model.ObjectType, error) {
	row := db.QueryRowContext(ctx, `SELECT `+objectTypeColumns+` FROM object_types WHERE api_name = $1`, apiName)
	ot, err := scanObjectType(row)
	if err != nil {
		return nil, notFound(err)
	}

	fields, err := queryListFields(ctx, db, ot.ID)
	if err != nil {
		return nil, err
	}
	ot.Fields = fields

	return ot, nil
}

func queryListObjectTypes(ctx context.Context, db executor, includeArchived bool) ([]*model.ObjectType, error) {
	q := `SELECT ` + objectTypeColumns + ` FROM object_types`
	if !includeArchived {
		q += ` WHERE NOT is_archived`
	}
	q += ` ORDER BY name ASC`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanObjectTypes(rows)
}

func queryUpdateObjectType(ctx context.Context, db executor, ot *model.ObjectType) error {
	return notFound(db.QueryRowContext(ctx, `
		UPDATE object_types SET
			api_name = $2,
			name = $3,
			default_field_api_name = $4,
			is_published = $5,
			is_archived = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		ot.ID,
		ot.APIName,
		ot.Name,
		nullString(ot.DefaultFieldAPIName),
		ot.IsPublished,
		ot.IsArchived,
	).Scan(&ot.UpdatedAt))
}

func queryArchiveObjectType(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE object_types SET is_archived = TRUE, updated_at = NOW()
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func queryCreateField(ctx context.Context, db executor, f *model.FieldDefinition) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO field_definitions (
			id, object_type_id, api_name, name, data_type,
			is_required, display_order, options, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		f.ID,
		f.ObjectTypeID,
		f.APIName,
		f.Name,
		string(f.DataType),
		f.IsRequired,
		f.DisplayOrder,
		jsonbBytes(f.Options),
		f.CreatedAt,
		f.UpdatedAt,
	)
	return err
}

func queryGetField(ctx context.Context, db executor, id string) (*model.FieldDefinition, error) {
	row := db.QueryRowContext(ctx, `SELECT `+fieldColumns+` FROM field_definitions WHERE id = $1`, id)
	f, err := scanField(row)
	if err != nil {
		return nil, notFound(err)
	}
	return f, nil
}

func queryListFields(ctx context.Context, db executor, objectTypeID string) ([]*model.FieldDefinition, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+fieldColumns+`
		FROM field_definitions
		WHERE object_type_id = $1
		ORDER BY display_order ASC, api_name ASC`,
		objectTypeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFields(rows)
}

func queryUpdateField(ctx context.Context, db executor, f *model.FieldDefinition) error {
	// api_name is immutable once records hold values under it; the service
	// layer enforces that, so it is deliberately absent from this UPDATE.
	return notFound(db.QueryRowContext(ctx, `
		UPDATE field_definitions SET
			name = $2,
			is_required = $3,
			display_order = $4,
			options = $5,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		f.ID,
		f.Name,
		f.IsRequired,
		f.DisplayOrder,
		jsonbBytes(f.Options),
	).Scan(&f.UpdatedAt))
}

func queryDeleteField(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM field_definitions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func queryCreateRecord(ctx context.Context, db executor, r *model.Record) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO records (id, object_type_id, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		r.ID,
		r.ObjectTypeID,
		nullString(r.OwnerID),
		r.CreatedAt,
		r.UpdatedAt,
	)
	return err
}

func queryGetRecord(ctx context.Context, db executor, id string) (*model.Record, error) {
	row := db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = $1`, id)
	r, err := scanRecord(row)
	if err != nil {
		return nil, notFound(err)
	}

	attrs, err := queryGetAttributes(ctx, db, id)
	if err != nil {
		return nil, err
	}
	r.Attributes = attrs

	return r, nil
}

func queryGetRecordsByIDs(ctx context.Context, db executor, ids []string) ([]*model.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM records
		WHERE id = ANY($1)
		ORDER BY id`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*model.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func queryListRecords(ctx context.Context, db executor, filter model.RecordFilter) ([]*model.Record, int, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.ObjectTypeID != "" {
		whereClauses = append(whereClauses, "object_type_id = "+nextArg())
		args = append(args, filter.ObjectTypeID)
	}

	if filter.OwnerID != "" {
		whereClauses = append(whereClauses, "owner_id = "+nextArg())
		args = append(args, filter.OwnerID)
	}

	// Equality conditions are pushed down to the indexed EAV point query.
	// Every other operator is evaluated in memory by the caller against the
	// attribute maps attached below.
	for _, c := range filter.Conditions {
		if c.Operator != model.OpEquals || c.Value == "" {
			continue
		}
		kp := nextArg()
		vp := nextArg()
		whereClauses = append(whereClauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM attribute_values av WHERE av.record_id = records.id AND av.field_api_name = %s AND av.value = %s)",
			kp, vp))
		args = append(args, c.FieldAPIName, c.Value)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Single query with COUNT(*) OVER() to get total and rows atomically.
	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + recordColumns +
		" FROM records" + whereSQL + " ORDER BY " + parseSortClause(filter.Sort)

	if filter.Limit > 0 {
		dataQuery += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		dataQuery += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*model.Record
	var total int
	for rows.Next() {
		r, t, err := scanRecordWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan records: %w", err)
		}
		total = t
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan records: %w", err)
	}

	// Attach attribute maps in one batched query.
	if len(records) > 0 {
		ids := make([]string, len(records))
		for i, r := range records {
			ids[i] = r.ID
		}
		attrs, err := queryGetAttributesForMany(ctx, db, ids)
		if err != nil {
			return nil, 0, fmt.Errorf("list records: attributes: %w", err)
		}
		for _, r := range records {
			r.Attributes = attrs[r.ID]
		}
	}

	return records, total, nil
}

func queryTouchRecord(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `UPDATE records SET updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func queryDeleteRecord(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func queryUpsertAttribute(ctx context.Context, db executor, recordID, fieldAPIName, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO attribute_values (record_id, field_api_name, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (record_id, field_api_name) DO UPDATE SET value = $3, updated_at = NOW()`,
		recordID, fieldAPIName, value,
	)
	return err
}

func queryDeleteAttribute(ctx context.Context, db executor, recordID, fieldAPIName string) error {
	_, err := db.ExecContext(ctx, `
		DELETE FROM attribute_values
		WHERE record_id = $1 AND field_api_name = $2`,
		recordID, fieldAPIName,
	)
	return err
}

func queryGetAttributes(ctx context.Context, db executor, recordID string) (model.AttributeMap, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT field_api_name, value
		FROM attribute_values
		WHERE record_id = $1`,
		recordID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attrs := make(model.AttributeMap)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		attrs[name] = value
	}
	return attrs, rows.Err()
}

func queryGetAttributesForMany(ctx context.Context, db executor, recordIDs []string) (map[string]model.AttributeMap, error) {
	result := make(map[string]model.AttributeMap, len(recordIDs))
	if len(recordIDs) == 0 {
		return result, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT record_id, field_api_name, value
		FROM attribute_values
		WHERE record_id = ANY($1)`,
		pq.Array(recordIDs),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var recordID, name, value string
		if err := rows.Scan(&recordID, &name, &value); err != nil {
			return nil, err
		}
		m, ok := result[recordID]
		if !ok {
			m = make(model.AttributeMap)
			result[recordID] = m
		}
		m[name] = value
	}
	return result, rows.Err()
}

func queryListRecordIDsByAttribute(ctx context.Context, db executor, fieldAPINames []string, value string) ([]string, error) {
	if len(fieldAPINames) == 0 {
		return nil, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT record_id
		FROM attribute_values
		WHERE field_api_name = ANY($1) AND value = $2
		ORDER BY record_id`,
		pq.Array(fieldAPINames), value,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func queryCreateRelationship(ctx context.Context, db executor, rel *model.Relationship) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO relationships (id, name, from_object_id, to_object_id, relationship_type, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rel.ID,
		rel.Name,
		rel.FromObjectID,
		rel.ToObjectID,
		nullString(string(rel.RelationshipType)),
		nullString(rel.CreatedBy),
		rel.CreatedAt,
	)
	return err
}

func queryListRelationshipsForObjectType(ctx context.Context, db executor, objectTypeID string) ([]*model.Relationship, error) {
	// created_at ordering makes (name, related type) dedup deterministic:
	// the oldest duplicate row wins.
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, from_object_id, to_object_id, relationship_type, created_by, created_at
		FROM relationships
		WHERE from_object_id = $1 OR to_object_id = $1
		ORDER BY created_at ASC, id ASC`,
		objectTypeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRelationships(rows)
}

func queryDeleteRelationship(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM relationships WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func querySetVisibleFields(ctx context.Context, db executor, userID, objectTypeID string, fields []string) error {
	data, err := marshalVisibleFields(fields)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO preferences (user_id, object_type_id, visible_fields)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, object_type_id) DO UPDATE SET visible_fields = $3, updated_at = NOW()`,
		userID, objectTypeID, data,
	)
	return err
}

func queryGetVisibleFields(ctx context.Context, db executor, userID, objectTypeID string) ([]string, error) {
	row := db.QueryRowContext(ctx, `
		SELECT visible_fields
		FROM preferences
		WHERE user_id = $1 AND object_type_id = $2`,
		userID, objectTypeID,
	)
	fields, err := scanVisibleFields(row)
	if err != nil {
		return nil, notFound(err)
	}
	return fields, nil
}

func parseSortClause(sort string) string {
	if sort == "" {
		return "created_at DESC"
	}
	desc := strings.HasPrefix(sort, "-")
	col := strings.TrimPrefix(sort, "-")
	allowed := map[string]bool{
		"created_at": true, "updated_at": true, "id": true,
	}
	if !allowed[col] {
		return "created_at DESC"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}
