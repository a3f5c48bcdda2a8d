package store

import (
	"context"
	"errors"

	"github.com/groblegark/krecords/internal/model"
)

// ErrNotFound is returned when an id does not resolve. Callers treat it as
// recoverable: skip the entity or substitute a default.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for the record engine.
type Store interface {
	// Object types
	CreateObjectType(ctx context.Context, ot *model.ObjectType) error
	GetObjectType(ctx context.Context, id string) (*model.ObjectType, error)
	GetObjectTypeByAPIName(ctx context.Context, apiName string) (*model.ObjectType, error)
	ListObjectTypes(ctx context.Context, includeArchived bool) ([]*model.ObjectType, error)
	UpdateObjectType(ctx context.Context, ot *model.ObjectType) error
	ArchiveObjectType(ctx context.Context, id string) error

	// Field definitions
	CreateField(ctx context.Context, f *model.FieldDefinition) error
	GetField(ctx context.Context, id string) (*model.FieldDefinition, error)
	ListFields(ctx context.Context, objectTypeID string) ([]*model.FieldDefinition, error) // ordered by display_order
	UpdateField(ctx context.Context, f *model.FieldDefinition) error
	DeleteField(ctx context.Context, id string) error

	// Records
	CreateRecord(ctx context.Context, r *model.Record) error
	GetRecord(ctx context.Context, id string) (*model.Record, error)
	GetRecordsByIDs(ctx context.Context, ids []string) ([]*model.Record, error) // missing ids are skipped, not errors
	ListRecords(ctx context.Context, filter model.RecordFilter) ([]*model.Record, int, error) // returns records, total count, error
	TouchRecord(ctx context.Context, id string) error
	DeleteRecord(ctx context.Context, id string) error

	// Attribute values (EAV rows)
	UpsertAttribute(ctx context.Context, recordID, fieldAPIName, value string) error
	DeleteAttribute(ctx context.Context, recordID, fieldAPIName string) error
	GetAttributes(ctx context.Context, recordID string) (model.AttributeMap, error)
	GetAttributesForMany(ctx context.Context, recordIDs []string) (map[string]model.AttributeMap, error)
	// ListRecordIDsByAttribute returns ids of records holding value under any
	// of the given field api_names: the indexed point query behind lookup
	// traversal in both directions.
	ListRecordIDsByAttribute(ctx context.Context, fieldAPINames []string, value string) ([]string, error)

	// Relationships
	CreateRelationship(ctx context.Context, rel *model.Relationship) error
	ListRelationshipsForObjectType(ctx context.Context, objectTypeID string) ([]*model.Relationship, error)
	DeleteRelationship(ctx context.Context, id string) error

	// Field-visibility preferences
	SetVisibleFields(ctx context.Context, userID, objectTypeID string, fields []string) error
	GetVisibleFields(ctx context.Context, userID, objectTypeID string) ([]string, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
