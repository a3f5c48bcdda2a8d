package events

import (
	"context"

	"github.com/groblegark/krecords/internal/attrs"
	"github.com/groblegark/krecords/internal/model"
)

// Event topic constants
const (
	TopicObjectTypeCreated   = "krecords.objecttype.created"
	TopicObjectTypeUpdated   = "krecords.objecttype.updated"
	TopicObjectTypeArchived  = "krecords.objecttype.archived"
	TopicFieldCreated        = "krecords.field.created"
	TopicFieldUpdated        = "krecords.field.updated"
	TopicFieldDeleted        = "krecords.field.deleted"
	TopicRecordCreated       = "krecords.record.created"
	TopicRecordDeleted       = "krecords.record.deleted"
	TopicAttributesSet       = "krecords.record.attributes_set"
	TopicRelationshipAdded   = "krecords.relationship.added"
	TopicRelationshipRemoved = "krecords.relationship.removed"
)

// Event types

type ObjectTypeCreated struct {
	ObjectType *model.ObjectType `json:"object_type"`
}

type ObjectTypeUpdated struct {
	ObjectType *model.ObjectType `json:"object_type"`
}

type ObjectTypeArchived struct {
	ObjectTypeID string `json:"object_type_id"`
}

type FieldCreated struct {
	Field *model.FieldDefinition `json:"field"`
}

type FieldUpdated struct {
	Field *model.FieldDefinition `json:"field"`
}

type FieldDeleted struct {
	FieldID      string `json:"field_id"`
	ObjectTypeID string `json:"object_type_id"`
}

type RecordCreated struct {
	Record *model.Record `json:"record"`
}

type RecordDeleted struct {
	RecordID string `json:"record_id"`
}

// AttributesSet carries the per-field outcome of a write, not the values:
// consumers re-read what they need.
type AttributesSet struct {
	RecordID string            `json:"record_id"`
	Result   attrs.WriteResult `json:"result"`
}

type RelationshipAdded struct {
	Relationship *model.Relationship `json:"relationship"`
}

type RelationshipRemoved struct {
	RelationshipID string `json:"relationship_id"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
