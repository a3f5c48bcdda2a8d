package model

import "time"

// RelationshipType describes the cardinality of a relationship.
type RelationshipType string

const (
	RelationshipOneToMany  RelationshipType = "one_to_many"
	RelationshipManyToMany RelationshipType = "many_to_many"
)

// Relationship is metadata describing that two object types are linked. The
// authoritative link between two specific records is always a lookup
// attribute value, never a relationship row; a row without a backing lookup
// field is inert. Rows sharing (name, related object type) are duplicates.
type Relationship struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	FromObjectID     string           `json:"from_object_id"`
	ToObjectID       string           `json:"to_object_id"`
	RelationshipType RelationshipType `json:"relationship_type,omitempty"`
	CreatedBy        string           `json:"created_by,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Direction tags which side of a relationship row the queried object type is.
type Direction string

const (
	// DirectionForward means the queried type is the from_object_id side.
	DirectionForward Direction = "forward"
	// DirectionReverse means the queried type is the to_object_id side.
	DirectionReverse Direction = "reverse"
)

// Other returns the object type id on the opposite side of the relationship
// from the given object type.
func (r *Relationship) Other(objectTypeID string) (related string, dir Direction) {
	if r.FromObjectID == objectTypeID {
		return r.ToObjectID, DirectionForward
	}
	return r.FromObjectID, DirectionReverse
}

// RelatedSection is one group of the relationship resolution result: all
// records of one related object type reachable from the queried record
// through one named relationship.
type RelatedSection struct {
	ObjectType   *ObjectType        `json:"object_type"`
	Relationship *Relationship      `json:"relationship"`
	Direction    Direction          `json:"direction"`
	Records      []*Record          `json:"records"`
	Fields       []*FieldDefinition `json:"fields"`
	DisplayField *FieldDefinition   `json:"display_field,omitempty"`
}
