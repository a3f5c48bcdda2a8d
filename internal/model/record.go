package model

import "time"

// Record is an instance of an object type. Its shape is not fixed at
// creation; it is whatever attribute values are later attached.
type Record struct {
	ID           string    `json:"id"`
	ObjectTypeID string    `json:"object_type_id"`
	OwnerID      string    `json:"owner_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Sparse attribute map, populated by queries. Absent keys mean "no
	// value", not "null value".
	Attributes AttributeMap `json:"attributes,omitempty"`
}

// AttributeMap maps field api_name to the stored canonical string value.
type AttributeMap map[string]string

// Restrict returns a copy of the map containing only the allowed api_names.
// Keys in the allow-list with no stored value are simply absent from the
// result. A nil allow-list is treated as "allow nothing".
func (m AttributeMap) Restrict(allowed []string) AttributeMap {
	out := make(AttributeMap, len(allowed))
	for _, name := range allowed {
		if v, ok := m[name]; ok {
			out[name] = v
		}
	}
	return out
}

// AttributeValue is a single (record, field, value) row: the atomic unit of
// stored data. Values are stored as text regardless of declared type. A row
// may reference a field api_name no longer defined on the owning object type;
// readers tolerate such orphans.
type AttributeValue struct {
	RecordID     string    `json:"record_id"`
	FieldAPIName string    `json:"field_api_name"`
	Value        string    `json:"value"`
	UpdatedAt    time.Time `json:"updated_at"`
}
