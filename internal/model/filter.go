package model

// Operator is a comparison applied to one attribute value.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEqual    Operator = "notEqual"
	OpContains    Operator = "contains"
	OpStartsWith  Operator = "startsWith"
	OpGreaterThan Operator = "greaterThan"
	OpLessThan    Operator = "lessThan"
	OpBefore      Operator = "before"
	OpAfter       Operator = "after"
	OpIsNull      Operator = "isNull"
	OpIsNotNull   Operator = "isNotNull"
)

// String returns the string representation of the operator.
func (o Operator) String() string {
	return string(o)
}

// FilterCondition is a (field, operator, value) triple evaluated against a
// record's attribute map. A list of conditions combines with logical AND.
type FilterCondition struct {
	FieldAPIName string   `json:"field_api_name"`
	Operator     Operator `json:"operator"`
	Value        string   `json:"value"`
}

// RecordFilter holds criteria for querying records of one object type.
type RecordFilter struct {
	ObjectTypeID string            `json:"object_type_id"`
	OwnerID      string            `json:"owner_id,omitempty"`
	Conditions   []FilterCondition `json:"conditions,omitempty"`
	Sort         string            `json:"sort,omitempty"` // e.g. "-created_at"; prefix "-" = descending
	Limit        int               `json:"limit,omitempty"`
	Offset       int               `json:"offset,omitempty"`
}
