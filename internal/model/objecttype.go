package model

import "time"

// DataType identifies the declared type of a field definition.
type DataType string

const (
	TypeText     DataType = "text"
	TypeTextarea DataType = "textarea"
	TypeRichText DataType = "rich_text"
	TypeNumber   DataType = "number"
	TypeCurrency DataType = "currency"
	TypeBoolean  DataType = "boolean"
	TypeDate     DataType = "date"
	TypeDatetime DataType = "datetime"
	TypeEmail    DataType = "email"
	TypeURL      DataType = "url"
	TypePicklist DataType = "picklist"
	TypeLookup   DataType = "lookup"
)

// String returns the string representation of the data type.
func (d DataType) String() string {
	return string(d)
}

// IsValid checks whether the data type is a known value.
func (d DataType) IsValid() bool {
	switch d {
	case TypeText, TypeTextarea, TypeRichText, TypeNumber, TypeCurrency,
		TypeBoolean, TypeDate, TypeDatetime, TypeEmail, TypeURL,
		TypePicklist, TypeLookup:
		return true
	}
	return false
}

// ObjectType is a user-defined schema: a "table" in spirit, with a name and
// ordered field definitions. Records of an object type hold no fixed columns,
// only attribute values.
type ObjectType struct {
	ID                  string    `json:"id"`
	APIName             string    `json:"api_name"`
	Name                string    `json:"name"`
	DefaultFieldAPIName string    `json:"default_field_api_name,omitempty"`
	IsSystem            bool      `json:"is_system,omitempty"`
	IsPublished         bool      `json:"is_published"`
	IsArchived          bool      `json:"is_archived,omitempty"`
	OwnerID             string    `json:"owner_id,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`

	// Populated by queries, not stored on the object_types table.
	Fields []*FieldDefinition `json:"fields,omitempty"`
}

// DisplayField returns the field used as the record label: the field matching
// DefaultFieldAPIName, or the first field when unset or dangling. Returns nil
// when the object type has no fields.
func (o *ObjectType) DisplayField() *FieldDefinition {
	if len(o.Fields) == 0 {
		return nil
	}
	if o.DefaultFieldAPIName != "" {
		for _, f := range o.Fields {
			if f.APIName == o.DefaultFieldAPIName {
				return f
			}
		}
	}
	return o.Fields[0]
}
