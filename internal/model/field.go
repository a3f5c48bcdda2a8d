package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// PicklistOption is one choice of a picklist field.
type PicklistOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldOptions is the variant payload of a field definition, interpreted per
// data type: picklist fields carry an ordered option list, lookup fields carry
// the id of the object type a value must reference. Other types carry nothing.
type FieldOptions struct {
	Picklist           []PicklistOption `json:"picklist,omitempty"`
	TargetObjectTypeID string           `json:"target_object_type_id,omitempty"`
}

// FieldDefinition is a typed attribute declaration on an object type.
// APIName is unique within its object type and immutable once records hold
// values under it.
type FieldDefinition struct {
	ID           string          `json:"id"`
	ObjectTypeID string          `json:"object_type_id"`
	APIName      string          `json:"api_name"`
	Name         string          `json:"name"`
	DataType     DataType        `json:"data_type"`
	IsRequired   bool            `json:"is_required,omitempty"`
	DisplayOrder int             `json:"display_order"`
	Options      json.RawMessage `json:"options,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ParseOptions decodes the raw options payload. An empty payload decodes to
// the zero value; a payload that is not a JSON object is a MalformedOptions
// condition and callers are expected to degrade rather than fail.
func (f *FieldDefinition) ParseOptions() (FieldOptions, error) {
	var opts FieldOptions
	if len(f.Options) == 0 {
		return opts, nil
	}
	if err := json.Unmarshal(f.Options, &opts); err != nil {
		return FieldOptions{}, fmt.Errorf("field %s: malformed options: %w", f.APIName, err)
	}
	return opts, nil
}

// LookupTarget returns the target object type id for a lookup field, or ""
// when the field is not a lookup or its options are missing or malformed.
func (f *FieldDefinition) LookupTarget() string {
	if f.DataType != TypeLookup {
		return ""
	}
	opts, err := f.ParseOptions()
	if err != nil {
		return ""
	}
	return opts.TargetObjectTypeID
}

// PicklistValues returns the allowed values of a picklist field, in option
// order. Non-picklist fields and malformed options yield nil.
func (f *FieldDefinition) PicklistValues() []string {
	if f.DataType != TypePicklist {
		return nil
	}
	opts, err := f.ParseOptions()
	if err != nil {
		return nil
	}
	values := make([]string, 0, len(opts.Picklist))
	for _, o := range opts.Picklist {
		values = append(values, o.Value)
	}
	return values
}
