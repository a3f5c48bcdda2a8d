// Package schema provides the registry of object types and field
// definitions: the vocabulary every other engine component consumes.
package schema

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/groblegark/krecords/internal/idgen"
	"github.com/groblegark/krecords/internal/model"
	"github.com/groblegark/krecords/internal/store"
)

// apiNamePattern constrains api_names of object types and fields: snake_case
// identifiers usable as attribute keys and query parameters.
var apiNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Registry is a view over schema storage. Reads pass store.ErrNotFound
// through untouched; callers treat it as recoverable.
type Registry struct {
	store  store.Store
	logger *slog.Logger
}

// New returns a Registry backed by the given store.
func New(s store.Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: s, logger: logger}
}

// ObjectType returns the object type with the given id, fields attached in
// display order.
func (r *Registry) ObjectType(ctx context.Context, id string) (*model.ObjectType, error) {
	return r.store.GetObjectType(ctx, id)
}

// ObjectTypeByAPIName returns the object type with the given api_name.
func (r *Registry) ObjectTypeByAPIName(ctx context.Context, apiName string) (*model.ObjectType, error) {
	return r.store.GetObjectTypeByAPIName(ctx, apiName)
}

// ListObjectTypes returns all object types, optionally including archived ones.
func (r *Registry) ListObjectTypes(ctx context.Context, includeArchived bool) ([]*model.ObjectType, error) {
	return r.store.ListObjectTypes(ctx, includeArchived)
}

// Fields returns the field definitions of an object type ordered by
// display_order.
func (r *Registry) Fields(ctx context.Context, objectTypeID string) ([]*model.FieldDefinition, error) {
	return r.store.ListFields(ctx, objectTypeID)
}

// DataTypes returns the api_name -> data type mapping for an object type,
// used by the predicate evaluator.
func (r *Registry) DataTypes(ctx context.Context, objectTypeID string) (map[string]model.DataType, error) {
	fields, err := r.store.ListFields(ctx, objectTypeID)
	if err != nil {
		return nil, err
	}
	types := make(map[string]model.DataType, len(fields))
	for _, f := range fields {
		types[f.APIName] = f.DataType
	}
	return types, nil
}

// ResolveLookupTarget returns the target object type id of a lookup field, or
// "" for non-lookup fields and for lookup fields with missing or malformed
// options. Malformed options degrade to "no target"; the field simply
// contributes no relationship.
func (r *Registry) ResolveLookupTarget(f *model.FieldDefinition) string {
	if f.DataType != model.TypeLookup {
		return ""
	}
	opts, err := f.ParseOptions()
	if err != nil {
		r.logger.Warn("malformed lookup options", "field", f.APIName, "error", err)
		return ""
	}
	return opts.TargetObjectTypeID
}

// LookupFieldsTargeting returns the lookup fields of objectTypeID whose
// target is targetObjectTypeID. These fields carry the actual record-level
// edges of any relationship between the two types.
func (r *Registry) LookupFieldsTargeting(ctx context.Context, objectTypeID, targetObjectTypeID string) ([]*model.FieldDefinition, error) {
	fields, err := r.store.ListFields(ctx, objectTypeID)
	if err != nil {
		return nil, err
	}
	var lookups []*model.FieldDefinition
	for _, f := range fields {
		if r.ResolveLookupTarget(f) == targetObjectTypeID {
			lookups = append(lookups, f)
		}
	}
	return lookups, nil
}

// CreateObjectType validates and persists a new object type.
func (r *Registry) CreateObjectType(ctx context.Context, ot *model.ObjectType) error {
	if ot.APIName == "" || !apiNamePattern.MatchString(ot.APIName) {
		return fmt.Errorf("invalid api_name %q", ot.APIName)
	}
	if ot.Name == "" {
		return fmt.Errorf("name is required")
	}
	if ot.ID == "" {
		id, err := idgen.Generate(idgen.PrefixObjectType)
		if err != nil {
			return err
		}
		ot.ID = id
	}
	now := time.Now().UTC()
	ot.CreatedAt = now
	ot.UpdatedAt = now
	return r.store.CreateObjectType(ctx, ot)
}

// CreateField validates and persists a new field definition. The api_name
// must be unique within the object type; the database enforces that, the
// check here just gives a friendlier error.
func (r *Registry) CreateField(ctx context.Context, f *model.FieldDefinition) error {
	if f.APIName == "" || !apiNamePattern.MatchString(f.APIName) {
		return fmt.Errorf("invalid api_name %q", f.APIName)
	}
	if !f.DataType.IsValid() {
		return fmt.Errorf("unknown data_type %q", f.DataType)
	}

	existing, err := r.store.ListFields(ctx, f.ObjectTypeID)
	if err != nil {
		return fmt.Errorf("list fields: %w", err)
	}
	for _, e := range existing {
		if e.APIName == f.APIName {
			return fmt.Errorf("field %q already defined on object type %s", f.APIName, f.ObjectTypeID)
		}
	}

	opts, err := f.ParseOptions()
	if err != nil {
		return err
	}
	switch f.DataType {
	case model.TypeLookup:
		if opts.TargetObjectTypeID == "" {
			return fmt.Errorf("lookup field %q requires options.target_object_type_id", f.APIName)
		}
		if _, err := r.store.GetObjectType(ctx, opts.TargetObjectTypeID); err != nil {
			return fmt.Errorf("lookup target %s: %w", opts.TargetObjectTypeID, err)
		}
	case model.TypePicklist:
		if len(opts.Picklist) == 0 {
			return fmt.Errorf("picklist field %q requires at least one option", f.APIName)
		}
	}

	if f.ID == "" {
		id, err := idgen.Generate(idgen.PrefixField)
		if err != nil {
			return err
		}
		f.ID = id
	}
	if f.DisplayOrder == 0 {
		f.DisplayOrder = len(existing) + 1
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now
	return r.store.CreateField(ctx, f)
}

// UpdateField persists changes to a field's mutable attributes (name,
// is_required, display_order, options). api_name and data_type are immutable
// once set.
func (r *Registry) UpdateField(ctx context.Context, f *model.FieldDefinition) error {
	return r.store.UpdateField(ctx, f)
}

// ArchiveObjectType soft-deletes an object type. Records referencing it stay
// readable; the type is excluded from listings and relationship resolution.
func (r *Registry) ArchiveObjectType(ctx context.Context, id string) error {
	return r.store.ArchiveObjectType(ctx, id)
}

// CreateRelationship validates and persists relationship metadata linking
// two object types.
func (r *Registry) CreateRelationship(ctx context.Context, rel *model.Relationship) error {
	if rel.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := r.store.GetObjectType(ctx, rel.FromObjectID); err != nil {
		return fmt.Errorf("from_object_id %s: %w", rel.FromObjectID, err)
	}
	if _, err := r.store.GetObjectType(ctx, rel.ToObjectID); err != nil {
		return fmt.Errorf("to_object_id %s: %w", rel.ToObjectID, err)
	}
	if rel.ID == "" {
		id, err := idgen.Generate(idgen.PrefixRelationship)
		if err != nil {
			return err
		}
		rel.ID = id
	}
	if rel.RelationshipType == "" {
		rel.RelationshipType = model.RelationshipOneToMany
	}
	rel.CreatedAt = time.Now().UTC()
	return r.store.CreateRelationship(ctx, rel)
}
