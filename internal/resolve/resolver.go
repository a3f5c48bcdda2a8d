// Package resolve implements relationship resolution: given a record, find
// every object type linked to the record's type and the matching records,
// deduplicated and filtered down to the caller's visible fields.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/groblegark/krecords/internal/model"
	"github.com/groblegark/krecords/internal/prefs"
	"github.com/groblegark/krecords/internal/schema"
	"github.com/groblegark/krecords/internal/store"
)

// defaultVisibleFields is how many fields (by display_order) a section shows
// when the user has no recorded preference for the related object type.
const defaultVisibleFields = 5

// Resolver traverses relationship metadata and lookup attribute values.
type Resolver struct {
	store    store.Store
	registry *schema.Registry
	prefs    prefs.Provider
	logger   *slog.Logger
}

// New returns a Resolver. prefs may be nil, in which case every section uses
// the first-N default.
func New(s store.Store, registry *schema.Registry, p prefs.Provider, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: s, registry: registry, prefs: p, logger: logger}
}

// dedupKey identifies a logical relationship: multiple relationship rows may
// encode the same link, so rows are deduplicated by name and related type,
// never by row id.
type dedupKey struct {
	name          string
	relatedTypeID string
}

// RelatedRecords produces one section per logical relationship of the
// record's object type. A failure while assembling one section drops only
// that section (logged); the others still resolve.
func (r *Resolver) RelatedRecords(ctx context.Context, objectTypeID, recordID, userID string) ([]*model.RelatedSection, error) {
	rels, err := r.store.ListRelationshipsForObjectType(ctx, objectTypeID)
	if err != nil {
		return nil, fmt.Errorf("list relationships for %s: %w", objectTypeID, err)
	}

	seen := make(map[dedupKey]struct{}, len(rels))
	var sections []*model.RelatedSection
	for _, rel := range rels {
		relatedTypeID, direction := rel.Other(objectTypeID)
		key := dedupKey{name: rel.Name, relatedTypeID: relatedTypeID}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		section, err := r.resolveSection(ctx, rel, relatedTypeID, direction, objectTypeID, recordID, userID)
		if err != nil {
			r.logger.Warn("skipping relationship section",
				"relationship", rel.Name, "related_type", relatedTypeID, "error", err)
			continue
		}
		if section != nil {
			sections = append(sections, section)
		}
	}
	return sections, nil
}

// resolveSection assembles one section. It returns (nil, nil) for inert
// relationships: a dangling related type or a relationship row with no
// backing lookup field yields no records and no error.
func (r *Resolver) resolveSection(ctx context.Context, rel *model.Relationship, relatedTypeID string, direction model.Direction, objectTypeID, recordID, userID string) (*model.RelatedSection, error) {
	relatedType, err := r.registry.ObjectType(ctx, relatedTypeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("related type %s: %w", relatedTypeID, err)
	}
	if relatedType.IsArchived {
		return nil, nil
	}

	// The record-level edge lives on whichever type holds the lookup
	// attribute. Try inbound first: records of the related type whose
	// lookup points at the queried record. When the related type has no
	// such lookup, the queried record itself may be the lookup holder, so
	// follow its own lookup values out instead.
	relatedIDs, inert, err := r.relatedRecordIDs(ctx, relatedTypeID, objectTypeID, recordID)
	if err != nil {
		return nil, err
	}
	if inert {
		return nil, nil
	}

	visible := r.visibleFields(ctx, relatedType, userID)
	visibleNames := make([]string, len(visible))
	for i, f := range visible {
		visibleNames[i] = f.APIName
	}

	// Two batched round trips cover all related records: the rows and the
	// attribute maps. Attribute rows pointing at deleted records simply
	// yield no record here; dangling lookups are a normal state.
	records := make([]*model.Record, 0, len(relatedIDs))
	if len(relatedIDs) > 0 {
		recs, err := r.store.GetRecordsByIDs(ctx, relatedIDs)
		if err != nil {
			return nil, fmt.Errorf("records: %w", err)
		}
		attrs, err := r.store.GetAttributesForMany(ctx, relatedIDs)
		if err != nil {
			return nil, fmt.Errorf("attributes: %w", err)
		}
		for _, rec := range recs {
			m := attrs[rec.ID]
			if m == nil {
				m = model.AttributeMap{}
			}
			rec.Attributes = m.Restrict(visibleNames)
			records = append(records, rec)
		}
	}

	return &model.RelatedSection{
		ObjectType:   relatedType,
		Relationship: rel,
		Direction:    direction,
		Records:      records,
		Fields:       visible,
		DisplayField: relatedType.DisplayField(),
	}, nil
}

// relatedRecordIDs finds the ids of records of relatedTypeID linked to the
// queried record. Inbound: the related type holds a lookup targeting the
// queried type, answered by one indexed point query on (field, value).
// Outbound: the queried type holds the lookup, so the queried record's own
// attribute values name the related records directly. A relationship with no
// backing lookup on either side is inert.
func (r *Resolver) relatedRecordIDs(ctx context.Context, relatedTypeID, objectTypeID, recordID string) ([]string, bool, error) {
	inbound, err := r.registry.LookupFieldsTargeting(ctx, relatedTypeID, objectTypeID)
	if err != nil {
		return nil, false, fmt.Errorf("lookup fields of %s: %w", relatedTypeID, err)
	}
	if len(inbound) > 0 {
		names := make([]string, len(inbound))
		for i, f := range inbound {
			names[i] = f.APIName
		}
		ids, err := r.store.ListRecordIDsByAttribute(ctx, names, recordID)
		if err != nil {
			return nil, false, fmt.Errorf("lookup scan: %w", err)
		}
		return ids, false, nil
	}

	outbound, err := r.registry.LookupFieldsTargeting(ctx, objectTypeID, relatedTypeID)
	if err != nil {
		return nil, false, fmt.Errorf("lookup fields of %s: %w", objectTypeID, err)
	}
	if len(outbound) == 0 {
		return nil, true, nil
	}

	attrs, err := r.store.GetAttributes(ctx, recordID)
	if err != nil {
		return nil, false, fmt.Errorf("attributes of %s: %w", recordID, err)
	}
	seen := make(map[string]struct{}, len(outbound))
	var ids []string
	for _, f := range outbound {
		v := attrs[f.APIName]
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		ids = append(ids, v)
	}
	return ids, false, nil
}

// visibleFields intersects the user's preference with the type's actual
// fields, preserving preference order. Without a preference (or on a
// preference read failure) it falls back to the first defaultVisibleFields
// fields by display_order.
func (r *Resolver) visibleFields(ctx context.Context, ot *model.ObjectType, userID string) []*model.FieldDefinition {
	if r.prefs != nil {
		preferred, err := r.prefs.VisibleFields(ctx, userID, ot.ID)
		if err != nil {
			r.logger.Warn("visibility preference unavailable", "object_type", ot.ID, "error", err)
		} else if preferred != nil {
			byName := make(map[string]*model.FieldDefinition, len(ot.Fields))
			for _, f := range ot.Fields {
				byName[f.APIName] = f
			}
			visible := make([]*model.FieldDefinition, 0, len(preferred))
			for _, name := range preferred {
				if f, ok := byName[name]; ok {
					visible = append(visible, f)
				}
			}
			return visible
		}
	}

	n := len(ot.Fields)
	if n > defaultVisibleFields {
		n = defaultVisibleFields
	}
	return ot.Fields[:n]
}
