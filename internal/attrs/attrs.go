// Package attrs implements the attribute store: typed read/write access to
// records and their attribute values over the generic EAV substrate.
package attrs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/groblegark/krecords/internal/filter"
	"github.com/groblegark/krecords/internal/idgen"
	"github.com/groblegark/krecords/internal/model"
	"github.com/groblegark/krecords/internal/schema"
	"github.com/groblegark/krecords/internal/store"
)

// Service exposes record and attribute operations. Typing is enforced at
// this boundary only; storage itself is untyped text.
type Service struct {
	store    store.Store
	registry *schema.Registry
	logger   *slog.Logger
}

// New returns an attribute service over the given store and registry.
func New(s store.Store, registry *schema.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, registry: registry, logger: logger}
}

// FieldError describes a single failed attribute write.
type FieldError struct {
	FieldAPIName string `json:"field_api_name"`
	Message      string `json:"message"`
}

// WriteResult reports the per-field outcome of a SetAttributes call. Writes
// are not all-or-nothing: some fields may land while others fail.
type WriteResult struct {
	Written []string     `json:"written,omitempty"`
	Failed  []FieldError `json:"failed,omitempty"`
}

// CreateRecord creates an empty record of the given object type. Attributes
// are attached afterwards via SetAttributes; a record with zero attributes is
// valid, not corrupt.
func (s *Service) CreateRecord(ctx context.Context, objectTypeID, ownerID string) (*model.Record, error) {
	ot, err := s.registry.ObjectType(ctx, objectTypeID)
	if err != nil {
		return nil, fmt.Errorf("object type %s: %w", objectTypeID, err)
	}
	if ot.IsArchived {
		return nil, fmt.Errorf("object type %s is archived", objectTypeID)
	}

	id, err := idgen.Generate(idgen.PrefixRecord)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	rec := &model.Record{
		ID:           id,
		ObjectTypeID: objectTypeID,
		OwnerID:      ownerID,
		CreatedAt:    now,
		UpdatedAt:    now,
		Attributes:   model.AttributeMap{},
	}
	if err := s.store.CreateRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	return rec, nil
}

// SetAttributes upserts one attribute row per key. Known fields are coerced
// to their canonical string form; unknown api_names are stored verbatim for
// forward compatibility with schema changes. Failures are reported per
// field; the returned error is non-nil only when the record itself cannot be
// written to.
func (s *Service) SetAttributes(ctx context.Context, recordID string, values map[string]string) (WriteResult, error) {
	var result WriteResult

	rec, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return result, fmt.Errorf("record %s: %w", recordID, err)
	}

	fields, err := s.registry.Fields(ctx, rec.ObjectTypeID)
	if err != nil {
		return result, fmt.Errorf("fields of %s: %w", rec.ObjectTypeID, err)
	}
	byAPIName := make(map[string]*model.FieldDefinition, len(fields))
	for _, f := range fields {
		byAPIName[f.APIName] = f
	}

	// Deterministic write order for stable per-field reporting.
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw := values[name]
		canonical := raw
		if f, known := byAPIName[name]; known {
			canonical, err = Canonicalize(f, raw)
			if err != nil {
				result.Failed = append(result.Failed, FieldError{FieldAPIName: name, Message: err.Error()})
				continue
			}
		}
		if err := s.store.UpsertAttribute(ctx, recordID, name, canonical); err != nil {
			s.logger.Warn("attribute write failed", "record", recordID, "field", name, "error", err)
			result.Failed = append(result.Failed, FieldError{FieldAPIName: name, Message: err.Error()})
			continue
		}
		result.Written = append(result.Written, name)
	}

	if len(result.Written) > 0 {
		if err := s.store.TouchRecord(ctx, recordID); err != nil {
			s.logger.Warn("touch record failed", "record", recordID, "error", err)
		}
	}

	return result, nil
}

// GetAttributes returns the sparse attribute map of a record. Absent keys
// mean "no value". Orphaned attributes (api_names no longer defined on the
// object type) are returned like any other; callers that care filter them.
func (s *Service) GetAttributes(ctx context.Context, recordID string) (model.AttributeMap, error) {
	return s.store.GetAttributes(ctx, recordID)
}

// GetAttributesForMany returns attribute maps for a batch of records in one
// round trip. Records without attributes are simply absent from the result.
func (s *Service) GetAttributesForMany(ctx context.Context, recordIDs []string) (map[string]model.AttributeMap, error) {
	return s.store.GetAttributesForMany(ctx, recordIDs)
}

// GetRecord returns a record with its attribute map attached.
func (s *Service) GetRecord(ctx context.Context, recordID string) (*model.Record, error) {
	return s.store.GetRecord(ctx, recordID)
}

// DeleteRecord removes a record and (via cascade) its attribute rows.
func (s *Service) DeleteRecord(ctx context.Context, recordID string) error {
	return s.store.DeleteRecord(ctx, recordID)
}

// ListRecords queries records of one object type. Equality conditions are
// answered by the store's indexed point query; every other operator is
// evaluated here against the attribute maps. Conditions with an empty value
// and a non-null operator are dropped as "not yet specified".
func (s *Service) ListRecords(ctx context.Context, f model.RecordFilter) ([]*model.Record, int, error) {
	f.Conditions = filter.Normalize(f.Conditions)

	// Split conditions: equality goes to SQL, the rest is in-memory.
	var inMemory []model.FilterCondition
	for _, c := range f.Conditions {
		if c.Operator != model.OpEquals {
			inMemory = append(inMemory, c)
		}
	}

	if len(inMemory) == 0 {
		return s.store.ListRecords(ctx, f)
	}

	// In-memory conditions change the result set, so paging must happen
	// after evaluation: fetch unpaged, filter, then slice.
	limit, offset := f.Limit, f.Offset
	f.Limit, f.Offset = 0, 0

	records, _, err := s.store.ListRecords(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	dataTypes, err := s.registry.DataTypes(ctx, f.ObjectTypeID)
	if err != nil {
		return nil, 0, err
	}

	var matched []*model.Record
	for _, r := range records {
		if filter.EvaluateAll(dataTypes, inMemory, r.Attributes) {
			matched = append(matched, r)
		}
	}

	total := len(matched)
	if offset > 0 {
		if offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[offset:]
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, total, nil
}
