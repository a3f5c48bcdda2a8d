// Package storetest provides an in-memory store.Store for tests.
package storetest

import (
	"context"
	"sort"
	"sync"

	"github.com/groblegark/krecords/internal/model"
	"github.com/groblegark/krecords/internal/store"
)

// MemStore is an in-memory store.Store. It implements the same semantics the
// Postgres store does where tests depend on them: ListFields ordering,
// equality pushdown in ListRecords, oldest-first relationship ordering, and
// attribute upsert.
type MemStore struct {
	mu            sync.Mutex
	ObjectTypes   map[string]*model.ObjectType
	Fields        map[string]*model.FieldDefinition
	Records       map[string]*model.Record
	Attributes    map[string]model.AttributeMap // record id -> attrs
	Relationships map[string]*model.Relationship
	Preferences   map[string][]string // userID + "/" + objectTypeID -> fields
}

// New returns an empty MemStore.
func New() *MemStore {
	return &MemStore{
		ObjectTypes:   make(map[string]*model.ObjectType),
		Fields:        make(map[string]*model.FieldDefinition),
		Records:       make(map[string]*model.Record),
		Attributes:    make(map[string]model.AttributeMap),
		Relationships: make(map[string]*model.Relationship),
		Preferences:   make(map[string][]string),
	}
}

var _ store.Store = (*MemStore)(nil)

func (m *MemStore) CreateObjectType(_ context.Context, ot *model.ObjectType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ObjectTypes[ot.ID] = ot
	return nil
}

func (m *MemStore) GetObjectType(_ context.Context, id string) (*model.ObjectType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ot, ok := m.ObjectTypes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *ot
	cp.Fields = m.fieldsOfLocked(id)
	return &cp, nil
}

func (m *MemStore) GetObjectTypeByAPIName(_ context.Context, apiName string) (*model.ObjectType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ot := range m.ObjectTypes {
		if ot.APIName == apiName {
			cp := *ot
			cp.Fields = m.fieldsOfLocked(ot.ID)
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemStore) ListObjectTypes(_ context.Context, includeArchived bool) ([]*model.ObjectType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.ObjectType
	for _, ot := range m.ObjectTypes {
		if ot.IsArchived && !includeArchived {
			continue
		}
		cp := *ot
		cp.Fields = m.fieldsOfLocked(ot.ID)
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemStore) UpdateObjectType(_ context.Context, ot *model.ObjectType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ObjectTypes[ot.ID]; !ok {
		return store.ErrNotFound
	}
	m.ObjectTypes[ot.ID] = ot
	return nil
}

func (m *MemStore) ArchiveObjectType(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ot, ok := m.ObjectTypes[id]
	if !ok {
		return store.ErrNotFound
	}
	ot.IsArchived = true
	return nil
}

func (m *MemStore) CreateField(_ context.Context, f *model.FieldDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Fields[f.ID] = f
	return nil
}

func (m *MemStore) GetField(_ context.Context, id string) (*model.FieldDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.Fields[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return f, nil
}

func (m *MemStore) ListFields(_ context.Context, objectTypeID string) ([]*model.FieldDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fieldsOfLocked(objectTypeID), nil
}

func (m *MemStore) fieldsOfLocked(objectTypeID string) []*model.FieldDefinition {
	var result []*model.FieldDefinition
	for _, f := range m.Fields {
		if f.ObjectTypeID == objectTypeID {
			result = append(result, f)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DisplayOrder != result[j].DisplayOrder {
			return result[i].DisplayOrder < result[j].DisplayOrder
		}
		return result[i].APIName < result[j].APIName
	})
	return result
}

func (m *MemStore) UpdateField(_ context.Context, f *model.FieldDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Fields[f.ID]; !ok {
		return store.ErrNotFound
	}
	m.Fields[f.ID] = f
	return nil
}

func (m *MemStore) DeleteField(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Fields[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.Fields, id)
	return nil
}

func (m *MemStore) CreateRecord(_ context.Context, r *model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records[r.ID] = r
	return nil
}

func (m *MemStore) GetRecord(_ context.Context, id string) (*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	cp.Attributes = m.attrsOfLocked(id)
	return &cp, nil
}

func (m *MemStore) GetRecordsByIDs(_ context.Context, ids []string) ([]*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Record
	for _, id := range ids {
		if r, ok := m.Records[id]; ok {
			cp := *r
			cp.Attributes = m.attrsOfLocked(id)
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MemStore) ListRecords(_ context.Context, filter model.RecordFilter) ([]*model.Record, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Record
	for _, r := range m.Records {
		if filter.ObjectTypeID != "" && r.ObjectTypeID != filter.ObjectTypeID {
			continue
		}
		if filter.OwnerID != "" && r.OwnerID != filter.OwnerID {
			continue
		}
		attrs := m.attrsOfLocked(r.ID)
		match := true
		for _, c := range filter.Conditions {
			if c.Operator == model.OpEquals && attrs[c.FieldAPIName] != c.Value {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		cp := *r
		cp.Attributes = attrs
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	total := len(result)
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			result = nil
		} else {
			result = result[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, total, nil
}

func (m *MemStore) TouchRecord(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Records[id]; !ok {
		return store.ErrNotFound
	}
	return nil
}

func (m *MemStore) DeleteRecord(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Records[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.Records, id)
	delete(m.Attributes, id)
	return nil
}

func (m *MemStore) UpsertAttribute(_ context.Context, recordID, fieldAPIName, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	attrs, ok := m.Attributes[recordID]
	if !ok {
		attrs = model.AttributeMap{}
		m.Attributes[recordID] = attrs
	}
	attrs[fieldAPIName] = value
	return nil
}

func (m *MemStore) DeleteAttribute(_ context.Context, recordID, fieldAPIName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Attributes[recordID], fieldAPIName)
	return nil
}

func (m *MemStore) GetAttributes(_ context.Context, recordID string) (model.AttributeMap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attrsOfLocked(recordID), nil
}

func (m *MemStore) attrsOfLocked(recordID string) model.AttributeMap {
	attrs := model.AttributeMap{}
	for k, v := range m.Attributes[recordID] {
		attrs[k] = v
	}
	return attrs
}

func (m *MemStore) GetAttributesForMany(_ context.Context, recordIDs []string) (map[string]model.AttributeMap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[string]model.AttributeMap)
	for _, id := range recordIDs {
		if attrs, ok := m.Attributes[id]; ok && len(attrs) > 0 {
			result[id] = m.attrsOfLocked(id)
		}
	}
	return result, nil
}

func (m *MemStore) ListRecordIDsByAttribute(_ context.Context, fieldAPINames []string, value string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make(map[string]bool, len(fieldAPINames))
	for _, n := range fieldAPINames {
		names[n] = true
	}
	var ids []string
	for recordID, attrs := range m.Attributes {
		for name, v := range attrs {
			if names[name] && v == value {
				ids = append(ids, recordID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemStore) CreateRelationship(_ context.Context, rel *model.Relationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Relationships[rel.ID] = rel
	return nil
}

func (m *MemStore) ListRelationshipsForObjectType(_ context.Context, objectTypeID string) ([]*model.Relationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Relationship
	for _, rel := range m.Relationships {
		if rel.FromObjectID == objectTypeID || rel.ToObjectID == objectTypeID {
			result = append(result, rel)
		}
	}
	// Oldest first, matching the Postgres ordering duplicates depend on.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *MemStore) DeleteRelationship(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Relationships[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.Relationships, id)
	return nil
}

func (m *MemStore) SetVisibleFields(_ context.Context, userID, objectTypeID string, fields []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Preferences[userID+"/"+objectTypeID] = fields
	return nil
}

func (m *MemStore) GetVisibleFields(_ context.Context, userID, objectTypeID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fields, ok := m.Preferences[userID+"/"+objectTypeID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return fields, nil
}

func (m *MemStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *MemStore) Close() error {
	return nil
}
