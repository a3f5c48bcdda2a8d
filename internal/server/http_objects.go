package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/groblegark/krecords/internal/events"
	"github.com/groblegark/krecords/internal/filter"
	"github.com/groblegark/krecords/internal/model"
	"github.com/groblegark/krecords/internal/store"
)

// createObjectTypeRequest is the JSON body for POST /v1/object-types.
type createObjectTypeRequest struct {
	APIName             string `json:"api_name"`
	Name                string `json:"name"`
	DefaultFieldAPIName string `json:"default_field_api_name"`
	IsPublished         bool   `json:"is_published"`
	OwnerID             string `json:"owner_id"`
}

// handleCreateObjectType handles POST /v1/object-types.
func (s *RecordsServer) handleCreateObjectType(w http.ResponseWriter, r *http.Request) {
	var req createObjectTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ot := &model.ObjectType{
		APIName:             strings.TrimSpace(req.APIName),
		Name:                strings.TrimSpace(req.Name),
		DefaultFieldAPIName: req.DefaultFieldAPIName,
		IsPublished:         req.IsPublished,
		OwnerID:             req.OwnerID,
	}
	if err := s.registry.CreateObjectType(r.Context(), ot); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.publish(r.Context(), events.TopicObjectTypeCreated, events.ObjectTypeCreated{ObjectType: ot})
	writeJSON(w, http.StatusCreated, ot)
}

// handleListObjectTypes handles GET /v1/object-types.
func (s *RecordsServer) handleListObjectTypes(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	types, err := s.registry.ListObjectTypes(r.Context(), includeArchived)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list object types")
		return
	}
	if types == nil {
		types = []*model.ObjectType{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"object_types": types})
}

// handleGetObjectType handles GET /v1/object-types/{id}.
func (s *RecordsServer) handleGetObjectType(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ot, err := s.registry.ObjectType(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "object type not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get object type")
		return
	}

	writeJSON(w, http.StatusOK, ot)
}

// updateObjectTypeRequest is the JSON body for PATCH /v1/object-types/{id}.
type updateObjectTypeRequest struct {
	Name                *string `json:"name"`
	DefaultFieldAPIName *string `json:"default_field_api_name"`
	IsPublished         *bool   `json:"is_published"`
}

// handleUpdateObjectType handles PATCH /v1/object-types/{id}.
func (s *RecordsServer) handleUpdateObjectType(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateObjectTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ot, err := s.registry.ObjectType(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "object type not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get object type")
		return
	}

	if req.Name != nil {
		ot.Name = *req.Name
	}
	if req.DefaultFieldAPIName != nil {
		ot.DefaultFieldAPIName = *req.DefaultFieldAPIName
	}
	if req.IsPublished != nil {
		ot.IsPublished = *req.IsPublished
	}

	if err := s.store.UpdateObjectType(r.Context(), ot); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update object type")
		return
	}

	s.publish(r.Context(), events.TopicObjectTypeUpdated, events.ObjectTypeUpdated{ObjectType: ot})
	writeJSON(w, http.StatusOK, ot)
}

// handleArchiveObjectType handles POST /v1/object-types/{id}/archive.
func (s *RecordsServer) handleArchiveObjectType(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.registry.ArchiveObjectType(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "object type not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to archive object type")
		return
	}

	s.publish(r.Context(), events.TopicObjectTypeArchived, events.ObjectTypeArchived{ObjectTypeID: id})
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "archived"})
}

// createFieldRequest is the JSON body for POST /v1/object-types/{id}/fields.
type createFieldRequest struct {
	APIName      string          `json:"api_name"`
	Name         string          `json:"name"`
	DataType     string          `json:"data_type"`
	IsRequired   bool            `json:"is_required"`
	DisplayOrder int             `json:"display_order"`
	Options      json.RawMessage `json:"options"`
}

// handleCreateField handles POST /v1/object-types/{id}/fields.
func (s *RecordsServer) handleCreateField(w http.ResponseWriter, r *http.Request) {
	objectTypeID := r.PathValue("id")

	var req createFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	f := &model.FieldDefinition{
		ObjectTypeID: objectTypeID,
		APIName:      strings.TrimSpace(req.APIName),
		Name:         strings.TrimSpace(req.Name),
		DataType:     model.DataType(req.DataType),
		IsRequired:   req.IsRequired,
		DisplayOrder: req.DisplayOrder,
		Options:      req.Options,
	}
	if err := s.registry.CreateField(r.Context(), f); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "object type not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.publish(r.Context(), events.TopicFieldCreated, events.FieldCreated{Field: f})
	writeJSON(w, http.StatusCreated, f)
}

// handleListFields handles GET /v1/object-types/{id}/fields.
func (s *RecordsServer) handleListFields(w http.ResponseWriter, r *http.Request) {
	objectTypeID := r.PathValue("id")

	fields, err := s.registry.Fields(r.Context(), objectTypeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list fields")
		return
	}
	if fields == nil {
		fields = []*model.FieldDefinition{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"fields": fields})
}

// updateFieldRequest is the JSON body for PATCH /v1/fields/{id}.
type updateFieldRequest struct {
	Name         *string         `json:"name"`
	IsRequired   *bool           `json:"is_required"`
	DisplayOrder *int            `json:"display_order"`
	Options      json.RawMessage `json:"options"`
}

// handleUpdateField handles PATCH /v1/fields/{id}. api_name and data_type
// are immutable and absent from the request shape.
func (s *RecordsServer) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	f, err := s.store.GetField(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "field not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get field")
		return
	}

	if req.Name != nil {
		f.Name = *req.Name
	}
	if req.IsRequired != nil {
		f.IsRequired = *req.IsRequired
	}
	if req.DisplayOrder != nil {
		f.DisplayOrder = *req.DisplayOrder
	}
	if len(req.Options) > 0 {
		f.Options = req.Options
	}

	if err := s.registry.UpdateField(r.Context(), f); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update field")
		return
	}

	s.publish(r.Context(), events.TopicFieldUpdated, events.FieldUpdated{Field: f})
	writeJSON(w, http.StatusOK, f)
}

// handleDeleteField handles DELETE /v1/fields/{id}. Attribute rows written
// under the field's api_name are left in place as orphans; readers tolerate
// them.
func (s *RecordsServer) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	f, err := s.store.GetField(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "field not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get field")
		return
	}

	if err := s.store.DeleteField(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete field")
		return
	}

	s.publish(r.Context(), events.TopicFieldDeleted, events.FieldDeleted{FieldID: id, ObjectTypeID: f.ObjectTypeID})
	w.WriteHeader(http.StatusNoContent)
}

// handleGetOperators handles GET /v1/operators?data_type=...: the closed
// operator set the UI builds filter rows from.
func (s *RecordsServer) handleGetOperators(w http.ResponseWriter, r *http.Request) {
	dataType := model.DataType(r.URL.Query().Get("data_type"))
	writeJSON(w, http.StatusOK, map[string]any{
		"data_type":     dataType,
		"operators":     filter.OperatorsFor(dataType),
		"default_value": filter.DefaultValue(dataType),
	})
}
