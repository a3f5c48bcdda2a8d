package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/groblegark/krecords/internal/events"
	"github.com/groblegark/krecords/internal/model"
	"github.com/groblegark/krecords/internal/store"
)

// createRelationshipRequest is the JSON body for POST /v1/relationships.
type createRelationshipRequest struct {
	Name             string `json:"name"`
	FromObjectID     string `json:"from_object_id"`
	ToObjectID       string `json:"to_object_id"`
	RelationshipType string `json:"relationship_type"`
	CreatedBy        string `json:"created_by"`
}

// handleCreateRelationship handles POST /v1/relationships.
func (s *RecordsServer) handleCreateRelationship(w http.ResponseWriter, r *http.Request) {
	var req createRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rel := &model.Relationship{
		Name:             req.Name,
		FromObjectID:     req.FromObjectID,
		ToObjectID:       req.ToObjectID,
		RelationshipType: model.RelationshipType(req.RelationshipType),
		CreatedBy:        req.CreatedBy,
	}
	if err := s.registry.CreateRelationship(r.Context(), rel); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "object type not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.publish(r.Context(), events.TopicRelationshipAdded, events.RelationshipAdded{Relationship: rel})
	writeJSON(w, http.StatusCreated, rel)
}

// handleDeleteRelationship handles DELETE /v1/relationships/{id}. Only the
// metadata row goes away; lookup attribute values on records are untouched.
func (s *RecordsServer) handleDeleteRelationship(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.store.DeleteRelationship(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "relationship not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete relationship")
		return
	}

	s.publish(r.Context(), events.TopicRelationshipRemoved, events.RelationshipRemoved{RelationshipID: id})
	w.WriteHeader(http.StatusNoContent)
}

// handleListRelationships handles GET /v1/object-types/{id}/relationships:
// every relationship row touching the object type, either side.
func (s *RecordsServer) handleListRelationships(w http.ResponseWriter, r *http.Request) {
	objectTypeID := r.PathValue("id")

	rels, err := s.store.ListRelationshipsForObjectType(r.Context(), objectTypeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list relationships")
		return
	}
	if rels == nil {
		rels = []*model.Relationship{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"relationships": rels})
}

// handleGetRelated handles GET /v1/records/{id}/related?user_id=...: the
// related-records view grouped by relationship section. Sections that fail
// to resolve are omitted rather than failing the whole response.
func (s *RecordsServer) handleGetRelated(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := r.URL.Query().Get("user_id")

	rec, err := s.attrs.GetRecord(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get record")
		return
	}

	sections, err := s.resolver.RelatedRecords(r.Context(), rec.ObjectTypeID, rec.ID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve related records")
		return
	}
	if sections == nil {
		sections = []*model.RelatedSection{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"sections": sections})
}
