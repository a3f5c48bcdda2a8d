package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/groblegark/krecords/internal/events"
	"github.com/groblegark/krecords/internal/model"
	"github.com/groblegark/krecords/internal/store"
)

// createRecordRequest is the JSON body for POST /v1/records.
type createRecordRequest struct {
	ObjectTypeID string            `json:"object_type_id"`
	OwnerID      string            `json:"owner_id"`
	Attributes   map[string]string `json:"attributes"`
}

// handleCreateRecord handles POST /v1/records. The record is created first;
// any attributes in the request are then written through the attribute store
// and per-field failures are reported alongside the record.
func (s *RecordsServer) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ObjectTypeID == "" {
		writeError(w, http.StatusBadRequest, "object_type_id is required")
		return
	}

	rec, err := s.attrs.CreateRecord(r.Context(), req.ObjectTypeID, req.OwnerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "object type not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := map[string]any{"record": rec}
	if len(req.Attributes) > 0 {
		result, err := s.attrs.SetAttributes(r.Context(), rec.ID, req.Attributes)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to write attributes")
			return
		}
		// Echo stored state, not request input: written values were coerced
		// to their canonical form on the way in.
		stored, err := s.attrs.GetAttributes(r.Context(), rec.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to read attributes")
			return
		}
		rec.Attributes = stored
		resp["write_result"] = result
	}

	s.publish(r.Context(), events.TopicRecordCreated, events.RecordCreated{Record: rec})
	writeJSON(w, http.StatusCreated, resp)
}

// handleListRecords handles GET /v1/records?object_type_id=...: the simple
// listing path with paging and sorting but no conditions. Filtered queries go
// through POST /v1/records/search.
func (s *RecordsServer) handleListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.RecordFilter{
		ObjectTypeID: q.Get("object_type_id"),
		OwnerID:      q.Get("owner_id"),
		Sort:         q.Get("sort"),
	}
	if f.ObjectTypeID == "" {
		writeError(w, http.StatusBadRequest, "object_type_id is required")
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		f.Offset = n
	}

	s.listRecords(w, r, f)
}

// searchRecordsRequest is the JSON body for POST /v1/records/search.
type searchRecordsRequest struct {
	ObjectTypeID string                  `json:"object_type_id"`
	OwnerID      string                  `json:"owner_id"`
	Conditions   []model.FilterCondition `json:"conditions"`
	Sort         string                  `json:"sort"`
	Limit        int                     `json:"limit"`
	Offset       int                     `json:"offset"`
}

// handleSearchRecords handles POST /v1/records/search.
func (s *RecordsServer) handleSearchRecords(w http.ResponseWriter, r *http.Request) {
	var req searchRecordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ObjectTypeID == "" {
		writeError(w, http.StatusBadRequest, "object_type_id is required")
		return
	}

	s.listRecords(w, r, model.RecordFilter{
		ObjectTypeID: req.ObjectTypeID,
		OwnerID:      req.OwnerID,
		Conditions:   req.Conditions,
		Sort:         req.Sort,
		Limit:        req.Limit,
		Offset:       req.Offset,
	})
}

func (s *RecordsServer) listRecords(w http.ResponseWriter, r *http.Request, f model.RecordFilter) {
	records, total, err := s.attrs.ListRecords(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	if records == nil {
		records = []*model.Record{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"total":   total,
	})
}

// handleGetRecord handles GET /v1/records/{id}.
func (s *RecordsServer) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rec, err := s.attrs.GetRecord(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get record")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// setAttributesRequest is the JSON body for PATCH /v1/records/{id}/attributes.
type setAttributesRequest struct {
	Attributes map[string]string `json:"attributes"`
}

// handleSetAttributes handles PATCH /v1/records/{id}/attributes. The response
// reports per-field outcomes; a 200 does not mean every field landed.
func (s *RecordsServer) handleSetAttributes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req setAttributesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Attributes) == 0 {
		writeError(w, http.StatusBadRequest, "attributes must not be empty")
		return
	}

	result, err := s.attrs.SetAttributes(r.Context(), id, req.Attributes)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to write attributes")
		return
	}

	s.publish(r.Context(), events.TopicAttributesSet, events.AttributesSet{RecordID: id, Result: result})
	writeJSON(w, http.StatusOK, result)
}

// handleDeleteRecord handles DELETE /v1/records/{id}.
func (s *RecordsServer) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.attrs.DeleteRecord(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete record")
		return
	}

	s.publish(r.Context(), events.TopicRecordDeleted, events.RecordDeleted{RecordID: id})
	w.WriteHeader(http.StatusNoContent)
}
