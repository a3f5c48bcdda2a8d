package server

import (
	"encoding/json"
	"net/http"
)

// handleGetPreference handles GET /v1/preferences/{user_id}/{object_type_id}.
// No recorded preference is a 200 with a null field list, not a 404.
func (s *RecordsServer) handleGetPreference(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	objectTypeID := r.PathValue("object_type_id")

	fields, err := s.prefs.VisibleFields(r.Context(), userID, objectTypeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get preference")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":        userID,
		"object_type_id": objectTypeID,
		"visible_fields": fields,
	})
}

// setPreferenceRequest is the JSON body for PUT /v1/preferences/....
type setPreferenceRequest struct {
	VisibleFields []string `json:"visible_fields"`
}

// handleSetPreference handles PUT /v1/preferences/{user_id}/{object_type_id}.
func (s *RecordsServer) handleSetPreference(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	objectTypeID := r.PathValue("object_type_id")

	var req setPreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.prefs.SetVisibleFields(r.Context(), userID, objectTypeID, req.VisibleFields); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to set preference")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":        userID,
		"object_type_id": objectTypeID,
		"visible_fields": req.VisibleFields,
	})
}
