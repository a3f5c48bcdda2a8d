package server

import (
	"encoding/json"
	"net/http"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *RecordsServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/object-types", s.handleCreateObjectType)
	mux.HandleFunc("GET /v1/object-types", s.handleListObjectTypes)
	mux.HandleFunc("GET /v1/object-types/{id}", s.handleGetObjectType)
	mux.HandleFunc("PATCH /v1/object-types/{id}", s.handleUpdateObjectType)
	mux.HandleFunc("POST /v1/object-types/{id}/archive", s.handleArchiveObjectType)
	mux.HandleFunc("POST /v1/object-types/{id}/fields", s.handleCreateField)
	mux.HandleFunc("GET /v1/object-types/{id}/fields", s.handleListFields)
	mux.HandleFunc("GET /v1/object-types/{id}/relationships", s.handleListRelationships)
	mux.HandleFunc("PATCH /v1/fields/{id}", s.handleUpdateField)
	mux.HandleFunc("DELETE /v1/fields/{id}", s.handleDeleteField)
	mux.HandleFunc("GET /v1/operators", s.handleGetOperators)
	mux.HandleFunc("POST /v1/records", s.handleCreateRecord)
	mux.HandleFunc("GET /v1/records", s.handleListRecords)
	mux.HandleFunc("POST /v1/records/search", s.handleSearchRecords)
	mux.HandleFunc("GET /v1/records/{id}", s.handleGetRecord)
	mux.HandleFunc("PATCH /v1/records/{id}/attributes", s.handleSetAttributes)
	mux.HandleFunc("DELETE /v1/records/{id}", s.handleDeleteRecord)
	mux.HandleFunc("GET /v1/records/{id}/related", s.handleGetRelated)
	mux.HandleFunc("POST /v1/relationships", s.handleCreateRelationship)
	mux.HandleFunc("DELETE /v1/relationships/{id}", s.handleDeleteRelationship)
	mux.HandleFunc("GET /v1/preferences/{user_id}/{object_type_id}", s.handleGetPreference)
	mux.HandleFunc("PUT /v1/preferences/{user_id}/{object_type_id}", s.handleSetPreference)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *RecordsServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
