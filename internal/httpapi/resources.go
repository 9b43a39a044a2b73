package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/erauner12/openadr-vtn/internal/auth"
	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
	"github.com/go-chi/chi/v5"
)

// ListResources handles GET /vens/{venID}/resources.
func (s *Server) ListResources(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUser(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}
	venID := chi.URLParam(r, "venID")
	filter, storeErr := parseFilter(r)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	resources, storeErr := s.Resources.RetrieveAll(r.Context(), venID, filter, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	if resources == nil {
		resources = []wire.Resource{}
	}
	writeJSON(w, http.StatusOK, resources)
}

// CreateResource handles POST /vens/{venID}/resources.
func (s *Server) CreateResource(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUser(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}
	venID := chi.URLParam(r, "venID")
	var content wire.ResourceContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	resource, storeErr := s.Resources.Create(r.Context(), venID, content, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusCreated, resource)
}

// GetResource handles GET /vens/{venID}/resources/{id}.
func (s *Server) GetResource(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUser(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}
	venID := chi.URLParam(r, "venID")
	id := chi.URLParam(r, "id")
	resource, storeErr := s.Resources.Retrieve(r.Context(), venID, id, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

// UpdateResource handles PUT /vens/{venID}/resources/{id}.
func (s *Server) UpdateResource(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUser(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}
	venID := chi.URLParam(r, "venID")
	id := chi.URLParam(r, "id")
	var content wire.ResourceContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	resource, storeErr := s.Resources.Update(r.Context(), venID, id, content, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

// DeleteResource handles DELETE /vens/{venID}/resources/{id}.
func (s *Server) DeleteResource(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUser(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}
	venID := chi.URLParam(r, "venID")
	id := chi.URLParam(r, "id")
	resource, storeErr := s.Resources.Delete(r.Context(), venID, id, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, resource)
}
