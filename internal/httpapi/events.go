package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/erauner12/openadr-vtn/internal/auth"
	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
	"github.com/go-chi/chi/v5"
)

// ListEvents handles GET /events.
func (s *Server) ListEvents(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUser(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}
	filter, storeErr := parseFilter(r)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	programID := r.URL.Query().Get("programID")
	events, storeErr := s.Events.RetrieveAll(r.Context(), programID, filter, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	if events == nil {
		events = []wire.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// CreateEvent handles POST /events.
func (s *Server) CreateEvent(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireBusiness(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	var content wire.EventContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	event, storeErr := s.Events.Create(r.Context(), content, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// GetEvent handles GET /events/{id}.
func (s *Server) GetEvent(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUser(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}
	id := chi.URLParam(r, "id")
	event, storeErr := s.Events.Retrieve(r.Context(), id, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PUT /events/{id}.
func (s *Server) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireBusiness(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	var content wire.EventContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	event, storeErr := s.Events.Update(r.Context(), id, content, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /events/{id}.
func (s *Server) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireBusiness(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	event, storeErr := s.Events.Delete(r.Context(), id, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, event)
}
