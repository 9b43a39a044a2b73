package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/erauner12/openadr-vtn/internal/auth"
	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
	"github.com/go-chi/chi/v5"
)

// ListVens handles GET /vens.
func (s *Server) ListVens(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireVenManager(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	filter, storeErr := parseFilter(r)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	venName := r.URL.Query().Get("venName")
	vens, storeErr := s.Vens.RetrieveAll(r.Context(), venName, filter, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	if vens == nil {
		vens = []wire.Ven{}
	}
	writeJSON(w, http.StatusOK, vens)
}

// CreateVen handles POST /vens.
func (s *Server) CreateVen(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireVenManager(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	var content wire.VenContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	ven, storeErr := s.Vens.Create(r.Context(), content, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusCreated, ven)
}

// GetVen handles GET /vens/{venID}. The store scopes visibility to VenManager
// or the VEN's own token, so any authenticated caller may reach this handler.
func (s *Server) GetVen(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUser(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}
	id := chi.URLParam(r, "venID")
	ven, storeErr := s.Vens.Retrieve(r.Context(), id, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, ven)
}

// UpdateVen handles PUT /vens/{venID}.
func (s *Server) UpdateVen(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireVenManager(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	id := chi.URLParam(r, "venID")
	var content wire.VenContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	ven, storeErr := s.Vens.Update(r.Context(), id, content, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, ven)
}

// DeleteVen handles DELETE /vens/{venID}.
func (s *Server) DeleteVen(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireVenManager(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	id := chi.URLParam(r, "venID")
	ven, storeErr := s.Vens.Delete(r.Context(), id, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, ven)
}
