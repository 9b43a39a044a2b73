package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/erauner12/openadr-vtn/internal/auth"
	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
	"github.com/go-chi/chi/v5"
)

// ListPrograms handles GET /programs.
func (s *Server) ListPrograms(w http.ResponseWriter, r *http.Request) {
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
	programs, storeErr := s.Programs.RetrieveAll(r.Context(), filter, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	if programs == nil {
		programs = []wire.Program{}
	}
	writeJSON(w, http.StatusOK, programs)
}

// CreateProgram handles POST /programs.
func (s *Server) CreateProgram(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireBusiness(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	var content wire.ProgramContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	program, storeErr := s.Programs.Create(r.Context(), content, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusCreated, program)
}

// GetProgram handles GET /programs/{id}.
func (s *Server) GetProgram(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUser(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}
	id := chi.URLParam(r, "id")
	program, storeErr := s.Programs.Retrieve(r.Context(), id, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, program)
}

// UpdateProgram handles PUT /programs/{id}.
func (s *Server) UpdateProgram(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireBusiness(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	var content wire.ProgramContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	program, storeErr := s.Programs.Update(r.Context(), id, content, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, program)
}

// DeleteProgram handles DELETE /programs/{id}.
func (s *Server) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireBusiness(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	program, storeErr := s.Programs.Delete(r.Context(), id, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, program)
}
