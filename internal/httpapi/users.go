package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/erauner12/openadr-vtn/internal/auth"
	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
	"github.com/go-chi/chi/v5"
)

// addCredentialRequest is the body of POST /users/{id}.
type addCredentialRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// ListUsers handles GET /users.
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUserManager(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	filter, storeErr := parseFilter(r)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	users, storeErr := s.Users.RetrieveAll(r.Context(), filter, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	if users == nil {
		users = []wire.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// CreateUser handles POST /users.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUserManager(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	var content wire.UserContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	user, storeErr := s.Users.Create(r.Context(), content, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// GetUser handles GET /users/{id}.
func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUserManager(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	user, storeErr := s.Users.Retrieve(r.Context(), id, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUser handles PUT /users/{id}.
func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUserManager(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	var content wire.UserContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	user, storeErr := s.Users.Update(r.Context(), id, content, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /users/{id}.
func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUserManager(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	user, storeErr := s.Users.Delete(r.Context(), id, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// AddUserCredential handles POST /users/{id}, the add-credential operation.
func (s *Server) AddUserCredential(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUserManager(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	var body addCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if body.ClientID == "" || body.ClientSecret == "" {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "clientId and clientSecret are required")
		return
	}
	if storeErr := s.Users.AddCredential(r.Context(), id, body.ClientID, body.ClientSecret, caller); storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// DeleteUserCredential handles DELETE /users/{id}/{clientID}.
func (s *Server) DeleteUserCredential(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUserManager(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	clientID := chi.URLParam(r, "clientID")
	user, storeErr := s.Users.DeleteCredential(r.Context(), id, clientID, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
