package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/erauner12/openadr-vtn/internal/auth"
	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
	"github.com/go-chi/chi/v5"
)

// ListReports handles GET /reports.
func (s *Server) ListReports(w http.ResponseWriter, r *http.Request) {
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
	q := r.URL.Query()
	reports, storeErr := s.Reports.RetrieveAll(r.Context(), q.Get("programID"), q.Get("eventID"), q.Get("clientName"), filter, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	if reports == nil {
		reports = []wire.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

// CreateReport handles POST /reports.
func (s *Server) CreateReport(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireVen(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	var content wire.ReportContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	report, storeErr := s.Reports.Create(r.Context(), content, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// GetReport handles GET /reports/{id}.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireUser(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}
	id := chi.URLParam(r, "id")
	report, storeErr := s.Reports.Retrieve(r.Context(), id, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// UpdateReport handles PUT /reports/{id}.
func (s *Server) UpdateReport(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireVen(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	var content wire.ReportContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	report, storeErr := s.Reports.Update(r.Context(), id, content, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// DeleteReport handles DELETE /reports/{id}. Authorization is BusinessUser
// per the route table, despite reports being VEN-authored; see DESIGN.md.
func (s *Server) DeleteReport(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireBusiness(r.Context())
	if err != nil {
		writeForbiddenOrUnauth(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	report, storeErr := s.Reports.Delete(r.Context(), id, caller)
	if storeErr != nil {
		writeAppError(w, storeErr)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
