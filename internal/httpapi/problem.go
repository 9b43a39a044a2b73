package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/erauner12/openadr-vtn/internal/auth"
	"github.com/erauner12/openadr-vtn/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Problem is an RFC 7807 Problem+JSON error body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance"`
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	p := Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: uuid.NewString(),
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("failed to encode problem response")
	}
}

// writeAppError maps a store.Error to its Problem+JSON response, logging
// the instance UUID alongside 500s so operators can correlate.
func writeAppError(w http.ResponseWriter, err *store.Error) {
	status, title := http.StatusInternalServerError, "Internal Server Error"
	switch err.Kind {
	case store.KindValidation, store.KindBadRequest:
		status, title = http.StatusBadRequest, "Bad Request"
	case store.KindNotFound:
		status, title = http.StatusNotFound, "Not Found"
	case store.KindConflict:
		status, title = http.StatusConflict, "Conflict"
	case store.KindForbidden:
		status, title = http.StatusForbidden, "Forbidden"
	case store.KindAuth:
		status, title = http.StatusUnauthorized, "Unauthorized"
	case store.KindNotImplemented:
		status, title = http.StatusNotImplemented, "Not Implemented"
	case store.KindInternal:
		status, title = http.StatusInternalServerError, "Internal Server Error"
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("internal error serving request")
	}
	writeProblem(w, status, title, err.Message)
}

// writeUnauthenticated is the 401 shape used outside the token endpoint,
// for a missing/invalid bearer token on a protected route.
func writeUnauthenticated(w http.ResponseWriter) {
	writeProblem(w, http.StatusUnauthorized, "Unauthorized", "missing or invalid bearer token")
}

func writeForbidden(w http.ResponseWriter) {
	writeProblem(w, http.StatusForbidden, "Forbidden", "caller lacks the required role")
}

// writeForbiddenOrUnauth maps the error returned by an auth.Require* extractor
// to the right response: ErrUnauthenticated means no valid bearer token at
// all, ErrForbidden means an authenticated caller missing the required role.
func writeForbiddenOrUnauth(w http.ResponseWriter, err error) {
	if errors.Is(err, auth.ErrUnauthenticated) {
		writeUnauthenticated(w)
		return
	}
	writeForbidden(w)
}

// oauthError is the OAuth2 token-endpoint error body (distinct shape from
// Problem+JSON per §6/§7 — the token endpoint speaks plain OAuth2, not HTTP
// Problem Details).
type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeOAuthError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	if code == "invalid_client" {
		w.Header().Set("WWW-Authenticate", `Basic realm="VTN"`)
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(oauthError{Error: code, ErrorDescription: description}); err != nil {
		log.Error().Err(err).Msg("failed to encode oauth error response")
	}
}
