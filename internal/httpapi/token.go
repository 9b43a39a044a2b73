package httpapi

import (
	"net/http"
	"time"
)

const tokenTTL = 30 * 24 * time.Hour

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// IssueToken handles POST /auth/token: the OAuth2 client_credentials grant.
// Credentials may arrive via HTTP Basic or form fields, never both (§4.5).
func (s *Server) IssueToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}
	if r.PostForm.Get("grant_type") != "client_credentials" {
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "grant_type must be client_credentials")
		return
	}

	basicID, basicSecret, hasBasic := r.BasicAuth()
	formID, formSecret := r.PostForm.Get("client_id"), r.PostForm.Get("client_secret")
	hasForm := formID != "" || formSecret != ""

	if hasBasic && hasForm {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "credentials supplied in both Basic header and body")
		return
	}

	var clientID, clientSecret string
	switch {
	case hasBasic:
		clientID, clientSecret = basicID, basicSecret
	case hasForm:
		clientID, clientSecret = formID, formSecret
	default:
		writeOAuthError(w, http.StatusUnauthorized, "invalid_client", "no client credentials supplied")
		return
	}

	info, ok, storeErr := s.Users.Lookup(r.Context(), clientID, clientSecret)
	if storeErr != nil {
		writeOAuthError(w, http.StatusInternalServerError, "server_error", "failed to resolve credentials")
		return
	}
	if !ok {
		writeOAuthError(w, http.StatusUnauthorized, "invalid_client", "unknown client or bad secret")
		return
	}

	accessToken, err := s.Auth.Create(tokenTTL, info.ClientID, info.Roles)
	if err != nil {
		writeOAuthError(w, http.StatusInternalServerError, "server_error", "failed to mint token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(tokenTTL.Seconds()),
	})
}
