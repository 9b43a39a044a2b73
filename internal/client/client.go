// Package client is a VEN-side Go client for the VTN HTTP API: token
// acquisition and caching, and CRUD plus pagination helpers over
// Programs/Events/Reports.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// refreshMargin is how far ahead of a cached token's expiry a new one is
// fetched, so a request started just before expiry doesn't race the server.
const refreshMargin = 60 * time.Second

// defaultCredentialExpiresIn is used when the token response omits expires_in.
const defaultCredentialExpiresIn = 3600 * time.Second

// ClientCredentials is an OAuth2 client_credentials grant pair.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

// Client talks to one VTN base URL, authenticating lazily on first request
// and refreshing the cached token as it nears expiry.
type Client struct {
	baseURL     string
	credentials ClientCredentials
	httpClient  *http.Client

	mu    sync.Mutex
	token *cachedToken
}

// New builds a Client against baseURL (no trailing slash) using the default
// http.Client. A caller that needs custom transport/timeout behavior can
// replace it with WithHTTPClient after construction.
func New(baseURL string, credentials ClientCredentials) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		credentials: credentials,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient overrides the underlying http.Client, e.g. for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// ensureAuth returns a valid bearer token, fetching or refreshing one via the
// RFC 6749 §4.4 client-credentials grant as needed.
func (c *Client) ensureAuth(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil && time.Now().Add(refreshMargin).Before(c.token.expiresAt) {
		return c.token.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &SerdeError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.credentials.ClientID, c.credentials.ClientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		var oerr OAuthError
		if json.Unmarshal(body, &oerr) == nil && oerr.Error != "" {
			return "", &AuthError{OAuthError: oerr}
		}
		return "", &AuthError{OAuthError: OAuthError{Error: "server_error", ErrorDescription: string(body)}}
	}

	var tr struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", &SerdeError{Cause: err}
	}
	if !strings.EqualFold(tr.TokenType, "bearer") {
		return "", ErrTokenNotBearer
	}

	ttl := defaultCredentialExpiresIn
	if tr.ExpiresIn > 0 {
		ttl = time.Duration(tr.ExpiresIn) * time.Second
	}
	c.token = &cachedToken{accessToken: tr.AccessToken, expiresAt: time.Now().Add(ttl)}
	return c.token.accessToken, nil
}

// request performs one authenticated round trip. body, if non-nil, is
// JSON-marshaled as the request body. out, if non-nil, receives the decoded
// JSON response body.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &SerdeError{Cause: err}
		}
		reader = bytes.NewReader(b)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return &SerdeError{Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.ensureAuth(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Cause: err}
	}

	if resp.StatusCode >= 400 {
		var p Problem
		if json.Unmarshal(respBody, &p) == nil && p.Title != "" {
			return &ProblemError{Problem: p}
		}
		return &ProblemError{Problem: Problem{Title: "unknown error", Status: resp.StatusCode, Detail: string(respBody)}}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &SerdeError{Cause: err}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.request(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.request(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.request(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.request(ctx, http.MethodDelete, path, nil, nil, nil)
}

// pageSize is the page size used by the GetAll*/GetList* auto-pagination
// helpers; it matches the server's maxLimit (store.Filter).
const pageSize = 50

func skipParam(skip, limit int) url.Values {
	v := url.Values{}
	v.Set("skip", fmt.Sprintf("%d", skip))
	v.Set("limit", fmt.Sprintf("%d", limit))
	return v
}
