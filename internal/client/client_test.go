package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := New(server.URL, ClientCredentials{ClientID: "ven-1", ClientSecret: "secret"})
	return server, c
}

func tokenHandler(w http.ResponseWriter, r *http.Request) {
	id, secret, ok := r.BasicAuth()
	if !ok || id != "ven-1" || secret != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(OAuthError{Error: "invalid_client"})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"access_token": "test-token",
		"token_type":   "bearer",
		"expires_in":   3600,
	})
}

func TestCreateProgram_InjectsBearerToken(t *testing.T) {
	var capturedAuth string

	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token":
			tokenHandler(w, r)
		case "/programs/":
			capturedAuth = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode(wire.Program{ID: "prog-1", Content: wire.ProgramContent{ProgramName: "p1"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	program, err := c.CreateProgram(context.Background(), wire.ProgramContent{ProgramName: "p1"})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	if program.ID != "prog-1" {
		t.Errorf("program.ID = %q, want prog-1", program.ID)
	}
	if capturedAuth != "Bearer test-token" {
		t.Errorf("Authorization header = %q, want Bearer test-token", capturedAuth)
	}
}

func TestGetProgramByName_NotFoundAndDuplicate(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token":
			tokenHandler(w, r)
		case "/programs/":
			name := r.URL.Query().Get("targetValues")
			switch name {
			case "lonely":
				json.NewEncoder(w).Encode([]wire.Program{
					{ID: "prog-1", Content: wire.ProgramContent{ProgramName: "lonely"}},
				})
			case "twins":
				json.NewEncoder(w).Encode([]wire.Program{
					{ID: "prog-1", Content: wire.ProgramContent{ProgramName: "twins"}},
					{ID: "prog-2", Content: wire.ProgramContent{ProgramName: "twins"}},
				})
			default:
				json.NewEncoder(w).Encode([]wire.Program{})
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	if _, err := c.GetProgramByName(context.Background(), "missing"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}

	found, err := c.GetProgramByName(context.Background(), "lonely")
	if err != nil {
		t.Fatalf("GetProgramByName(lonely): %v", err)
	}
	if found.ID != "prog-1" {
		t.Errorf("found.ID = %q, want prog-1", found.ID)
	}

	if _, err := c.GetProgramByName(context.Background(), "twins"); err == nil {
		t.Fatal("expected a duplicate-object error for twins")
	}
}

func TestEnsureAuth_TokenReusedAcrossRequests(t *testing.T) {
	tokenCalls := 0
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token":
			tokenCalls++
			tokenHandler(w, r)
		case "/programs/":
			json.NewEncoder(w).Encode([]wire.Program{})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	if _, err := c.GetPrograms(ctx, 0, 50); err != nil {
		t.Fatalf("first GetPrograms: %v", err)
	}
	if _, err := c.GetPrograms(ctx, 0, 50); err != nil {
		t.Fatalf("second GetPrograms: %v", err)
	}
	if tokenCalls != 1 {
		t.Errorf("token endpoint called %d times, want 1 (cached token should be reused)", tokenCalls)
	}
}

func TestRequest_ProblemErrorOnNon2xx(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token":
			tokenHandler(w, r)
		case "/programs/missing-id":
			w.WriteHeader(http.StatusNotFound)
			w.Header().Set("Content-Type", "application/problem+json")
			json.NewEncoder(w).Encode(Problem{Title: "Not Found", Status: http.StatusNotFound, Detail: "no such program"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	_, err := c.GetProgramByID(context.Background(), "missing-id")
	if err == nil {
		t.Fatal("expected an error")
	}
	perr, ok := err.(*ProblemError)
	if !ok {
		t.Fatalf("err = %T, want *ProblemError", err)
	}
	if perr.Problem.Status != http.StatusNotFound {
		t.Errorf("problem status = %d, want 404", perr.Problem.Status)
	}
}
