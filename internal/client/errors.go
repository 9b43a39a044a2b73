package client

import "fmt"

// Problem mirrors the server's RFC 7807 Problem+JSON body (httpapi.Problem).
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance"`
}

// OAuthError mirrors the token endpoint's error shape (httpapi.oauthError).
type OAuthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// ProblemError wraps a decoded Problem+JSON response from any endpoint other
// than the token endpoint.
type ProblemError struct {
	Problem Problem
}

func (e *ProblemError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Problem.Title, e.Problem.Status, e.Problem.Detail)
}

// AuthError wraps a decoded OAuth2 error from the token endpoint.
type AuthError struct {
	OAuthError OAuthError
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("oauth error %s: %s", e.OAuthError.Error, e.OAuthError.ErrorDescription)
}

// TransportError wraps a lower-level network/transport failure.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport error: %s", e.Cause) }
func (e *TransportError) Unwrap() error { return e.Cause }

// SerdeError wraps a JSON marshal/unmarshal failure.
type SerdeError struct {
	Cause error
}

func (e *SerdeError) Error() string { return fmt.Sprintf("serde error: %s", e.Cause) }
func (e *SerdeError) Unwrap() error { return e.Cause }

// sentinelError is a plain string error, used for the taxonomy's fixed
// conditions that carry no dynamic payload.
type sentinelError string

func (e sentinelError) Error() string { return string(e) }

const (
	// ErrTokenNotBearer is returned when the token endpoint reports a
	// token_type other than "bearer".
	ErrTokenNotBearer = sentinelError("auth: token_type is not bearer")

	// ErrObjectNotFound is returned by name-lookup helpers (GetProgramByName)
	// when the query matches zero objects.
	ErrObjectNotFound = sentinelError("client: no object matched the query")

	// ErrDuplicateObject is returned by name-lookup helpers when the query
	// matches more than one object, so the caller can't pick one.
	ErrDuplicateObject = sentinelError("client: more than one object matched the query")

	// ErrInvalidParentObject is returned when a parent or object ID passed to
	// a client method is empty. The client does not check that the ID was
	// ever returned by the server, nor that an event's programID matches the
	// program it is created under.
	ErrInvalidParentObject = sentinelError("client: parent object ID is invalid or empty")

	// ErrInvalidInterval is wrapped by updateloop.ClientSource when a
	// fetched program's events cannot be merged into a timeline because an
	// event interval has no resolvable interval period.
	ErrInvalidInterval = sentinelError("client: invalid interval")
)
