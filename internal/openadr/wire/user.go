package wire

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/erauner12/openadr-vtn/internal/auth"
)

// UserContent is the mutable body of a User: a VTN-internal credential
// principal and the role set it's granted, not a wire entity OpenADR itself
// defines.
type UserContent struct {
	Reference   string          `json:"reference"`
	Description string          `json:"description,omitempty"`
	Roles       []auth.AuthRole `json:"roles"`
	ClientIDs   []string        `json:"clientIds,omitempty"`
}

// User is a full persisted User record.
type User struct {
	ID         string      `json:"id"`
	CreatedAt  time.Time   `json:"createdDateTime"`
	ModifiedAt time.Time   `json:"modificationDateTime"`
	Content    UserContent `json:"-"`
}

// MarshalJSON flattens Content alongside id/createdDateTime/modificationDateTime
// into a single JSON object, matching the other entities' flat wire shape.
func (u User) MarshalJSON() ([]byte, error) {
	contentJSON, err := json.Marshal(u.Content)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(contentJSON, &m); err != nil {
		return nil, err
	}
	if m["id"], err = json.Marshal(u.ID); err != nil {
		return nil, err
	}
	if m["createdDateTime"], err = json.Marshal(u.CreatedAt); err != nil {
		return nil, err
	}
	if m["modificationDateTime"], err = json.Marshal(u.ModifiedAt); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func (u *User) UnmarshalJSON(b []byte) error {
	var content UserContent
	if err := json.Unmarshal(b, &content); err != nil {
		return err
	}
	var envelope struct {
		ID         string    `json:"id"`
		CreatedAt  time.Time `json:"createdDateTime"`
		ModifiedAt time.Time `json:"modificationDateTime"`
	}
	if err := json.Unmarshal(b, &envelope); err != nil {
		return err
	}
	u.ID = envelope.ID
	u.CreatedAt = envelope.CreatedAt
	u.ModifiedAt = envelope.ModifiedAt
	u.Content = content
	return nil
}

var ErrUserReferenceRequired = errors.New("user: reference is required")

func (c UserContent) Validate() error {
	if c.Reference == "" {
		return ErrUserReferenceRequired
	}
	return nil
}
