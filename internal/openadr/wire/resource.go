package wire

import (
	"encoding/json"
	"errors"
	"time"
)

// ResourceContent is the mutable body of a Resource.
type ResourceContent struct {
	ResourceName string      `json:"resourceName"`
	Attributes   []Attribute `json:"attributes,omitempty"`
	Targets      TargetMap   `json:"targets,omitempty"`
}

// Resource is a full persisted Resource record, owned by its Ven.
type Resource struct {
	ID         string          `json:"id"`
	VenID      string          `json:"venID"`
	CreatedAt  time.Time       `json:"createdDateTime"`
	ModifiedAt time.Time       `json:"modificationDateTime"`
	Content    ResourceContent `json:"-"`
}

// MarshalJSON flattens Content alongside id/venID/createdDateTime/modificationDateTime
// into a single JSON object, matching the wire protocol's flat Resource shape.
func (r Resource) MarshalJSON() ([]byte, error) {
	contentJSON, err := json.Marshal(r.Content)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(contentJSON, &m); err != nil {
		return nil, err
	}
	if m["id"], err = json.Marshal(r.ID); err != nil {
		return nil, err
	}
	if m["venID"], err = json.Marshal(r.VenID); err != nil {
		return nil, err
	}
	if m["createdDateTime"], err = json.Marshal(r.CreatedAt); err != nil {
		return nil, err
	}
	if m["modificationDateTime"], err = json.Marshal(r.ModifiedAt); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func (r *Resource) UnmarshalJSON(b []byte) error {
	var content ResourceContent
	if err := json.Unmarshal(b, &content); err != nil {
		return err
	}
	var envelope struct {
		ID         string    `json:"id"`
		VenID      string    `json:"venID"`
		CreatedAt  time.Time `json:"createdDateTime"`
		ModifiedAt time.Time `json:"modificationDateTime"`
	}
	if err := json.Unmarshal(b, &envelope); err != nil {
		return err
	}
	r.ID = envelope.ID
	r.VenID = envelope.VenID
	r.CreatedAt = envelope.CreatedAt
	r.ModifiedAt = envelope.ModifiedAt
	r.Content = content
	return nil
}

var ErrResourceNameRequired = errors.New("resource: resourceName is required")

func (c ResourceContent) Validate() error {
	if c.ResourceName == "" {
		return ErrResourceNameRequired
	}
	return nil
}
