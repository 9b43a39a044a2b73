package wire

import (
	"encoding/json"
	"errors"
	"time"
)

// Attribute is an opaque (type, values) attribute pair carried on Ven and
// Resource records.
type Attribute struct {
	Type   string   `json:"type"`
	Values []Value  `json:"values"`
}

// VenContent is the mutable body of a Ven.
type VenContent struct {
	VenName    string      `json:"venName"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Targets    TargetMap   `json:"targets,omitempty"`
	Resources  []Resource  `json:"resources,omitempty"`
}

// Ven is a full persisted Ven record.
type Ven struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"createdDateTime"`
	ModifiedAt time.Time  `json:"modificationDateTime"`
	Content    VenContent `json:"-"`
}

// MarshalJSON flattens Content alongside id/createdDateTime/modificationDateTime
// into a single JSON object, matching the wire protocol's flat Ven shape.
func (v Ven) MarshalJSON() ([]byte, error) {
	contentJSON, err := json.Marshal(v.Content)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(contentJSON, &m); err != nil {
		return nil, err
	}
	if m["id"], err = json.Marshal(v.ID); err != nil {
		return nil, err
	}
	if m["createdDateTime"], err = json.Marshal(v.CreatedAt); err != nil {
		return nil, err
	}
	if m["modificationDateTime"], err = json.Marshal(v.ModifiedAt); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func (v *Ven) UnmarshalJSON(b []byte) error {
	var content VenContent
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
	v.ID = envelope.ID
	v.CreatedAt = envelope.CreatedAt
	v.ModifiedAt = envelope.ModifiedAt
	v.Content = content
	return nil
}

var ErrVenNameRequired = errors.New("ven: venName is required")

func (c VenContent) Validate() error {
	if c.VenName == "" {
		return ErrVenNameRequired
	}
	return nil
}
