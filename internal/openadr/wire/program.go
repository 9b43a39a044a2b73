package wire

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/erauner12/openadr-vtn/internal/openadr/identifier"
)

// ProgramContent is the mutable body of a Program.
type ProgramContent struct {
	ProgramName          string              `json:"programName"`
	ProgramLongName      string              `json:"programLongName,omitempty"`
	RetailerName         string              `json:"retailerName,omitempty"`
	ProgramType          string              `json:"programType,omitempty"`
	Country              string              `json:"country,omitempty"`
	PrincipalSubdivision string              `json:"principalSubdivision,omitempty"`
	TimeZoneOffset       string              `json:"timeZoneOffset,omitempty"`
	IntervalPeriod       *IntervalPeriod     `json:"intervalPeriod,omitempty"`
	PayloadDescriptors   []PayloadDescriptor `json:"payloadDescriptors,omitempty"`
	Targets              TargetMap           `json:"targets,omitempty"`
	BusinessID           *string             `json:"businessId,omitempty"`
}

// Program is a full persisted Program record.
type Program struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"createdDateTime"`
	ModifiedAt time.Time      `json:"modificationDateTime"`
	Content    ProgramContent `json:"-"`
}

var (
	ErrProgramNameRequired = errors.New("program: programName is required")
)

// Validate checks structural invariants the storage layer relies on before a
// write; it does not check uniqueness (a storage-level concern, §5.4.3).
func (c ProgramContent) Validate() error {
	if c.ProgramName == "" {
		return ErrProgramNameRequired
	}
	if _, err := identifier.Parse(c.ProgramName); err != nil {
		return err
	}
	return nil
}

// MarshalJSON flattens Content alongside id/createdDateTime/modificationDateTime
// into a single JSON object, matching the wire protocol's flat Program shape.
func (p Program) MarshalJSON() ([]byte, error) {
	contentJSON, err := json.Marshal(p.Content)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(contentJSON, &m); err != nil {
		return nil, err
	}
	if m["id"], err = json.Marshal(p.ID); err != nil {
		return nil, err
	}
	if m["createdDateTime"], err = json.Marshal(p.CreatedAt); err != nil {
		return nil, err
	}
	if m["modificationDateTime"], err = json.Marshal(p.ModifiedAt); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func (p *Program) UnmarshalJSON(b []byte) error {
	var content ProgramContent
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
	p.ID = envelope.ID
	p.CreatedAt = envelope.CreatedAt
	p.ModifiedAt = envelope.ModifiedAt
	p.Content = content
	return nil
}

// VENTargets extracts the VEN_NAME target entries, returning the rest of
// targets separately so the storage layer can materialize the VEN
// assignment relation and persist only the remainder inline (§5.4.4).
func (c ProgramContent) VENTargets() (venNames []string, rest TargetMap) {
	for _, t := range c.Targets {
		if t.Label == TargetVENName {
			venNames = append(venNames, t.Values...)
			continue
		}
		rest = append(rest, t)
	}
	return venNames, rest
}
