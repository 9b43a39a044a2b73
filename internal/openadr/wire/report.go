package wire

import (
	"encoding/json"
	"errors"
	"time"
)

// ReportResource carries per-resource reported values inside a Report.
type ReportResource struct {
	ResourceName string           `json:"resourceName"`
	Intervals    []EventInterval  `json:"intervals"`
}

// ReportContent is the mutable body of a Report.
type ReportContent struct {
	ProgramID          string              `json:"programID"`
	EventID            string              `json:"eventID"`
	ClientName         string              `json:"clientName"`
	ReportName         string              `json:"reportName,omitempty"`
	PayloadDescriptors []PayloadDescriptor `json:"payloadDescriptors,omitempty"`
	Resources          []ReportResource    `json:"resources"`
}

// Report is a full persisted Report record.
type Report struct {
	ID         string        `json:"id"`
	CreatedAt  time.Time     `json:"createdDateTime"`
	ModifiedAt time.Time     `json:"modificationDateTime"`
	Content    ReportContent `json:"-"`
}

// MarshalJSON flattens Content alongside id/createdDateTime/modificationDateTime
// into a single JSON object, matching the wire protocol's flat Report shape.
func (r Report) MarshalJSON() ([]byte, error) {
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
	if m["createdDateTime"], err = json.Marshal(r.CreatedAt); err != nil {
		return nil, err
	}
	if m["modificationDateTime"], err = json.Marshal(r.ModifiedAt); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func (r *Report) UnmarshalJSON(b []byte) error {
	var content ReportContent
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
	r.ID = envelope.ID
	r.CreatedAt = envelope.CreatedAt
	r.ModifiedAt = envelope.ModifiedAt
	r.Content = content
	return nil
}

var (
	ErrReportProgramIDRequired  = errors.New("report: programID is required")
	ErrReportEventIDRequired    = errors.New("report: eventID is required")
	ErrReportClientNameRequired = errors.New("report: clientName is required")
)

func (c ReportContent) Validate() error {
	if c.ProgramID == "" {
		return ErrReportProgramIDRequired
	}
	if c.EventID == "" {
		return ErrReportEventIDRequired
	}
	if c.ClientName == "" {
		return ErrReportClientNameRequired
	}
	return nil
}
