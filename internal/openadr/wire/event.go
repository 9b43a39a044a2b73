package wire

import (
	"encoding/json"
	"errors"
	"time"
)

// EventInterval is one sub-division of an event's time window carrying
// concrete payload values.
type EventInterval struct {
	ID             int32           `json:"id"`
	IntervalPeriod *IntervalPeriod `json:"intervalPeriod,omitempty"`
	Payloads       []EventValuesMap `json:"payloads"`
}

// EventContent is the mutable body of an Event.
type EventContent struct {
	ProgramID          string              `json:"programID"`
	EventName          string              `json:"eventName,omitempty"`
	Priority           Priority            `json:"priority"`
	Targets            TargetMap           `json:"targets,omitempty"`
	ReportDescriptors  []ReportDescriptor  `json:"reportDescriptors,omitempty"`
	PayloadDescriptors []PayloadDescriptor `json:"payloadDescriptors,omitempty"`
	IntervalPeriod     *IntervalPeriod     `json:"intervalPeriod,omitempty"`
	Intervals          []EventInterval     `json:"intervals"`
}

// Event is a full persisted Event record.
type Event struct {
	ID         string       `json:"id"`
	CreatedAt  time.Time    `json:"createdDateTime"`
	ModifiedAt time.Time    `json:"modificationDateTime"`
	Content    EventContent `json:"-"`
}

// MarshalJSON flattens Content alongside id/createdDateTime/modificationDateTime
// into a single JSON object, matching the wire protocol's flat Event shape.
func (e Event) MarshalJSON() ([]byte, error) {
	contentJSON, err := json.Marshal(e.Content)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(contentJSON, &m); err != nil {
		return nil, err
	}
	if m["id"], err = json.Marshal(e.ID); err != nil {
		return nil, err
	}
	if m["createdDateTime"], err = json.Marshal(e.CreatedAt); err != nil {
		return nil, err
	}
	if m["modificationDateTime"], err = json.Marshal(e.ModifiedAt); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func (e *Event) UnmarshalJSON(b []byte) error {
	var content EventContent
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
	e.ID = envelope.ID
	e.CreatedAt = envelope.CreatedAt
	e.ModifiedAt = envelope.ModifiedAt
	e.Content = content
	return nil
}

var ErrProgramIDRequired = errors.New("event: programID is required")

// ErrEmptyIntervals is returned by NewEventContent; intervals may be empty
// on the wire (a caller may read one back that was persisted with none), but
// a caller constructing one from scratch must supply at least one.
var ErrEmptyIntervals = errors.New("event: at least one interval is required")

// NewEventContent constructs an EventContent enforcing the non-empty
// intervals invariant for freshly authored events.
func NewEventContent(programID string, intervals []EventInterval) (EventContent, error) {
	if programID == "" {
		return EventContent{}, ErrProgramIDRequired
	}
	if len(intervals) == 0 {
		return EventContent{}, ErrEmptyIntervals
	}
	return EventContent{ProgramID: programID, Intervals: intervals, Priority: Unspecified}, nil
}

func (c EventContent) Validate() error {
	if c.ProgramID == "" {
		return ErrProgramIDRequired
	}
	return nil
}
