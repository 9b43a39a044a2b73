package wire

// EventType tags an EventValuesMap. The named constants are the ones this
// system's update loop and storage layer care about; any other string is an
// application-specific private event type and round-trips as itself.
type EventType string

const (
	EventTypeSimple               EventType = "SIMPLE"
	EventTypePrice                EventType = "PRICE"
	EventTypeChargeStateSetpoint  EventType = "CHARGE_STATE_SETPOINT"
	EventTypeDispatchSetpoint     EventType = "DISPATCH_SETPOINT"
	EventTypeImportCapacityLimit  EventType = "IMPORT_CAPACITY_LIMIT"
	EventTypeExportCapacityLimit  EventType = "EXPORT_CAPACITY_LIMIT"
	EventTypeAlertGridEmergency   EventType = "ALERT_GRID_EMERGENCY"
)

// Value is a single heterogeneous payload value: integer, number, boolean,
// point, or string. The wire format allows any JSON scalar here, so Value is
// carried as `any` rather than a closed sum type — the same approach the
// teacher's own wire types (internal/service/syncservice/rest_types.go) take
// for heterogeneous JSON payloads.
type Value = any

// EventValuesMap is one labeled set of values inside an EventInterval.
type EventValuesMap struct {
	ValueType EventType `json:"valueType"`
	Values    []Value   `json:"values"`
}

// PayloadDescriptor describes the shape of a payload type an Event/Program
// declares it may carry; treated as an opaque bag of fields beyond the type
// tag, per the distilled spec's "opaque record" stance on descriptors.
type PayloadDescriptor struct {
	PayloadType string `json:"payloadType"`
	Units       string `json:"units,omitempty"`
}

// ReportDescriptor is the Event-side analog of PayloadDescriptor describing
// what a VEN is asked to report back.
type ReportDescriptor struct {
	PayloadType  string   `json:"payloadType"`
	ReadingType  string   `json:"readingType,omitempty"`
	Units        string   `json:"units,omitempty"`
	TargetLabel  string   `json:"targetType,omitempty"`
	TargetValues []string `json:"targetValues,omitempty"`
}
