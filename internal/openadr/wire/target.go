package wire

// TargetLabel tags a TargetEntry. The named constants cover the labels with
// storage-level semantics (§5.4.1); any other string is an application
// specific private label and round-trips as itself, the idiomatic Go
// rendition of the wire format's untagged-fallback enum.
type TargetLabel string

const (
	TargetPowerServiceLocation TargetLabel = "POWER_SERVICE_LOCATION"
	TargetServiceArea          TargetLabel = "SERVICE_AREA"
	TargetGroup                TargetLabel = "GROUP"
	TargetResourceName         TargetLabel = "RESOURCE_NAME"
	TargetVENName              TargetLabel = "VEN_NAME"
	TargetEventName            TargetLabel = "EVENT_NAME"
	TargetProgramName          TargetLabel = "PROGRAM_NAME"
)

// TargetEntry is a (label, values) filter/routing tag attached to a Program
// or Event. An entry carries one or more values for its label.
type TargetEntry struct {
	Label  TargetLabel `json:"type"`
	Values []string    `json:"values"`
}

// TargetMap is the targets list carried on Program/Event/Ven/Resource content.
type TargetMap []TargetEntry
