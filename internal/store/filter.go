package store

import "github.com/erauner12/openadr-vtn/internal/openadr/wire"

// Filter is the parsed form of the skip/limit/targetType/targetValues query
// parameters shared by every RetrieveAll endpoint.
type Filter struct {
	Skip        int
	Limit       int
	TargetType  *wire.TargetLabel
	TargetValues []string
}

const (
	defaultLimit = 50
	maxLimit     = 50
)

// NewFilter validates and normalizes raw query values into a Filter.
func NewFilter(skip, limit int, hasLimit bool, targetType *wire.TargetLabel, targetValues []string) (Filter, *Error) {
	if skip < 0 {
		return Filter{}, Validation("skip must be >= 0")
	}
	if !hasLimit {
		limit = defaultLimit
	}
	if limit < 1 || limit > maxLimit {
		return Filter{}, Validation("limit must be between 1 and 50")
	}
	if (targetType == nil) != (len(targetValues) == 0) {
		return Filter{}, Validation("targetType and targetValues must be supplied together")
	}
	return Filter{Skip: skip, Limit: limit, TargetType: targetType, TargetValues: targetValues}, nil
}
