package httpapi

import (
	"net/http"
	"strconv"

	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
	"github.com/erauner12/openadr-vtn/internal/store"
)

// parseFilter reads the skip/limit/targetType/targetValues query parameters
// shared by every list endpoint (§6).
func parseFilter(r *http.Request) (store.Filter, *store.Error) {
	q := r.URL.Query()

	skip := 0
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return store.Filter{}, store.Validation("skip must be an integer")
		}
		skip = n
	}

	hasLimit := q.Has("limit")
	limit := 0
	if hasLimit {
		n, err := strconv.Atoi(q.Get("limit"))
		if err != nil {
			return store.Filter{}, store.Validation("limit must be an integer")
		}
		limit = n
	}

	var targetType *wire.TargetLabel
	if v := q.Get("targetType"); v != "" {
		t := wire.TargetLabel(v)
		targetType = &t
	}
	targetValues := q["targetValues"]

	return store.NewFilter(skip, limit, hasLimit, targetType, targetValues)
}
