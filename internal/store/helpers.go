package store

import (
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// jsonOrNil marshals v for storage in a jsonb column, or returns nil (SQL
// NULL) for a nil pointer/empty slice so optional fields round-trip as
// NULL rather than the literal "null".
func jsonOrNil(v any) []byte {
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		if len(t) == 0 {
			return nil
		}
		return t
	}
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return nil
	}
	return b
}

// nullIfEmpty turns an empty slice into nil so a `= ANY($1)` parameter binds
// SQL NULL (and the "$1::text[] IS NULL OR ..." guard short-circuits)
// instead of an empty array, which would instead match zero rows.
func nullIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

// isUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505), the signal a Create handler maps to Conflict.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
