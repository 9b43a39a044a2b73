package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/erauner12/openadr-vtn/internal/auth"
	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// VenStore is role-scoped CRUD for Ven over Postgres. A VenManager sees
// every VEN; a VEN(v) caller sees only its own record (§5.4.2).
type VenStore struct {
	DB *pgxpool.Pool
}

func NewVenStore(db *pgxpool.Pool) *VenStore { return &VenStore{DB: db} }

func (s *VenStore) Create(ctx context.Context, content wire.VenContent, caller auth.Claims) (wire.Ven, *Error) {
	if err := content.Validate(); err != nil {
		return wire.Ven{}, Validation(err.Error())
	}
	if !caller.IsVenManager() {
		return wire.Ven{}, Forbidden("creating a VEN requires VenManager")
	}
	targetsJSON, err := json.Marshal(content.Targets)
	if err != nil {
		return wire.Ven{}, Internal("marshal targets", err)
	}
	attrsJSON, err := json.Marshal(content.Attributes)
	if err != nil {
		return wire.Ven{}, Internal("marshal attributes", err)
	}

	id := uuid.NewString()
	var row venRow
	err = s.DB.QueryRow(ctx, `
		INSERT INTO ven (id, created_date_time, modification_date_time, ven_name, attributes, targets)
		VALUES ($1, now(), now(), $2, $3, $4)
		RETURNING id, created_date_time, modification_date_time, ven_name, attributes, targets
	`, id, content.VenName, jsonOrNil(attrsJSON), targetsJSON).Scan(
		&row.id, &row.createdAt, &row.modifiedAt, &row.venName, &row.attributes, &row.targets)
	if isUniqueViolation(err) {
		return wire.Ven{}, Conflict("a VEN with this venName already exists")
	}
	if err != nil {
		return wire.Ven{}, Internal("insert ven", err)
	}
	ven, storeErr := row.toVen()
	if storeErr != nil {
		return wire.Ven{}, storeErr
	}
	resources, storeErr := (&ResourceStore{DB: s.DB}).retrieveAllForVen(ctx, id)
	if storeErr != nil {
		return wire.Ven{}, storeErr
	}
	ven.Content.Resources = resources
	return ven, nil
}

func (s *VenStore) Retrieve(ctx context.Context, id string, caller auth.Claims) (wire.Ven, *Error) {
	row, storeErr := s.retrieveRow(ctx, id, caller)
	if storeErr != nil {
		return wire.Ven{}, storeErr
	}
	ven, storeErr := row.toVen()
	if storeErr != nil {
		return wire.Ven{}, storeErr
	}
	resources, storeErr := (&ResourceStore{DB: s.DB}).retrieveAllForVen(ctx, id)
	if storeErr != nil {
		return wire.Ven{}, storeErr
	}
	ven.Content.Resources = resources
	return ven, nil
}

func (s *VenStore) retrieveRow(ctx context.Context, id string, caller auth.Claims) (venRow, *Error) {
	venIDs := caller.VenIDs()
	canSeeAll := caller.IsVenManager()
	var row venRow
	err := s.DB.QueryRow(ctx, `
		SELECT id, created_date_time, modification_date_time, ven_name, attributes, targets
		FROM ven
		WHERE id = $1 AND ($2 OR id = ANY($3))
	`, id, canSeeAll, venIDs).Scan(
		&row.id, &row.createdAt, &row.modifiedAt, &row.venName, &row.attributes, &row.targets)
	if errors.Is(err, pgx.ErrNoRows) {
		return venRow{}, NotFound("ven not found")
	}
	if err != nil {
		return venRow{}, Internal("retrieve ven", err)
	}
	return row, nil
}

func (s *VenStore) RetrieveAll(ctx context.Context, venName string, filter Filter, caller auth.Claims) ([]wire.Ven, *Error) {
	venIDs := caller.VenIDs()
	canSeeAll := caller.IsVenManager()

	rows, err := s.DB.Query(ctx, `
		SELECT id, created_date_time, modification_date_time, ven_name, attributes, targets
		FROM ven
		WHERE ($1::text IS NULL OR ven_name = $1)
		  AND ($2 OR id = ANY($3))
		ORDER BY created_date_time
		OFFSET $4 LIMIT $5
	`, nullableString(venName), canSeeAll, venIDs, filter.Skip, filter.Limit)
	if err != nil {
		return nil, Internal("list vens", err)
	}
	defer rows.Close()

	var out []wire.Ven
	for rows.Next() {
		var row venRow
		if err := rows.Scan(&row.id, &row.createdAt, &row.modifiedAt, &row.venName, &row.attributes, &row.targets); err != nil {
			return nil, Internal("scan ven row", err)
		}
		ven, storeErr := row.toVen()
		if storeErr != nil {
			return nil, storeErr
		}
		out = append(out, ven)
	}
	if err := rows.Err(); err != nil {
		return nil, Internal("list vens", err)
	}
	return out, nil
}

func (s *VenStore) Update(ctx context.Context, id string, content wire.VenContent, caller auth.Claims) (wire.Ven, *Error) {
	if err := content.Validate(); err != nil {
		return wire.Ven{}, Validation(err.Error())
	}
	if _, storeErr := s.retrieveRow(ctx, id, caller); storeErr != nil {
		return wire.Ven{}, storeErr
	}
	targetsJSON, err := json.Marshal(content.Targets)
	if err != nil {
		return wire.Ven{}, Internal("marshal targets", err)
	}
	attrsJSON, err := json.Marshal(content.Attributes)
	if err != nil {
		return wire.Ven{}, Internal("marshal attributes", err)
	}

	var row venRow
	err = s.DB.QueryRow(ctx, `
		UPDATE ven SET modification_date_time = now(), ven_name = $2, attributes = $3, targets = $4
		WHERE id = $1
		RETURNING id, created_date_time, modification_date_time, ven_name, attributes, targets
	`, id, content.VenName, jsonOrNil(attrsJSON), targetsJSON).Scan(
		&row.id, &row.createdAt, &row.modifiedAt, &row.venName, &row.attributes, &row.targets)
	if errors.Is(err, pgx.ErrNoRows) {
		return wire.Ven{}, NotFound("ven not found")
	}
	if err != nil {
		return wire.Ven{}, Internal("update ven", err)
	}
	return row.toVen()
}

// Delete removes a VEN, refusing if any resource still references it (§5.4,
// "Ven delete is forbidden if any resource references the ven").
func (s *VenStore) Delete(ctx context.Context, id string, caller auth.Claims) (wire.Ven, *Error) {
	if !caller.IsVenManager() {
		return wire.Ven{}, Forbidden("deleting a VEN requires VenManager")
	}
	if _, storeErr := s.retrieveRow(ctx, id, caller); storeErr != nil {
		return wire.Ven{}, storeErr
	}
	var resourceCount int
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM resource WHERE ven_id = $1`, id).Scan(&resourceCount); err != nil {
		return wire.Ven{}, Internal("count ven resources", err)
	}
	if resourceCount > 0 {
		return wire.Ven{}, Forbidden("cannot delete a VEN that still has resources")
	}
	var row venRow
	err := s.DB.QueryRow(ctx, `
		DELETE FROM ven WHERE id = $1
		RETURNING id, created_date_time, modification_date_time, ven_name, attributes, targets
	`, id).Scan(&row.id, &row.createdAt, &row.modifiedAt, &row.venName, &row.attributes, &row.targets)
	if errors.Is(err, pgx.ErrNoRows) {
		return wire.Ven{}, NotFound("ven not found")
	}
	if err != nil {
		return wire.Ven{}, Internal("delete ven", err)
	}
	return row.toVen()
}

type venRow struct {
	id         string
	createdAt  time.Time
	modifiedAt time.Time
	venName    string
	attributes []byte
	targets    []byte
}

func (r venRow) toVen() (wire.Ven, *Error) {
	content := wire.VenContent{VenName: r.venName}
	if len(r.attributes) > 0 {
		if err := json.Unmarshal(r.attributes, &content.Attributes); err != nil {
			log.Error().Err(err).Str("ven_id", r.id).Msg("failed to decode attributes from db")
			return wire.Ven{}, Internal("decode attributes", err)
		}
	}
	if len(r.targets) > 0 {
		if err := json.Unmarshal(r.targets, &content.Targets); err != nil {
			log.Error().Err(err).Str("ven_id", r.id).Msg("failed to decode targets from db")
			return wire.Ven{}, Internal("decode targets", err)
		}
	}
	return wire.Ven{ID: r.id, CreatedAt: r.createdAt, ModifiedAt: r.modifiedAt, Content: content}, nil
}
