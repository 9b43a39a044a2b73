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

// ResourceStore is role-scoped CRUD for Resource over Postgres. A resource
// is owned by exactly one VEN and inherits that VEN's visibility.
type ResourceStore struct {
	DB *pgxpool.Pool
}

func NewResourceStore(db *pgxpool.Pool) *ResourceStore { return &ResourceStore{DB: db} }

func (s *ResourceStore) canAccessVen(caller auth.Claims, venID string) bool {
	return caller.IsVenManager() || caller.HasVen(venID)
}

func (s *ResourceStore) Create(ctx context.Context, venID string, content wire.ResourceContent, caller auth.Claims) (wire.Resource, *Error) {
	if err := content.Validate(); err != nil {
		return wire.Resource{}, Validation(err.Error())
	}
	if !s.canAccessVen(caller, venID) {
		return wire.Resource{}, Forbidden("caller cannot manage resources for this VEN")
	}
	targetsJSON, err := json.Marshal(content.Targets)
	if err != nil {
		return wire.Resource{}, Internal("marshal targets", err)
	}
	attrsJSON, err := json.Marshal(content.Attributes)
	if err != nil {
		return wire.Resource{}, Internal("marshal attributes", err)
	}

	id := uuid.NewString()
	var row resourceRow
	err = s.DB.QueryRow(ctx, `
		INSERT INTO resource (id, ven_id, created_date_time, modification_date_time, resource_name,
		                       attributes, targets)
		VALUES ($1, $2, now(), now(), $3, $4, $5)
		RETURNING id, ven_id, created_date_time, modification_date_time, resource_name, attributes, targets
	`, id, venID, content.ResourceName, jsonOrNil(attrsJSON), targetsJSON).Scan(
		&row.id, &row.venID, &row.createdAt, &row.modifiedAt, &row.resourceName, &row.attributes, &row.targets)
	if isUniqueViolation(err) {
		return wire.Resource{}, Conflict("a resource with this resourceName already exists for this VEN")
	}
	if err != nil {
		return wire.Resource{}, Internal("insert resource", err)
	}
	return row.toResource()
}

func (s *ResourceStore) Retrieve(ctx context.Context, venID, id string, caller auth.Claims) (wire.Resource, *Error) {
	if !s.canAccessVen(caller, venID) {
		return wire.Resource{}, NotFound("resource not found")
	}
	row, storeErr := s.retrieveRow(ctx, venID, id)
	if storeErr != nil {
		return wire.Resource{}, storeErr
	}
	return row.toResource()
}

func (s *ResourceStore) retrieveRow(ctx context.Context, venID, id string) (resourceRow, *Error) {
	var row resourceRow
	err := s.DB.QueryRow(ctx, `
		SELECT id, ven_id, created_date_time, modification_date_time, resource_name, attributes, targets
		FROM resource WHERE id = $1 AND ven_id = $2
	`, id, venID).Scan(
		&row.id, &row.venID, &row.createdAt, &row.modifiedAt, &row.resourceName, &row.attributes, &row.targets)
	if errors.Is(err, pgx.ErrNoRows) {
		return resourceRow{}, NotFound("resource not found")
	}
	if err != nil {
		return resourceRow{}, Internal("retrieve resource", err)
	}
	return row, nil
}

func (s *ResourceStore) RetrieveAll(ctx context.Context, venID string, filter Filter, caller auth.Claims) ([]wire.Resource, *Error) {
	if !s.canAccessVen(caller, venID) {
		return nil, Forbidden("caller cannot view resources for this VEN")
	}
	rows, err := s.DB.Query(ctx, `
		SELECT id, ven_id, created_date_time, modification_date_time, resource_name, attributes, targets
		FROM resource WHERE ven_id = $1
		ORDER BY created_date_time
		OFFSET $2 LIMIT $3
	`, venID, filter.Skip, filter.Limit)
	if err != nil {
		return nil, Internal("list resources", err)
	}
	defer rows.Close()

	var out []wire.Resource
	for rows.Next() {
		var row resourceRow
		if err := rows.Scan(&row.id, &row.venID, &row.createdAt, &row.modifiedAt, &row.resourceName,
			&row.attributes, &row.targets); err != nil {
			return nil, Internal("scan resource row", err)
		}
		res, storeErr := row.toResource()
		if storeErr != nil {
			return nil, storeErr
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, Internal("list resources", err)
	}
	return out, nil
}

// retrieveAllForVen is used internally by VenStore to embed a VEN's
// resources in its Content on read, without a role check of its own (the
// caller has already been checked at the VEN level).
func (s *ResourceStore) retrieveAllForVen(ctx context.Context, venID string) ([]wire.Resource, *Error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, ven_id, created_date_time, modification_date_time, resource_name, attributes, targets
		FROM resource WHERE ven_id = $1
		ORDER BY created_date_time
	`, venID)
	if err != nil {
		return nil, Internal("list resources for ven", err)
	}
	defer rows.Close()

	var out []wire.Resource
	for rows.Next() {
		var row resourceRow
		if err := rows.Scan(&row.id, &row.venID, &row.createdAt, &row.modifiedAt, &row.resourceName,
			&row.attributes, &row.targets); err != nil {
			return nil, Internal("scan resource row", err)
		}
		res, storeErr := row.toResource()
		if storeErr != nil {
			return nil, storeErr
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, Internal("list resources for ven", err)
	}
	return out, nil
}

func (s *ResourceStore) Update(ctx context.Context, venID, id string, content wire.ResourceContent, caller auth.Claims) (wire.Resource, *Error) {
	if err := content.Validate(); err != nil {
		return wire.Resource{}, Validation(err.Error())
	}
	if !s.canAccessVen(caller, venID) {
		return wire.Resource{}, NotFound("resource not found")
	}
	if _, storeErr := s.retrieveRow(ctx, venID, id); storeErr != nil {
		return wire.Resource{}, storeErr
	}
	targetsJSON, err := json.Marshal(content.Targets)
	if err != nil {
		return wire.Resource{}, Internal("marshal targets", err)
	}
	attrsJSON, err := json.Marshal(content.Attributes)
	if err != nil {
		return wire.Resource{}, Internal("marshal attributes", err)
	}

	var row resourceRow
	err = s.DB.QueryRow(ctx, `
		UPDATE resource SET modification_date_time = now(), resource_name = $3, attributes = $4, targets = $5
		WHERE id = $1 AND ven_id = $2
		RETURNING id, ven_id, created_date_time, modification_date_time, resource_name, attributes, targets
	`, id, venID, content.ResourceName, jsonOrNil(attrsJSON), targetsJSON).Scan(
		&row.id, &row.venID, &row.createdAt, &row.modifiedAt, &row.resourceName, &row.attributes, &row.targets)
	if errors.Is(err, pgx.ErrNoRows) {
		return wire.Resource{}, NotFound("resource not found")
	}
	if err != nil {
		return wire.Resource{}, Internal("update resource", err)
	}
	return row.toResource()
}

func (s *ResourceStore) Delete(ctx context.Context, venID, id string, caller auth.Claims) (wire.Resource, *Error) {
	if !s.canAccessVen(caller, venID) {
		return wire.Resource{}, NotFound("resource not found")
	}
	if _, storeErr := s.retrieveRow(ctx, venID, id); storeErr != nil {
		return wire.Resource{}, storeErr
	}
	var row resourceRow
	err := s.DB.QueryRow(ctx, `
		DELETE FROM resource WHERE id = $1 AND ven_id = $2
		RETURNING id, ven_id, created_date_time, modification_date_time, resource_name, attributes, targets
	`, id, venID).Scan(&row.id, &row.venID, &row.createdAt, &row.modifiedAt, &row.resourceName,
		&row.attributes, &row.targets)
	if errors.Is(err, pgx.ErrNoRows) {
		return wire.Resource{}, NotFound("resource not found")
	}
	if err != nil {
		return wire.Resource{}, Internal("delete resource", err)
	}
	return row.toResource()
}

type resourceRow struct {
	id           string
	venID        string
	createdAt    time.Time
	modifiedAt   time.Time
	resourceName string
	attributes   []byte
	targets      []byte
}

func (r resourceRow) toResource() (wire.Resource, *Error) {
	content := wire.ResourceContent{ResourceName: r.resourceName}
	if len(r.attributes) > 0 {
		if err := json.Unmarshal(r.attributes, &content.Attributes); err != nil {
			log.Error().Err(err).Str("resource_id", r.id).Msg("failed to decode attributes from db")
			return wire.Resource{}, Internal("decode attributes", err)
		}
	}
	if len(r.targets) > 0 {
		if err := json.Unmarshal(r.targets, &content.Targets); err != nil {
			log.Error().Err(err).Str("resource_id", r.id).Msg("failed to decode targets from db")
			return wire.Resource{}, Internal("decode targets", err)
		}
	}
	return wire.Resource{ID: r.id, VenID: r.venID, CreatedAt: r.createdAt, ModifiedAt: r.modifiedAt, Content: content}, nil
}
