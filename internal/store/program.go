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

// ProgramStore is role-scoped CRUD for Program over Postgres.
type ProgramStore struct {
	DB *pgxpool.Pool
}

func NewProgramStore(db *pgxpool.Pool) *ProgramStore { return &ProgramStore{DB: db} }

// Create inserts a new program, resolving the caller's sole owning business
// id (or nil for AnyBusiness), and linking any VEN_NAME targets via the
// ven_program join table inside one transaction — a dangling VEN name rolls
// the whole insert back and is reported as Conflict (§5.4.5).
func (s *ProgramStore) Create(ctx context.Context, content wire.ProgramContent, caller auth.Claims) (wire.Program, *Error) {
	if err := content.Validate(); err != nil {
		return wire.Program{}, Validation(err.Error())
	}
	businessID, ok := caller.ResolveCreateBusinessID()
	if !ok {
		return wire.Program{}, BadRequest("caller must hold exactly one business role, or AnyBusiness")
	}
	content.BusinessID = businessID

	venNames, rest := content.VENTargets()
	content.Targets = rest
	targetsJSON, err := json.Marshal(content.Targets)
	if err != nil {
		return wire.Program{}, Internal("marshal targets", err)
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return wire.Program{}, Internal("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := uuid.NewString()
	var row programRow
	err = tx.QueryRow(ctx, `
		INSERT INTO program (id, created_date_time, modification_date_time, program_name,
		                      program_long_name, retailer_name, program_type, country,
		                      principal_subdivision, time_zone_offset, interval_period,
		                      payload_descriptors, targets, business_id)
		VALUES ($1, now(), now(), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_date_time, modification_date_time, program_name,
		          program_long_name, retailer_name, program_type, country,
		          principal_subdivision, time_zone_offset, interval_period,
		          payload_descriptors, targets, business_id
	`, id, content.ProgramName, content.ProgramLongName, content.RetailerName,
		content.ProgramType, content.Country, content.PrincipalSubdivision,
		content.TimeZoneOffset, jsonOrNil(content.IntervalPeriod), jsonOrNil(content.PayloadDescriptors),
		targetsJSON, content.BusinessID,
	).Scan(&row.id, &row.createdAt, &row.modifiedAt, &row.programName, &row.programLongName,
		&row.retailerName, &row.programType, &row.country, &row.principalSubdivision,
		&row.timeZoneOffset, &row.intervalPeriod, &row.payloadDescriptors, &row.targets, &row.businessID)
	if isUniqueViolation(err) {
		return wire.Program{}, Conflict("a program with this programName already exists")
	}
	if err != nil {
		return wire.Program{}, Internal("insert program", err)
	}

	if len(venNames) > 0 {
		tag, err := tx.Exec(ctx, `
			INSERT INTO ven_program (program_id, ven_id)
			SELECT $1, id FROM ven WHERE ven_name = ANY($2)
		`, id, venNames)
		if err != nil {
			return wire.Program{}, Internal("link ven targets", err)
		}
		if int(tag.RowsAffected()) != len(venNames) {
			return wire.Program{}, Conflict("one or more VEN names referenced in targets do not exist")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return wire.Program{}, Internal("commit transaction", err)
	}
	return row.toProgram()
}

// Retrieve fetches one program by id, applying the same business-or-VEN
// visibility as RetrieveAll.
func (s *ProgramStore) Retrieve(ctx context.Context, id string, caller auth.Claims) (wire.Program, *Error) {
	row, storeErr := s.retrieveRow(ctx, id, caller)
	if storeErr != nil {
		return wire.Program{}, storeErr
	}
	return row.toProgram()
}

func (s *ProgramStore) retrieveRow(ctx context.Context, id string, caller auth.Claims) (programRow, *Error) {
	businessIDs := caller.BusinessIDs()
	venIDs := caller.VenIDs()
	hasBusiness := businessIDs.Any || len(businessIDs.IDs) > 0
	hasVen := len(venIDs) > 0
	var row programRow
	err := s.DB.QueryRow(ctx, `
		SELECT p.id, p.created_date_time, p.modification_date_time, p.program_name,
		       p.program_long_name, p.retailer_name, p.program_type, p.country,
		       p.principal_subdivision, p.time_zone_offset, p.interval_period,
		       p.payload_descriptors, p.targets, p.business_id
		FROM program p
		LEFT JOIN ven_program vp ON p.id = vp.program_id
		WHERE p.id = $1
		  AND (
		        ($2 AND ($3 OR p.business_id IS NULL OR p.business_id = ANY($4)))
		        OR
		        ($5 AND (vp.ven_id IS NULL OR vp.ven_id = ANY($6)))
		      )
	`, id, hasBusiness, businessIDs.Any, businessIDs.IDs, hasVen, venIDs).Scan(&row.id, &row.createdAt, &row.modifiedAt, &row.programName,
		&row.programLongName, &row.retailerName, &row.programType, &row.country,
		&row.principalSubdivision, &row.timeZoneOffset, &row.intervalPeriod, &row.payloadDescriptors,
		&row.targets, &row.businessID)
	if errors.Is(err, pgx.ErrNoRows) {
		return programRow{}, NotFound("program not found")
	}
	if err != nil {
		return programRow{}, Internal("retrieve program", err)
	}
	return row, nil
}

// RetrieveAll lists programs visible to caller, honoring the filter grammar
// and visibility rules of §5.4.1/§5.4.2.
func (s *ProgramStore) RetrieveAll(ctx context.Context, filter Filter, caller auth.Claims) ([]wire.Program, *Error) {
	businessIDs := caller.BusinessIDs()
	venIDs := caller.VenIDs()

	var programNames, eventNames, venNames []string
	var targetsJSON []byte
	if filter.TargetType != nil {
		switch *filter.TargetType {
		case wire.TargetProgramName:
			programNames = filter.TargetValues
		case wire.TargetEventName:
			eventNames = filter.TargetValues
		case wire.TargetVENName:
			venNames = filter.TargetValues
		default:
			entries := make(wire.TargetMap, 0, len(filter.TargetValues))
			for _, v := range filter.TargetValues {
				entries = append(entries, wire.TargetEntry{Label: *filter.TargetType, Values: []string{v}})
			}
			b, err := json.Marshal(entries)
			if err != nil {
				return nil, Internal("marshal target filter", err)
			}
			targetsJSON = b
		}
	}

	hasBusiness := businessIDs.Any || len(businessIDs.IDs) > 0
	hasVen := len(venIDs) > 0

	// Visibility is business-visible OR ven-visible (§5.4.2); a caller with
	// neither kind of role sees nothing, matching the UserManager/VenManager
	// "only" rows of the visibility table.
	rows, err := s.DB.Query(ctx, `
		SELECT DISTINCT p.id, p.created_date_time, p.modification_date_time, p.program_name,
		       p.program_long_name, p.retailer_name, p.program_type, p.country,
		       p.principal_subdivision, p.time_zone_offset, p.interval_period,
		       p.payload_descriptors, p.targets, p.business_id
		FROM program p
		LEFT JOIN event e ON p.id = e.program_id
		LEFT JOIN ven_program vp ON p.id = vp.program_id
		LEFT JOIN ven v ON v.id = vp.ven_id
		WHERE ($1::text[] IS NULL OR e.event_name = ANY($1))
		  AND ($2::text[] IS NULL OR p.program_name = ANY($2))
		  AND ($3::text[] IS NULL OR v.ven_name = ANY($3))
		  AND ($4::jsonb IS NULL OR p.targets @> $4)
		  AND (
		        ($5 AND ($6 OR p.business_id IS NULL OR p.business_id = ANY($7)))
		        OR
		        ($8 AND (vp.ven_id IS NULL OR vp.ven_id = ANY($9)))
		      )
		ORDER BY p.created_date_time
		OFFSET $10 LIMIT $11
	`, nullIfEmpty(eventNames), nullIfEmpty(programNames), nullIfEmpty(venNames), targetsJSON,
		hasBusiness, businessIDs.Any, businessIDs.IDs,
		hasVen, venIDs,
		filter.Skip, filter.Limit)
	if err != nil {
		return nil, Internal("list programs", err)
	}
	defer rows.Close()

	var out []wire.Program
	for rows.Next() {
		var row programRow
		if err := rows.Scan(&row.id, &row.createdAt, &row.modifiedAt, &row.programName,
			&row.programLongName, &row.retailerName, &row.programType, &row.country,
			&row.principalSubdivision, &row.timeZoneOffset, &row.intervalPeriod,
			&row.payloadDescriptors, &row.targets, &row.businessID); err != nil {
			return nil, Internal("scan program row", err)
		}
		p, storeErr := row.toProgram()
		if storeErr != nil {
			return nil, storeErr
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, Internal("list programs", err)
	}
	return out, nil
}

// Update overwrites a program's content. Unlike Create, a dangling VEN name
// here is a BadRequest rather than a Conflict — the asymmetry is intentional,
// see DESIGN.md.
func (s *ProgramStore) Update(ctx context.Context, id string, content wire.ProgramContent, caller auth.Claims) (wire.Program, *Error) {
	if err := content.Validate(); err != nil {
		return wire.Program{}, Validation(err.Error())
	}
	if _, storeErr := s.retrieveRow(ctx, id, caller); storeErr != nil {
		return wire.Program{}, storeErr
	}

	venNames, rest := content.VENTargets()
	content.Targets = rest
	targetsJSON, err := json.Marshal(content.Targets)
	if err != nil {
		return wire.Program{}, Internal("marshal targets", err)
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return wire.Program{}, Internal("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var row programRow
	err = tx.QueryRow(ctx, `
		UPDATE program SET modification_date_time = now(), program_name = $2,
		       program_long_name = $3, retailer_name = $4, program_type = $5, country = $6,
		       principal_subdivision = $7, time_zone_offset = $8, interval_period = $9,
		       payload_descriptors = $10, targets = $11
		WHERE id = $1
		RETURNING id, created_date_time, modification_date_time, program_name,
		          program_long_name, retailer_name, program_type, country,
		          principal_subdivision, time_zone_offset, interval_period,
		          payload_descriptors, targets, business_id
	`, id, content.ProgramName, content.ProgramLongName, content.RetailerName, content.ProgramType,
		content.Country, content.PrincipalSubdivision, content.TimeZoneOffset,
		jsonOrNil(content.IntervalPeriod), jsonOrNil(content.PayloadDescriptors), targetsJSON,
	).Scan(&row.id, &row.createdAt, &row.modifiedAt, &row.programName, &row.programLongName,
		&row.retailerName, &row.programType, &row.country, &row.principalSubdivision,
		&row.timeZoneOffset, &row.intervalPeriod, &row.payloadDescriptors, &row.targets, &row.businessID)
	if errors.Is(err, pgx.ErrNoRows) {
		return wire.Program{}, NotFound("program not found")
	}
	if err != nil {
		return wire.Program{}, Internal("update program", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM ven_program WHERE program_id = $1`, id); err != nil {
		return wire.Program{}, Internal("clear ven links", err)
	}
	if len(venNames) > 0 {
		tag, err := tx.Exec(ctx, `
			INSERT INTO ven_program (program_id, ven_id)
			SELECT $1, id FROM ven WHERE ven_name = ANY($2)
		`, id, venNames)
		if err != nil {
			return wire.Program{}, Internal("link ven targets", err)
		}
		if int(tag.RowsAffected()) != len(venNames) {
			return wire.Program{}, BadRequest("one or more VEN names referenced in targets do not exist")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return wire.Program{}, Internal("commit transaction", err)
	}
	return row.toProgram()
}

// Delete removes a program by id, returning the row as it existed just
// before deletion.
func (s *ProgramStore) Delete(ctx context.Context, id string, caller auth.Claims) (wire.Program, *Error) {
	if _, storeErr := s.retrieveRow(ctx, id, caller); storeErr != nil {
		return wire.Program{}, storeErr
	}
	var row programRow
	err := s.DB.QueryRow(ctx, `
		DELETE FROM program WHERE id = $1
		RETURNING id, created_date_time, modification_date_time, program_name,
		          program_long_name, retailer_name, program_type, country,
		          principal_subdivision, time_zone_offset, interval_period,
		          payload_descriptors, targets, business_id
	`, id).Scan(&row.id, &row.createdAt, &row.modifiedAt, &row.programName, &row.programLongName,
		&row.retailerName, &row.programType, &row.country, &row.principalSubdivision,
		&row.timeZoneOffset, &row.intervalPeriod, &row.payloadDescriptors, &row.targets, &row.businessID)
	if errors.Is(err, pgx.ErrNoRows) {
		return wire.Program{}, NotFound("program not found")
	}
	if err != nil {
		return wire.Program{}, Internal("delete program", err)
	}
	return row.toProgram()
}

type programRow struct {
	id                   string
	createdAt            time.Time
	modifiedAt           time.Time
	programName          string
	programLongName      *string
	retailerName         *string
	programType          *string
	country              *string
	principalSubdivision *string
	timeZoneOffset       *string
	intervalPeriod       []byte
	payloadDescriptors   []byte
	targets              []byte
	businessID           *string
}

func (r programRow) toProgram() (wire.Program, *Error) {
	content := wire.ProgramContent{
		ProgramName: r.programName,
		BusinessID:  r.businessID,
	}
	if r.programLongName != nil {
		content.ProgramLongName = *r.programLongName
	}
	if r.retailerName != nil {
		content.RetailerName = *r.retailerName
	}
	if r.programType != nil {
		content.ProgramType = *r.programType
	}
	if r.country != nil {
		content.Country = *r.country
	}
	if r.principalSubdivision != nil {
		content.PrincipalSubdivision = *r.principalSubdivision
	}
	if r.timeZoneOffset != nil {
		content.TimeZoneOffset = *r.timeZoneOffset
	}
	if len(r.intervalPeriod) > 0 {
		var ip wire.IntervalPeriod
		if err := json.Unmarshal(r.intervalPeriod, &ip); err != nil {
			log.Error().Err(err).Str("program_id", r.id).Msg("failed to decode interval_period from db")
			return wire.Program{}, Internal("decode interval_period", err)
		}
		content.IntervalPeriod = &ip
	}
	if len(r.payloadDescriptors) > 0 {
		if err := json.Unmarshal(r.payloadDescriptors, &content.PayloadDescriptors); err != nil {
			log.Error().Err(err).Str("program_id", r.id).Msg("failed to decode payload_descriptors from db")
			return wire.Program{}, Internal("decode payload_descriptors", err)
		}
	}
	if len(r.targets) > 0 {
		if err := json.Unmarshal(r.targets, &content.Targets); err != nil {
			log.Error().Err(err).Str("program_id", r.id).Msg("failed to decode targets from db")
			return wire.Program{}, Internal("decode targets", err)
		}
	}
	return wire.Program{
		ID:         r.id,
		CreatedAt:  r.createdAt,
		ModifiedAt: r.modifiedAt,
		Content:    content,
	}, nil
}
