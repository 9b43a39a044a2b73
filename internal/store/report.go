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

// ReportStore is role-scoped CRUD for Report over Postgres. Visibility
// follows the report's program exactly as an event's does (§5.4.2).
//
// Delete on this store still requires BusinessUser per §9's open-question
// log — the original implementation never widened report deletion to
// VenManager/VEN the way create/retrieve were, and that discrepancy is kept
// rather than silently "fixed".
type ReportStore struct {
	DB *pgxpool.Pool
}

func NewReportStore(db *pgxpool.Pool) *ReportStore { return &ReportStore{DB: db} }

func (s *ReportStore) Create(ctx context.Context, content wire.ReportContent, caller auth.Claims) (wire.Report, *Error) {
	if err := content.Validate(); err != nil {
		return wire.Report{}, Validation(err.Error())
	}
	if _, storeErr := (&ProgramStore{DB: s.DB}).retrieveRow(ctx, content.ProgramID, caller); storeErr != nil {
		if storeErr.Kind == KindNotFound {
			return wire.Report{}, BadRequest("programID does not reference a visible program")
		}
		return wire.Report{}, storeErr
	}

	var eventProgramID string
	err := s.DB.QueryRow(ctx, `SELECT program_id FROM event WHERE id = $1`, content.EventID).Scan(&eventProgramID)
	if errors.Is(err, pgx.ErrNoRows) {
		return wire.Report{}, BadRequest("eventID does not reference an existing event")
	}
	if err != nil {
		return wire.Report{}, Internal("look up event program_id", err)
	}
	if eventProgramID != content.ProgramID {
		return wire.Report{}, BadRequest("eventID and programID must point to the same program")
	}

	resourcesJSON, err := json.Marshal(content.Resources)
	if err != nil {
		return wire.Report{}, Internal("marshal resources", err)
	}

	id := uuid.NewString()
	var row reportRow
	err = s.DB.QueryRow(ctx, `
		INSERT INTO report (id, created_date_time, modification_date_time, program_id, event_id,
		                     client_name, report_name, payload_descriptors, resources)
		VALUES ($1, now(), now(), $2, $3, $4, $5, $6, $7)
		RETURNING id, created_date_time, modification_date_time, program_id, event_id, client_name,
		          report_name, payload_descriptors, resources
	`, id, content.ProgramID, content.EventID, content.ClientName, content.ReportName,
		jsonOrNil(content.PayloadDescriptors), resourcesJSON,
	).Scan(&row.id, &row.createdAt, &row.modifiedAt, &row.programID, &row.eventID, &row.clientName,
		&row.reportName, &row.payloadDescriptors, &row.resources)
	if err != nil {
		return wire.Report{}, Internal("insert report", err)
	}
	return row.toReport()
}

func (s *ReportStore) Retrieve(ctx context.Context, id string, caller auth.Claims) (wire.Report, *Error) {
	row, storeErr := s.retrieveRow(ctx, id, caller)
	if storeErr != nil {
		return wire.Report{}, storeErr
	}
	return row.toReport()
}

func (s *ReportStore) retrieveRow(ctx context.Context, id string, caller auth.Claims) (reportRow, *Error) {
	businessIDs := caller.BusinessIDs()
	venIDs := caller.VenIDs()
	hasBusiness := businessIDs.Any || len(businessIDs.IDs) > 0
	hasVen := len(venIDs) > 0

	var row reportRow
	err := s.DB.QueryRow(ctx, `
		SELECT r.id, r.created_date_time, r.modification_date_time, r.program_id, r.event_id,
		       r.client_name, r.report_name, r.payload_descriptors, r.resources
		FROM report r
		JOIN program p ON p.id = r.program_id
		LEFT JOIN ven_program vp ON p.id = vp.program_id
		WHERE r.id = $1
		  AND (
		        ($2 AND ($3 OR p.business_id IS NULL OR p.business_id = ANY($4)))
		        OR
		        ($5 AND (vp.ven_id IS NULL OR vp.ven_id = ANY($6)))
		      )
	`, id, hasBusiness, businessIDs.Any, businessIDs.IDs, hasVen, venIDs).Scan(
		&row.id, &row.createdAt, &row.modifiedAt, &row.programID, &row.eventID, &row.clientName,
		&row.reportName, &row.payloadDescriptors, &row.resources)
	if errors.Is(err, pgx.ErrNoRows) {
		return reportRow{}, NotFound("report not found")
	}
	if err != nil {
		return reportRow{}, Internal("retrieve report", err)
	}
	return row, nil
}

func (s *ReportStore) RetrieveAll(ctx context.Context, programID, eventID, clientName string, filter Filter, caller auth.Claims) ([]wire.Report, *Error) {
	businessIDs := caller.BusinessIDs()
	venIDs := caller.VenIDs()
	hasBusiness := businessIDs.Any || len(businessIDs.IDs) > 0
	hasVen := len(venIDs) > 0

	rows, err := s.DB.Query(ctx, `
		SELECT r.id, r.created_date_time, r.modification_date_time, r.program_id, r.event_id,
		       r.client_name, r.report_name, r.payload_descriptors, r.resources
		FROM report r
		JOIN program p ON p.id = r.program_id
		LEFT JOIN ven_program vp ON p.id = vp.program_id
		WHERE ($1::text IS NULL OR r.program_id = $1)
		  AND ($2::text IS NULL OR r.event_id = $2)
		  AND ($3::text IS NULL OR r.client_name = $3)
		  AND (
		        ($4 AND ($5 OR p.business_id IS NULL OR p.business_id = ANY($6)))
		        OR
		        ($7 AND (vp.ven_id IS NULL OR vp.ven_id = ANY($8)))
		      )
		ORDER BY r.created_date_time
		OFFSET $9 LIMIT $10
	`, nullableString(programID), nullableString(eventID), nullableString(clientName),
		hasBusiness, businessIDs.Any, businessIDs.IDs, hasVen, venIDs, filter.Skip, filter.Limit)
	if err != nil {
		return nil, Internal("list reports", err)
	}
	defer rows.Close()

	var out []wire.Report
	for rows.Next() {
		var row reportRow
		if err := rows.Scan(&row.id, &row.createdAt, &row.modifiedAt, &row.programID, &row.eventID,
			&row.clientName, &row.reportName, &row.payloadDescriptors, &row.resources); err != nil {
			return nil, Internal("scan report row", err)
		}
		rep, storeErr := row.toReport()
		if storeErr != nil {
			return nil, storeErr
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, Internal("list reports", err)
	}
	return out, nil
}

func (s *ReportStore) Update(ctx context.Context, id string, content wire.ReportContent, caller auth.Claims) (wire.Report, *Error) {
	if err := content.Validate(); err != nil {
		return wire.Report{}, Validation(err.Error())
	}
	if _, storeErr := s.retrieveRow(ctx, id, caller); storeErr != nil {
		return wire.Report{}, storeErr
	}
	resourcesJSON, err := json.Marshal(content.Resources)
	if err != nil {
		return wire.Report{}, Internal("marshal resources", err)
	}

	var row reportRow
	err = s.DB.QueryRow(ctx, `
		UPDATE report SET modification_date_time = now(), client_name = $2, report_name = $3,
		       payload_descriptors = $4, resources = $5
		WHERE id = $1
		RETURNING id, created_date_time, modification_date_time, program_id, event_id, client_name,
		          report_name, payload_descriptors, resources
	`, id, content.ClientName, content.ReportName, jsonOrNil(content.PayloadDescriptors), resourcesJSON,
	).Scan(&row.id, &row.createdAt, &row.modifiedAt, &row.programID, &row.eventID, &row.clientName,
		&row.reportName, &row.payloadDescriptors, &row.resources)
	if errors.Is(err, pgx.ErrNoRows) {
		return wire.Report{}, NotFound("report not found")
	}
	if err != nil {
		return wire.Report{}, Internal("update report", err)
	}
	return row.toReport()
}

// Delete requires BusinessUser regardless of the visibility rule Retrieve
// applies — see the type doc comment.
func (s *ReportStore) Delete(ctx context.Context, id string, caller auth.Claims) (wire.Report, *Error) {
	if !caller.IsBusiness() {
		return wire.Report{}, Forbidden("report deletion requires a business role")
	}
	if _, storeErr := s.retrieveRow(ctx, id, caller); storeErr != nil {
		return wire.Report{}, storeErr
	}
	var row reportRow
	err := s.DB.QueryRow(ctx, `
		DELETE FROM report WHERE id = $1
		RETURNING id, created_date_time, modification_date_time, program_id, event_id, client_name,
		          report_name, payload_descriptors, resources
	`, id).Scan(&row.id, &row.createdAt, &row.modifiedAt, &row.programID, &row.eventID, &row.clientName,
		&row.reportName, &row.payloadDescriptors, &row.resources)
	if errors.Is(err, pgx.ErrNoRows) {
		return wire.Report{}, NotFound("report not found")
	}
	if err != nil {
		return wire.Report{}, Internal("delete report", err)
	}
	return row.toReport()
}

type reportRow struct {
	id                 string
	createdAt          time.Time
	modifiedAt         time.Time
	programID          string
	eventID            string
	clientName         string
	reportName         *string
	payloadDescriptors []byte
	resources          []byte
}

func (r reportRow) toReport() (wire.Report, *Error) {
	content := wire.ReportContent{ProgramID: r.programID, EventID: r.eventID, ClientName: r.clientName}
	if r.reportName != nil {
		content.ReportName = *r.reportName
	}
	if len(r.payloadDescriptors) > 0 {
		if err := json.Unmarshal(r.payloadDescriptors, &content.PayloadDescriptors); err != nil {
			log.Error().Err(err).Str("report_id", r.id).Msg("failed to decode payload_descriptors from db")
			return wire.Report{}, Internal("decode payload_descriptors", err)
		}
	}
	if len(r.resources) > 0 {
		if err := json.Unmarshal(r.resources, &content.Resources); err != nil {
			log.Error().Err(err).Str("report_id", r.id).Msg("failed to decode resources from db")
			return wire.Report{}, Internal("decode resources", err)
		}
	}
	return wire.Report{ID: r.id, CreatedAt: r.createdAt, ModifiedAt: r.modifiedAt, Content: content}, nil
}
