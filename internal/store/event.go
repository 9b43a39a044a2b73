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

// EventStore is role-scoped CRUD for Event over Postgres. An event's
// visibility always follows its parent program's visibility (§5.4.2): there
// is no separate event-level ownership.
type EventStore struct {
	DB *pgxpool.Pool
}

func NewEventStore(db *pgxpool.Pool) *EventStore { return &EventStore{DB: db} }

func (s *EventStore) Create(ctx context.Context, content wire.EventContent, caller auth.Claims) (wire.Event, *Error) {
	if err := content.Validate(); err != nil {
		return wire.Event{}, Validation(err.Error())
	}
	if _, storeErr := (&ProgramStore{DB: s.DB}).retrieveRow(ctx, content.ProgramID, caller); storeErr != nil {
		if storeErr.Kind == KindNotFound {
			return wire.Event{}, BadRequest("programID does not reference a visible program")
		}
		return wire.Event{}, storeErr
	}

	intervalsJSON, err := json.Marshal(content.Intervals)
	if err != nil {
		return wire.Event{}, Internal("marshal intervals", err)
	}

	id := uuid.NewString()
	var row eventRow
	err = s.DB.QueryRow(ctx, `
		INSERT INTO event (id, created_date_time, modification_date_time, program_id, event_name,
		                    priority, targets, report_descriptors, payload_descriptors,
		                    interval_period, intervals)
		VALUES ($1, now(), now(), $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_date_time, modification_date_time, program_id, event_name, priority,
		          targets, report_descriptors, payload_descriptors, interval_period, intervals
	`, id, content.ProgramID, content.EventName, priorityValue(content.Priority),
		jsonOrNil(content.Targets), jsonOrNil(content.ReportDescriptors), jsonOrNil(content.PayloadDescriptors),
		jsonOrNil(content.IntervalPeriod), intervalsJSON,
	).Scan(&row.id, &row.createdAt, &row.modifiedAt, &row.programID, &row.eventName, &row.priority,
		&row.targets, &row.reportDescriptors, &row.payloadDescriptors, &row.intervalPeriod, &row.intervals)
	if err != nil {
		return wire.Event{}, Internal("insert event", err)
	}
	return row.toEvent()
}

func (s *EventStore) Retrieve(ctx context.Context, id string, caller auth.Claims) (wire.Event, *Error) {
	row, storeErr := s.retrieveRow(ctx, id, caller)
	if storeErr != nil {
		return wire.Event{}, storeErr
	}
	return row.toEvent()
}

func (s *EventStore) retrieveRow(ctx context.Context, id string, caller auth.Claims) (eventRow, *Error) {
	businessIDs := caller.BusinessIDs()
	venIDs := caller.VenIDs()
	hasBusiness := businessIDs.Any || len(businessIDs.IDs) > 0
	hasVen := len(venIDs) > 0

	var row eventRow
	err := s.DB.QueryRow(ctx, `
		SELECT e.id, e.created_date_time, e.modification_date_time, e.program_id, e.event_name,
		       e.priority, e.targets, e.report_descriptors, e.payload_descriptors,
		       e.interval_period, e.intervals
		FROM event e
		JOIN program p ON p.id = e.program_id
		LEFT JOIN ven_program vp ON p.id = vp.program_id
		WHERE e.id = $1
		  AND (
		        ($2 AND ($3 OR p.business_id IS NULL OR p.business_id = ANY($4)))
		        OR
		        ($5 AND (vp.ven_id IS NULL OR vp.ven_id = ANY($6)))
		      )
	`, id, hasBusiness, businessIDs.Any, businessIDs.IDs, hasVen, venIDs).Scan(
		&row.id, &row.createdAt, &row.modifiedAt, &row.programID, &row.eventName, &row.priority,
		&row.targets, &row.reportDescriptors, &row.payloadDescriptors, &row.intervalPeriod, &row.intervals)
	if errors.Is(err, pgx.ErrNoRows) {
		return eventRow{}, NotFound("event not found")
	}
	if err != nil {
		return eventRow{}, Internal("retrieve event", err)
	}
	return row, nil
}

func (s *EventStore) RetrieveAll(ctx context.Context, programID string, filter Filter, caller auth.Claims) ([]wire.Event, *Error) {
	businessIDs := caller.BusinessIDs()
	venIDs := caller.VenIDs()
	hasBusiness := businessIDs.Any || len(businessIDs.IDs) > 0
	hasVen := len(venIDs) > 0

	var eventNames []string
	var targetsJSON []byte
	if filter.TargetType != nil {
		switch *filter.TargetType {
		case wire.TargetEventName:
			eventNames = filter.TargetValues
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

	rows, err := s.DB.Query(ctx, `
		SELECT DISTINCT e.id, e.created_date_time, e.modification_date_time, e.program_id,
		       e.event_name, e.priority, e.targets, e.report_descriptors, e.payload_descriptors,
		       e.interval_period, e.intervals
		FROM event e
		JOIN program p ON p.id = e.program_id
		LEFT JOIN ven_program vp ON p.id = vp.program_id
		WHERE ($1::text IS NULL OR e.program_id = $1)
		  AND ($2::text[] IS NULL OR e.event_name = ANY($2))
		  AND ($3::jsonb IS NULL OR e.targets @> $3)
		  AND (
		        ($4 AND ($5 OR p.business_id IS NULL OR p.business_id = ANY($6)))
		        OR
		        ($7 AND (vp.ven_id IS NULL OR vp.ven_id = ANY($8)))
		      )
		ORDER BY e.created_date_time
		OFFSET $9 LIMIT $10
	`, nullableString(programID), nullIfEmpty(eventNames), targetsJSON,
		hasBusiness, businessIDs.Any, businessIDs.IDs, hasVen, venIDs,
		filter.Skip, filter.Limit)
	if err != nil {
		return nil, Internal("list events", err)
	}
	defer rows.Close()

	var out []wire.Event
	for rows.Next() {
		var row eventRow
		if err := rows.Scan(&row.id, &row.createdAt, &row.modifiedAt, &row.programID, &row.eventName,
			&row.priority, &row.targets, &row.reportDescriptors, &row.payloadDescriptors,
			&row.intervalPeriod, &row.intervals); err != nil {
			return nil, Internal("scan event row", err)
		}
		ev, storeErr := row.toEvent()
		if storeErr != nil {
			return nil, storeErr
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, Internal("list events", err)
	}
	return out, nil
}

func (s *EventStore) Update(ctx context.Context, id string, content wire.EventContent, caller auth.Claims) (wire.Event, *Error) {
	if err := content.Validate(); err != nil {
		return wire.Event{}, Validation(err.Error())
	}
	if _, storeErr := s.retrieveRow(ctx, id, caller); storeErr != nil {
		return wire.Event{}, storeErr
	}

	intervalsJSON, err := json.Marshal(content.Intervals)
	if err != nil {
		return wire.Event{}, Internal("marshal intervals", err)
	}

	var row eventRow
	err = s.DB.QueryRow(ctx, `
		UPDATE event SET modification_date_time = now(), event_name = $2, priority = $3,
		       targets = $4, report_descriptors = $5, payload_descriptors = $6,
		       interval_period = $7, intervals = $8
		WHERE id = $1
		RETURNING id, created_date_time, modification_date_time, program_id, event_name, priority,
		          targets, report_descriptors, payload_descriptors, interval_period, intervals
	`, id, content.EventName, priorityValue(content.Priority), jsonOrNil(content.Targets),
		jsonOrNil(content.ReportDescriptors), jsonOrNil(content.PayloadDescriptors),
		jsonOrNil(content.IntervalPeriod), intervalsJSON,
	).Scan(&row.id, &row.createdAt, &row.modifiedAt, &row.programID, &row.eventName, &row.priority,
		&row.targets, &row.reportDescriptors, &row.payloadDescriptors, &row.intervalPeriod, &row.intervals)
	if errors.Is(err, pgx.ErrNoRows) {
		return wire.Event{}, NotFound("event not found")
	}
	if err != nil {
		return wire.Event{}, Internal("update event", err)
	}
	return row.toEvent()
}

func (s *EventStore) Delete(ctx context.Context, id string, caller auth.Claims) (wire.Event, *Error) {
	if _, storeErr := s.retrieveRow(ctx, id, caller); storeErr != nil {
		return wire.Event{}, storeErr
	}
	var row eventRow
	err := s.DB.QueryRow(ctx, `
		DELETE FROM event WHERE id = $1
		RETURNING id, created_date_time, modification_date_time, program_id, event_name, priority,
		          targets, report_descriptors, payload_descriptors, interval_period, intervals
	`, id).Scan(&row.id, &row.createdAt, &row.modifiedAt, &row.programID, &row.eventName, &row.priority,
		&row.targets, &row.reportDescriptors, &row.payloadDescriptors, &row.intervalPeriod, &row.intervals)
	if errors.Is(err, pgx.ErrNoRows) {
		return wire.Event{}, NotFound("event not found")
	}
	if err != nil {
		return wire.Event{}, Internal("delete event", err)
	}
	return row.toEvent()
}

type eventRow struct {
	id                 string
	createdAt          time.Time
	modifiedAt         time.Time
	programID          string
	eventName          *string
	priority           *uint32
	targets            []byte
	reportDescriptors  []byte
	payloadDescriptors []byte
	intervalPeriod     []byte
	intervals          []byte
}

func (r eventRow) toEvent() (wire.Event, *Error) {
	content := wire.EventContent{ProgramID: r.programID}
	if r.eventName != nil {
		content.EventName = *r.eventName
	}
	if r.priority != nil {
		content.Priority = wire.NewPriority(*r.priority)
	} else {
		content.Priority = wire.Unspecified
	}
	decode := func(b []byte, v any, field string) *Error {
		if len(b) == 0 {
			return nil
		}
		if err := json.Unmarshal(b, v); err != nil {
			log.Error().Err(err).Str("event_id", r.id).Str("field", field).Msg("failed to decode json column")
			return Internal("decode "+field, err)
		}
		return nil
	}
	if err := decode(r.targets, &content.Targets, "targets"); err != nil {
		return wire.Event{}, err
	}
	if err := decode(r.reportDescriptors, &content.ReportDescriptors, "report_descriptors"); err != nil {
		return wire.Event{}, err
	}
	if err := decode(r.payloadDescriptors, &content.PayloadDescriptors, "payload_descriptors"); err != nil {
		return wire.Event{}, err
	}
	if len(r.intervalPeriod) > 0 {
		var ip wire.IntervalPeriod
		if err := decode(r.intervalPeriod, &ip, "interval_period"); err != nil {
			return wire.Event{}, err
		}
		content.IntervalPeriod = &ip
	}
	if err := decode(r.intervals, &content.Intervals, "intervals"); err != nil {
		return wire.Event{}, err
	}
	return wire.Event{ID: r.id, CreatedAt: r.createdAt, ModifiedAt: r.modifiedAt, Content: content}, nil
}

// priorityValue returns a *uint32 suitable for a nullable integer column: nil
// for Unspecified, the numeric value otherwise.
func priorityValue(p wire.Priority) *uint32 {
	v, ok := p.Value()
	if !ok {
		return nil
	}
	return &v
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
