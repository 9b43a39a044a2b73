package store

import (
	"context"
	"os"
	"testing"

	"github.com/erauner12/openadr-vtn/internal/auth"
	"github.com/erauner12/openadr-vtn/internal/db"
	"github.com/erauner12/openadr-vtn/internal/db/migrations"
	"github.com/erauner12/openadr-vtn/internal/openadr/wire"
	"github.com/jackc/pgx/v5/pgxpool"
)

// getTestDB connects to a real Postgres instance for integration tests,
// skipping entirely when TEST_DATABASE_URL isn't set.
func getTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration tests")
	}
	pool, err := db.Open(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	if err := migrations.Apply(context.Background(), pool); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	for _, table := range []string{"resource", "ven_program", "event", "report", "ven", "program"} {
		if _, err := pool.Exec(context.Background(), "DELETE FROM "+table); err != nil {
			t.Fatalf("failed to clean table %s: %v", table, err)
		}
	}
	t.Cleanup(pool.Close)
	return pool
}

func anyBusinessClaims() auth.Claims {
	return auth.Claims{Subject: "test-admin", Roles: []auth.AuthRole{auth.AnyBusiness()}}
}

// Scenario 3: pagination.
func TestProgramPagination(t *testing.T) {
	pool := getTestDB(t)
	ctx := context.Background()
	store := NewProgramStore(pool)
	caller := anyBusinessClaims()

	for _, name := range []string{"program1", "program2", "program3"} {
		if _, err := store.Create(ctx, wire.ProgramContent{ProgramName: name}, caller); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	full, err := NewFilter(0, 50, true, nil, nil)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	all, storeErr := store.RetrieveAll(ctx, full, caller)
	if storeErr != nil {
		t.Fatalf("retrieve all: %v", storeErr)
	}
	if len(all) != 3 {
		t.Fatalf("want 3 programs, got %d", len(all))
	}

	skip1, _ := NewFilter(1, 50, true, nil, nil)
	rest, storeErr := store.RetrieveAll(ctx, skip1, caller)
	if storeErr != nil {
		t.Fatalf("retrieve skip=1: %v", storeErr)
	}
	if len(rest) != 2 {
		t.Fatalf("want 2 programs after skip=1, got %d", len(rest))
	}

	skip3, _ := NewFilter(3, 50, true, nil, nil)
	none, storeErr := store.RetrieveAll(ctx, skip3, caller)
	if storeErr != nil {
		t.Fatalf("retrieve skip=3: %v", storeErr)
	}
	if len(none) != 0 {
		t.Fatalf("want 0 programs after skip=3, got %d", len(none))
	}

	if _, err := NewFilter(0, 0, true, nil, nil); err == nil {
		t.Error("limit=0 should be a validation error")
	}
	if _, err := NewFilter(0, 51, true, nil, nil); err == nil {
		t.Error("limit=51 should be a validation error")
	}
	if _, err := NewFilter(-1, 50, true, nil, nil); err == nil {
		t.Error("skip=-1 should be a validation error")
	}
}

// Scenario 4: program name conflict.
func TestProgramNameConflict(t *testing.T) {
	pool := getTestDB(t)
	ctx := context.Background()
	store := NewProgramStore(pool)
	caller := anyBusinessClaims()

	if _, err := store.Create(ctx, wire.ProgramContent{ProgramName: "p"}, caller); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := store.Create(ctx, wire.ProgramContent{ProgramName: "p"}, caller)
	if err == nil {
		t.Fatal("second create with the same programName should fail")
	}
	if err.Kind != KindConflict {
		t.Fatalf("want KindConflict, got %s", err.Kind)
	}
}

// Scenario 5: VEN visibility.
func TestEventVenVisibility(t *testing.T) {
	pool := getTestDB(t)
	ctx := context.Background()
	programs := NewProgramStore(pool)
	events := NewEventStore(pool)
	vens := NewVenStore(pool)
	venManager := auth.Claims{Subject: "admin", Roles: []auth.AuthRole{auth.VenManager()}}

	ven1, err := vens.Create(ctx, wire.VenContent{VenName: "ven-1"}, venManager)
	if err != nil {
		t.Fatalf("create ven-1: %v", err)
	}

	program, storeErr := programs.Create(ctx, wire.ProgramContent{
		ProgramName: "program-3",
		Targets:     wire.TargetMap{{Label: wire.TargetVENName, Values: []string{"ven-1"}}},
	}, anyBusinessClaims())
	if storeErr != nil {
		t.Fatalf("create program-3: %v", storeErr)
	}

	event, storeErr := events.Create(ctx, wire.EventContent{
		ProgramID: program.ID,
		EventName: "event-3",
		Intervals: []wire.EventInterval{{ID: 0, Payloads: nil}},
	}, anyBusinessClaims())
	if storeErr != nil {
		t.Fatalf("create event-3: %v", storeErr)
	}

	ven1Claims := auth.Claims{Subject: "ven-1-client", Roles: []auth.AuthRole{auth.VEN(ven1.ID)}}
	if _, storeErr := events.Retrieve(ctx, event.ID, ven1Claims); storeErr != nil {
		t.Fatalf("VEN(ven-1) should see event-3: %v", storeErr)
	}

	ven2Claims := auth.Claims{Subject: "ven-2-client", Roles: []auth.AuthRole{auth.VEN("nonexistent-ven-2")}}
	_, storeErr = events.Retrieve(ctx, event.ID, ven2Claims)
	if storeErr == nil {
		t.Fatal("VEN(ven-2) should not see event-3")
	}
	if storeErr.Kind != KindNotFound {
		t.Fatalf("want KindNotFound, got %s", storeErr.Kind)
	}
}
