package database

import (
	"context"
	"errors"
	"testing"
	"time"
)

// saveState snapshots the package globals so each test can wreck them.
func saveState(t *testing.T) {
	t.Helper()
	prevDB, prevDSN, prevTimeout := PostgresDB, directDSN, acquireTimeout
	t.Cleanup(func() {
		PostgresDB, directDSN, acquireTimeout = prevDB, prevDSN, prevTimeout
	})
}

func TestInitPostgresTablesWithoutPool(t *testing.T) {
	saveState(t)
	PostgresDB = nil
	directDSN = ""

	// No pool and no DSN: a connection error, never a nil dereference.
	err := InitPostgresTables()
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("InitPostgresTables without a pool = %v, want ErrConnection", err)
	}
}

func TestInitPostgresTablesUnreachableDirect(t *testing.T) {
	saveState(t)
	PostgresDB = nil
	directDSN = "host=127.0.0.1 port=1 user=mg dbname=mg sslmode=disable connect_timeout=1"
	acquireTimeout = 500 * time.Millisecond

	// Pool creation failed at startup; the direct path is tried and its
	// failure surfaces as an error the caller can report.
	err := InitPostgresTables()
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("InitPostgresTables with unreachable store = %v, want ErrConnection", err)
	}
}

func TestAcquireWithoutPoolOrDSN(t *testing.T) {
	saveState(t)
	PostgresDB = nil
	directDSN = ""

	_, err := Acquire(context.Background())
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("Acquire without a pool = %v, want ErrConnection", err)
	}
}
