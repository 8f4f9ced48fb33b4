package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/medguardian/backend/internal/database"
)

// setupTestDB backs the repository layer with a throwaway SQLite file.
// Placeholders are written as sequential $1..$N, which both drivers bind
// positionally, so the production queries run unchanged here.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	schema := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			full_name TEXT,
			phone TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE reports (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			patient_id TEXT,
			patient_name TEXT,
			phone TEXT,
			doctor_name TEXT,
			referred_by TEXT,
			sample_collected TEXT,
			report_generated_by TEXT,
			date TEXT,
			condition_name TEXT,
			risk REAL,
			raw_json TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE chats (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}
	for _, q := range schema {
		if _, err := db.Exec(q); err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	prev := database.PostgresDB
	database.PostgresDB = db
	t.Cleanup(func() {
		database.PostgresDB = prev
		db.Close()
	})
	return db
}

// mustCreateUser registers a user directly through the credential store.
func mustCreateUser(t *testing.T, username, password string) uuid.UUID {
	t.Helper()

	created, err := CreateUser(context.Background(), username, password, "Test User", "555-0100")
	if err != nil {
		t.Fatalf("CreateUser(%q): %v", username, err)
	}
	if !created {
		t.Fatalf("CreateUser(%q): username unexpectedly taken", username)
	}

	var id uuid.UUID
	err = database.PostgresDB.QueryRow(`SELECT id FROM users WHERE username = $1`, username).Scan(&id)
	if err != nil {
		t.Fatalf("lookup created user: %v", err)
	}
	return id
}

// insertReportAt writes a report with a controlled created_at so ordering
// tests do not depend on wall-clock resolution.
func insertReportAt(t *testing.T, userID uuid.UUID, patientID, patientName, condition, date string, createdAt time.Time) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := database.PostgresDB.Exec(`
		INSERT INTO reports (
			id, user_id, patient_id, patient_name, phone,
			doctor_name, referred_by, sample_collected,
			report_generated_by, date, condition_name, risk, raw_json, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, id, userID, patientID, patientName, "", "", "", "", "", date, condition, 42.0, "", createdAt)
	if err != nil {
		t.Fatalf("seed report: %v", err)
	}
	return id
}
