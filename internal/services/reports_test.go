package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medguardian/backend/internal/models"
)

func TestInsertReportAssignsIdentity(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	userID := mustCreateUser(t, "erin", "pw")

	report := models.Report{
		PatientID:   "MG-1",
		PatientName: "Pat One",
		Date:        "2024-01-01",
		Condition:   models.ConditionHeart,
		RiskPercent: 73.5,
		Extra:       map[string]any{"age": 61.0, "chol": 240.0},
	}
	if err := InsertReport(ctx, userID, &report); err != nil {
		t.Fatalf("InsertReport: %v", err)
	}
	if report.ID == uuid.Nil {
		t.Fatal("InsertReport did not assign an id")
	}
	if report.CreatedAt.IsZero() {
		t.Fatal("InsertReport did not set created_at")
	}

	got, err := ReportsForUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("ReportsForUser: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ReportsForUser returned %d reports, want 1", len(got))
	}
	r := got[0]
	if r.ID != report.ID || r.PatientID != "MG-1" || r.Condition != models.ConditionHeart {
		t.Fatalf("round-tripped report mismatch: %+v", r)
	}
	if r.RiskPercent != 73.5 {
		t.Fatalf("risk = %v, want 73.5", r.RiskPercent)
	}
	// Extra measurements travel through the serialized payload.
	if r.Extra["chol"] != 240.0 {
		t.Fatalf("extra payload lost: %+v", r.Extra)
	}
}

func TestReportsForUserNewestFirst(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	userID := mustCreateUser(t, "frank", "pw")

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	insertReportAt(t, userID, "P-old", "Old", "Heart", "2024-03-01", base)
	insertReportAt(t, userID, "P-mid", "Mid", "Diabetes", "2024-03-02", base.Add(time.Hour))
	insertReportAt(t, userID, "P-new", "New", "Kidney", "2024-03-03", base.Add(2*time.Hour))

	got, err := ReportsForUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("ReportsForUser: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d reports, want 3", len(got))
	}
	wantOrder := []string{"P-new", "P-mid", "P-old"}
	for i, want := range wantOrder {
		if got[i].PatientID != want {
			t.Fatalf("position %d = %s, want %s", i, got[i].PatientID, want)
		}
	}
}

func TestReportsForUserLimit(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	userID := mustCreateUser(t, "grace", "pw")

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		insertReportAt(t, userID, "P", "Pat", "Heart", "2024-03-01", base.Add(time.Duration(i)*time.Minute))
	}

	got, err := ReportsForUser(ctx, userID, 2)
	if err != nil {
		t.Fatalf("ReportsForUser: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("limit ignored: got %d reports, want 2", len(got))
	}
}

func TestFilteredReportsForUser(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	userID := mustCreateUser(t, "heidi", "pw")

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	insertReportAt(t, userID, "P1", "Asha", "Heart", "2024-03-01", base)
	insertReportAt(t, userID, "P2", "Asha", "Diabetes", "2024-03-02", base.Add(time.Hour))
	insertReportAt(t, userID, "P3", "Ravi", "Heart", "2024-03-03", base.Add(2*time.Hour))

	got, err := FilteredReportsForUser(ctx, userID, models.ConditionHeart, "Asha", 10)
	if err != nil {
		t.Fatalf("FilteredReportsForUser: %v", err)
	}
	if len(got) != 1 || got[0].PatientID != "P1" {
		t.Fatalf("conjunctive filter failed: %+v", got)
	}

	got, err = FilteredReportsForUser(ctx, userID, "", "Asha", 10)
	if err != nil {
		t.Fatalf("FilteredReportsForUser: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("name-only filter returned %d reports, want 2", len(got))
	}
}

func TestDeleteReport(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	userID := mustCreateUser(t, "ivan", "pw")

	id := insertReportAt(t, userID, "P1", "Pat", "Heart", "2024-03-01",
		time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	removed, err := DeleteReport(ctx, id)
	if err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	if !removed {
		t.Fatal("DeleteReport reported no row removed")
	}

	// Row already gone: false, not an error.
	removed, err = DeleteReport(ctx, id)
	if err != nil {
		t.Fatalf("DeleteReport second call: %v", err)
	}
	if removed {
		t.Fatal("DeleteReport removed a row twice")
	}
}

func TestDeleteReportNilID(t *testing.T) {
	setupTestDB(t)

	_, err := DeleteReport(context.Background(), uuid.Nil)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("DeleteReport(nil) error = %v, want ErrInvalidArgument", err)
	}
}

func TestScanReportFallsBackToColumns(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	userID := mustCreateUser(t, "judy", "pw")

	// Seeded rows carry no raw_json; the flattened columns must carry.
	insertReportAt(t, userID, "P9", "Legacy Row", "Kidney", "2024-02-15",
		time.Date(2024, 2, 15, 9, 0, 0, 0, time.UTC))

	got, err := ReportsForUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("ReportsForUser: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d reports, want 1", len(got))
	}
	if got[0].PatientName != "Legacy Row" || got[0].Condition != models.ConditionKidney {
		t.Fatalf("column fallback mismatch: %+v", got[0])
	}
	if got[0].RiskPercent != 42.0 {
		t.Fatalf("risk = %v, want 42", got[0].RiskPercent)
	}
}
