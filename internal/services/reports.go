package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/medguardian/backend/internal/database"
	"github.com/medguardian/backend/internal/models"
)

// InsertReport writes the flattened columns and the serialized full payload
// in a single transaction, assigning the report its database identity.
// Calling twice with identical content creates two rows; deduplication by
// identity triple is the reconciliation layer's job, not this one's.
func InsertReport(ctx context.Context, userID uuid.UUID, report *models.Report) error {
	conn, err := database.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	id := uuid.New()
	now := time.Now().UTC()
	report.UserID = userID

	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("insert report: encode payload: %w", err)
	}

	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("insert report: begin: %v: %w", err, ErrPersistence)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (
			id, user_id, patient_id, patient_name, phone,
			doctor_name, referred_by, sample_collected,
			report_generated_by, date, condition_name, risk, raw_json, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, id, userID, report.PatientID, report.PatientName, report.Phone,
		report.DoctorName, report.ReferredBy, report.SampleCollected,
		report.ReportGeneratedBy, report.Date, string(report.Condition),
		report.RiskPercent, string(raw), now)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert report: %v: %w", err, ErrPersistence)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert report: commit: %v: %w", err, ErrPersistence)
	}

	report.ID = id
	report.CreatedAt = now
	return nil
}

// ReportsForUser returns the user's persisted reports, newest first.
func ReportsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Report, error) {
	return queryReports(ctx, `
		SELECT id, user_id, patient_id, patient_name, phone,
			doctor_name, referred_by, sample_collected,
			report_generated_by, date, condition_name, risk, raw_json, created_at
		FROM reports WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2
	`, userID, normalizeLimit(limit, 1000))
}

// FilteredReportsForUser applies condition/patient-name filters on the store
// side. Empty strings mean no constraint on that axis.
func FilteredReportsForUser(ctx context.Context, userID uuid.UUID, condition models.Condition, patientName string, limit int) ([]models.Report, error) {
	q := `
		SELECT id, user_id, patient_id, patient_name, phone,
			doctor_name, referred_by, sample_collected,
			report_generated_by, date, condition_name, risk, raw_json, created_at
		FROM reports WHERE user_id = $1`
	args := []any{userID}
	n := 1
	if condition != "" {
		n++
		q += fmt.Sprintf(" AND condition_name = $%d", n)
		args = append(args, string(condition))
	}
	if patientName != "" {
		n++
		q += fmt.Sprintf(" AND patient_name = $%d", n)
		args = append(args, patientName)
	}
	n++
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", n)
	args = append(args, normalizeLimit(limit, 1000))

	return queryReports(ctx, q, args...)
}

// DeleteReport removes a report by primary key in its own transaction.
// Deletion must always be targeted: a nil id is an ErrInvalidArgument.
// Zero rows affected is (false, nil) — the row may already be gone.
func DeleteReport(ctx context.Context, reportID uuid.UUID) (bool, error) {
	if reportID == uuid.Nil {
		return false, fmt.Errorf("delete report: empty report id: %w", ErrInvalidArgument)
	}

	conn, err := database.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("delete report: begin: %v: %w", err, ErrPersistence)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, reportID)
	if err != nil {
		tx.Rollback()
		return false, fmt.Errorf("delete report: %v: %w", err, ErrPersistence)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return false, fmt.Errorf("delete report: rows affected: %v: %w", err, ErrPersistence)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("delete report: commit: %v: %w", err, ErrPersistence)
	}
	return affected > 0, nil
}

func queryReports(ctx context.Context, query string, args ...any) ([]models.Report, error) {
	conn, err := database.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %v: %w", err, ErrPersistence)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("list reports: scan: %v: %w", err, ErrPersistence)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %v: %w", err, ErrPersistence)
	}
	return reports, nil
}

func scanReport(rows *sql.Rows) (models.Report, error) {
	var r models.Report
	var patientID, patientName, phone, doctorName, referredBy sql.NullString
	var sampleCollected, generatedBy, date, condition, rawJSON sql.NullString
	var risk sql.NullFloat64

	err := rows.Scan(&r.ID, &r.UserID, &patientID, &patientName, &phone,
		&doctorName, &referredBy, &sampleCollected,
		&generatedBy, &date, &condition, &risk, &rawJSON, &r.CreatedAt)
	if err != nil {
		return r, err
	}

	// The serialized payload is authoritative when it decodes cleanly; the
	// flattened columns remain the fallback for legacy or truncated rows.
	if rawJSON.String != "" {
		var full models.Report
		if jsonErr := json.Unmarshal([]byte(rawJSON.String), &full); jsonErr == nil {
			full.ID = r.ID
			full.UserID = r.UserID
			full.CreatedAt = r.CreatedAt
			return full, nil
		}
		log.Printf("report %s: raw_json corrupt, using flattened columns", r.ID)
	}

	r.PatientID = patientID.String
	r.PatientName = patientName.String
	r.Phone = phone.String
	r.DoctorName = doctorName.String
	r.ReferredBy = referredBy.String
	r.SampleCollected = sampleCollected.String
	r.ReportGeneratedBy = generatedBy.String
	r.Date = date.String
	r.Condition = models.Condition(condition.String)
	r.RiskPercent = risk.Float64
	return r, nil
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
