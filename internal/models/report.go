package models

import (
	"time"

	"github.com/google/uuid"
)

// Condition is the screened disease category a report belongs to.
type Condition string

const (
	ConditionHeart    Condition = "Heart"
	ConditionDiabetes Condition = "Diabetes"
	ConditionKidney   Condition = "Kidney"
)

// Valid reports whether c is one of the known conditions.
func (c Condition) Valid() bool {
	switch c {
	case ConditionHeart, ConditionDiabetes, ConditionKidney:
		return true
	}
	return false
}

// Report is the canonical in-memory shape of a clinical-risk report.
// The structured core maps to flattened columns in the reports table; the
// condition-specific measurements live in Extra and travel with the record
// through the serialized raw_json column. A report with ID == uuid.Nil has
// not been persisted yet ("transient").
type Report struct {
	ID     uuid.UUID `json:"id,omitempty"`
	UserID uuid.UUID `json:"-"`

	PatientID         string    `json:"patient_id"`
	PatientName       string    `json:"patient_name"`
	Phone             string    `json:"phone,omitempty"`
	DoctorName        string    `json:"doctor_name,omitempty"`
	ReferredBy        string    `json:"referred_by,omitempty"`
	SampleCollected   string    `json:"sample_collected,omitempty"`
	ReportGeneratedBy string    `json:"report_generated_by,omitempty"`
	Date              string    `json:"date"`
	Condition         Condition `json:"condition"`
	RiskPercent       float64   `json:"risk_percent"`

	// Extra carries the condition-specific measurements (age, cholesterol,
	// HbA1c, serum creatinine, ...) without the core caring what they are.
	Extra map[string]any `json:"extra,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ReportKey is the identity triple used to decide whether two report
// representations denote the same clinical event. Deliberately NOT the
// database id: a freshly computed report and its stored copy must compare
// equal before they are unified.
type ReportKey struct {
	PatientID string
	Condition Condition
	Date      string
}

// Key returns the report's identity triple.
func (r *Report) Key() ReportKey {
	return ReportKey{PatientID: r.PatientID, Condition: r.Condition, Date: r.Date}
}

// Persisted reports whether the report has a database identity.
func (r *Report) Persisted() bool {
	return r.ID != uuid.Nil
}
