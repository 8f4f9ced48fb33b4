package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/medguardian/backend/internal/models"
	"github.com/medguardian/backend/internal/scorer"
	"github.com/medguardian/backend/internal/services"
)

// Predict Request
type PredictRequest struct {
	Condition         string         `json:"condition"`
	Features          []float64      `json:"features"`
	PatientID         string         `json:"patient_id"`
	PatientName       string         `json:"patient_name"`
	Phone             string         `json:"phone,omitempty"`
	DoctorName        string         `json:"doctor_name,omitempty"`
	ReferredBy        string         `json:"referred_by,omitempty"`
	SampleCollected   string         `json:"sample_collected,omitempty"`
	ReportGeneratedBy string         `json:"report_generated_by,omitempty"`
	Extra             map[string]any `json:"extra,omitempty"`
	Save              bool           `json:"save"`
}

// Predict Response
type PredictResponse struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message"`
	Positive    bool           `json:"positive"`
	RiskPercent float64        `json:"risk_percent"`
	Saved       bool           `json:"saved"`
	Report      *models.Report `json:"report,omitempty"`
}

// Delete Request (request/confirm share the body; confirm ignores it)
type DeleteRequestBody struct {
	ReportID  string `json:"report_id,omitempty"`
	PatientID string `json:"patient_id"`
	Condition string `json:"condition"`
	Date      string `json:"date"`
}

// Predict scores a feature vector, holds the result as an unsaved report,
// and optionally writes it through in the same call. A store failure keeps
// the report in the unsaved set so nothing the user just generated is lost.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	sess := h.requireSession(w, r)
	if sess == nil {
		return
	}

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	condition := models.Condition(req.Condition)
	if !condition.Valid() {
		http.Error(w, "Condition must be one of Heart, Diabetes, Kidney", http.StatusBadRequest)
		return
	}
	if req.PatientID == "" || req.PatientName == "" {
		http.Error(w, "Patient ID and patient name are required", http.StatusBadRequest)
		return
	}

	result, err := scorer.SafeScore(r.Context(), h.Scorer, condition, req.Features)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report := models.Report{
		PatientID:         req.PatientID,
		PatientName:       req.PatientName,
		Phone:             req.Phone,
		DoctorName:        req.DoctorName,
		ReferredBy:        req.ReferredBy,
		SampleCollected:   req.SampleCollected,
		ReportGeneratedBy: req.ReportGeneratedBy,
		Date:              time.Now().UTC().Format("2006-01-02"),
		Condition:         condition,
		RiskPercent:       result.RiskPercent,
		Extra:             req.Extra,
	}

	h.Engine.AddTransient(report)

	saved := false
	if req.Save {
		if err := services.InsertReport(r.Context(), sess.User.ID, &report); err != nil {
			log.Printf("ERROR: report save failed for patient %s, kept unsaved: %v", report.PatientID, err)
		} else {
			saved = true
			h.Engine.RemoveTransient(report.Key())
		}
	}

	writeJSON(w, http.StatusOK, PredictResponse{
		Success:     true,
		Message:     "Screening complete",
		Positive:    result.Positive,
		RiskPercent: result.RiskPercent,
		Saved:       saved,
		Report:      &report,
	})
}

// ListReports returns the merged durable + unsaved view, filtered by the
// optional patient_name and condition query parameters.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	sess := h.requireSession(w, r)
	if sess == nil {
		return
	}

	persisted, err := services.ReportsForUser(r.Context(), sess.User.ID, h.Config.ReportListLimit)
	if err != nil {
		log.Printf("ERROR: report list failed for %s: %v", sess.User.Username, err)
		http.Error(w, "Failed to load reports", http.StatusInternalServerError)
		return
	}

	merged := h.Engine.MergedView(persisted)
	filtered := services.FilterReports(merged,
		r.URL.Query().Get("patient_name"),
		r.URL.Query().Get("condition"))

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"reports": filtered,
			"count":   len(filtered),
		},
	})
}

// RequestDelete marks a report for deletion, pending confirmation.
func (h *Handler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	sess := h.requireSession(w, r)
	if sess == nil {
		return
	}

	var req DeleteRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	condition := models.Condition(req.Condition)
	if req.PatientID == "" || req.Date == "" || !condition.Valid() {
		http.Error(w, "Patient ID, condition, and date are required", http.StatusBadRequest)
		return
	}

	report := models.Report{
		PatientID: req.PatientID,
		Condition: condition,
		Date:      req.Date,
	}
	if req.ReportID != "" {
		id, err := uuid.Parse(req.ReportID)
		if err != nil {
			http.Error(w, "Invalid report id", http.StatusBadRequest)
			return
		}
		report.ID = id
	}

	cand := h.Engine.RequestDelete(report)
	log.Printf("delete requested by %s for patient %s (%s, %s)", sess.User.Username, cand.Key.PatientID, cand.Key.Condition, cand.Key.Date)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Deletion pending confirmation",
	})
}

// ConfirmDelete executes the pending deletion. The local copy disappears
// even when the durable delete fails.
func (h *Handler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	if sess := h.requireSession(w, r); sess == nil {
		return
	}

	removed, err := h.Engine.ConfirmDelete(r.Context())
	msg := "Report deleted"
	if err != nil {
		msg = "Report removed from view; stored copy could not be deleted"
	} else if !removed {
		msg = "Report removed"
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: msg,
	})
}

// CancelDelete drops the pending deletion without touching anything.
func (h *Handler) CancelDelete(w http.ResponseWriter, r *http.Request) {
	if sess := h.requireSession(w, r); sess == nil {
		return
	}
	h.Engine.CancelDelete()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Deletion cancelled",
	})
}
