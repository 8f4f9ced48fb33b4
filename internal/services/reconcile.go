package services

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/medguardian/backend/internal/models"
)

// ReportDeleter removes a durable report by id. Satisfied by the repository
// delete; swappable in tests.
type ReportDeleter interface {
	DeleteReport(ctx context.Context, reportID uuid.UUID) (bool, error)
}

// DeleterFunc adapts a function to the ReportDeleter interface.
type DeleterFunc func(ctx context.Context, reportID uuid.UUID) (bool, error)

func (f DeleterFunc) DeleteReport(ctx context.Context, reportID uuid.UUID) (bool, error) {
	return f(ctx, reportID)
}

// DeleteCandidate is the single pending deletion intent. At most one is
// active at a time; a new request replaces it.
type DeleteCandidate struct {
	ReportID uuid.UUID // uuid.Nil when the report was never persisted
	Key      models.ReportKey
}

// ReconciliationEngine merges durable reports with the session's transient
// (not yet saved) reports into one deduplicated view, and drives the
// confirm-then-delete workflow. One engine per session; not shared.
type ReconciliationEngine struct {
	mu        sync.Mutex
	transient []models.Report
	candidate *DeleteCandidate
	deleter   ReportDeleter
}

func NewReconciliationEngine(deleter ReportDeleter) *ReconciliationEngine {
	return &ReconciliationEngine{deleter: deleter}
}

// AddTransient records a freshly computed, unsaved report. Skipped when a
// report with the same identity key is already held, so repeating a
// prediction does not stack duplicates.
func (e *ReconciliationEngine) AddTransient(report models.Report) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := report.Key()
	for _, held := range e.transient {
		if held.Key() == key {
			return false
		}
	}
	e.transient = append(e.transient, report)
	return true
}

// RemoveTransient drops any held report matching the given identity key.
// Called after a successful durable insert so the persisted copy takes over.
func (e *ReconciliationEngine) RemoveTransient(key models.ReportKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeTransientLocked(key)
}

func (e *ReconciliationEngine) removeTransientLocked(key models.ReportKey) {
	kept := e.transient[:0]
	for _, held := range e.transient {
		if held.Key() != key {
			kept = append(kept, held)
		}
	}
	e.transient = kept
}

// Transient returns a copy of the currently held unsaved reports.
func (e *ReconciliationEngine) Transient() []models.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Report, len(e.transient))
	copy(out, e.transient)
	return out
}

// ClearTransient empties the held set and any pending delete candidate.
// Wired as a session clear hook.
func (e *ReconciliationEngine) ClearTransient() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transient = nil
	e.candidate = nil
}

// Merge combines durable and transient reports into one view with no two
// entries sharing an identity key. All persisted entries come first, in the
// order supplied; transient entries follow in their original order, dropped
// when their key already appeared. The persisted copy always wins.
func Merge(persisted, transient []models.Report) []models.Report {
	merged := make([]models.Report, 0, len(persisted)+len(transient))
	seen := make(map[models.ReportKey]struct{}, len(persisted))

	for _, r := range persisted {
		merged = append(merged, r)
		seen[r.Key()] = struct{}{}
	}
	for _, r := range transient {
		if _, dup := seen[r.Key()]; dup {
			continue
		}
		merged = append(merged, r)
		seen[r.Key()] = struct{}{}
	}
	return merged
}

// MergedView runs Merge against the engine's own transient set.
func (e *ReconciliationEngine) MergedView(persisted []models.Report) []models.Report {
	return Merge(persisted, e.Transient())
}

// FilterReports applies patient-name and condition constraints conjunctively.
// An empty string or "All" on either axis means no constraint. The name
// match is a case-insensitive substring check.
func FilterReports(reports []models.Report, patientName, condition string) []models.Report {
	nameFilter := strings.TrimSpace(patientName)
	condFilter := strings.TrimSpace(condition)
	anyName := nameFilter == "" || strings.EqualFold(nameFilter, "All")
	anyCond := condFilter == "" || strings.EqualFold(condFilter, "All")
	if anyName && anyCond {
		return reports
	}

	var out []models.Report
	for _, r := range reports {
		if !anyCond && !strings.EqualFold(string(r.Condition), condFilter) {
			continue
		}
		if !anyName && !strings.Contains(strings.ToLower(r.PatientName), strings.ToLower(nameFilter)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// RequestDelete marks a report for deletion, pending confirmation. A request
// for a different report replaces the existing candidate.
func (e *ReconciliationEngine) RequestDelete(report models.Report) DeleteCandidate {
	e.mu.Lock()
	defer e.mu.Unlock()

	cand := DeleteCandidate{ReportID: report.ID, Key: report.Key()}
	e.candidate = &cand
	return cand
}

// PendingDelete returns the active candidate, if any.
func (e *ReconciliationEngine) PendingDelete() (DeleteCandidate, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.candidate == nil {
		return DeleteCandidate{}, false
	}
	return *e.candidate, true
}

// ConfirmDelete executes the pending candidate. The durable delete runs
// first when the report has an id; a store failure is logged but never
// blocks local removal, so the merged view stops showing the report either
// way. Returns whether a durable row was removed. No-op without an active
// candidate.
func (e *ReconciliationEngine) ConfirmDelete(ctx context.Context) (bool, error) {
	e.mu.Lock()
	if e.candidate == nil {
		e.mu.Unlock()
		return false, nil
	}
	cand := *e.candidate
	e.candidate = nil
	e.removeTransientLocked(cand.Key)
	e.mu.Unlock()

	if cand.ReportID == uuid.Nil || e.deleter == nil {
		return false, nil
	}

	removed, err := e.deleter.DeleteReport(ctx, cand.ReportID)
	if err != nil {
		log.Printf("reconcile: durable delete failed for report %s, local removal kept: %v", cand.ReportID, err)
		return false, err
	}
	return removed, nil
}

// CancelDelete clears the pending candidate without side effects.
func (e *ReconciliationEngine) CancelDelete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.candidate = nil
}
