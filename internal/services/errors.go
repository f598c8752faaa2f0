package services

import "fmt"

// CorruptSnapshotError reports a snapshot field that is missing or does not
// parse as the canonical document.
type CorruptSnapshotError struct {
	ApplicantKey string
	Err          error
}

func (e *CorruptSnapshotError) Error() string {
	return fmt.Sprintf("failed to read snapshot for applicant %v: %v", e.ApplicantKey, e.Err)
}

func (e *CorruptSnapshotError) Unwrap() error { return e.Err }

// ReconciliationError wraps a table-store failure during decompression,
// naming the affected table and applicant key.
type ReconciliationError struct {
	Table        string
	ApplicantKey string
	Err          error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation failed for %v (%v): %v", e.Table, e.ApplicantKey, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

// EnrichmentError reports an oracle that exhausted its retries.
type EnrichmentError struct {
	Attempts int
	Err      error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrichment failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// ValidationError reports a request rejected before any table was touched.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
