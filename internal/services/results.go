package services

import "fmt"

// OpResult is the structured outcome of a single-applicant operation. For
// shortlisting, Status carries the decision independent of whether enrichment
// succeeded.
type OpResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// BulkResult accumulates per-item outcomes of a bulk sweep; one bad record
// never halts the iteration.
type BulkResult struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Errored   int `json:"errored"`
}

func (r BulkResult) Message() string {
	return fmt.Sprintf("processed %d applicants: %d succeeded, %d skipped, %d errored",
		r.Processed, r.Succeeded, r.Skipped, r.Errored)
}

// ShortlistSummary aggregates shortlist transitions and enrichment outcomes
// over a bulk run.
type ShortlistSummary struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Deleted   int `json:"deleted"`
	Skipped   int `json:"skipped"`
	LLMOk     int `json:"llm_ok"`
	LLMErrors int `json:"llm_errors"`
}

func (s ShortlistSummary) Message() string {
	return fmt.Sprintf("created %d, updated %d, deleted %d, skipped %d (llm ok %d, llm errors %d)",
		s.Created, s.Updated, s.Deleted, s.Skipped, s.LLMOk, s.LLMErrors)
}
