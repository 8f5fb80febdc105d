package exportsync

import "time"

const (
	StatusUpdated   = "updated"
	StatusUnapplied = "unapplied"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// ExportResult is the outcome for a single export.
type ExportResult struct {
	Path      string   `json:"path"`
	Status    string   `json:"status"`
	Addresses []string `json:"addresses,omitempty"`
	Added     []string `json:"added,omitempty"`
	Removed   []string `json:"removed,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Result is the outcome of one sync run.
type Result struct {
	Commit     bool           `json:"commit"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Exports    []ExportResult `json:"exports"`
}

func (r *Result) Count(status string) int {
	var n int
	for _, e := range r.Exports {
		if e.Status == status {
			n++
		}
	}
	return n
}

// Failed reports whether any export update was attempted and rejected.
func (r *Result) Failed() bool {
	return r.Count(StatusFailed) > 0
}
