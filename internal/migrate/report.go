package migrate

import "time"

// Phase is the stage a run is in.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseFetching  Phase = "fetching"
	PhaseUploading Phase = "uploading"
	PhaseComplete  Phase = "complete"
	PhaseFailed    Phase = "failed"
)

// TypeReport holds the outcome for one question type.
type TypeReport struct {
	Type      string `json:"type"`
	Fetched   int    `json:"fetched"`
	Enqueued  int    `json:"enqueued"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	FailedIDs []int  `json:"failed_ids,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Report summarizes a run.
type Report struct {
	RunID       string        `json:"run_id"`
	Mode        Mode          `json:"mode"`
	Scope       Scope         `json:"scope"`
	Phase       Phase         `json:"phase"`
	Types       []*TypeReport `json:"types"`
	MediaErrors int           `json:"media_errors"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

func newReport(runID string, mode Mode, scope Scope, types []string) *Report {
	r := &Report{
		RunID:     runID,
		Mode:      mode,
		Scope:     scope,
		Phase:     PhaseIdle,
		StartedAt: time.Now().UTC(),
	}
	for _, t := range types {
		r.Types = append(r.Types, &TypeReport{Type: t})
	}
	return r
}

// Failed reports whether any record, media item or question type failed.
func (r *Report) Failed() bool {
	if r.MediaErrors > 0 || r.Phase == PhaseFailed {
		return true
	}
	for _, t := range r.Types {
		if t.Failed > 0 || t.Error != "" {
			return true
		}
	}
	return false
}

// Totals sums the per-type counters.
func (r *Report) Totals() TypeReport {
	var sum TypeReport
	for _, t := range r.Types {
		sum.Fetched += t.Fetched
		sum.Enqueued += t.Enqueued
		sum.Succeeded += t.Succeeded
		sum.Failed += t.Failed
	}
	return sum
}

func (r *Report) finish(phase Phase) {
	r.Phase = phase
	now := time.Now().UTC()
	r.CompletedAt = &now
}
