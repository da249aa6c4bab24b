package loader

import (
	"time"

	"github.com/Giomelox/Be-Analytic-ETL/internal/catalog"
)

// ResourceStatus is the terminal state of one resource within a run.
type ResourceStatus string

const (
	StatusSucceeded ResourceStatus = "succeeded"
	StatusSkipped   ResourceStatus = "skipped"
	StatusFailed    ResourceStatus = "failed"
)

// FailReason classifies a failed or skipped resource.
type FailReason string

const (
	ReasonResourceUnreachable FailReason = "ResourceUnreachable"
	ReasonResourceEmpty       FailReason = "ResourceEmpty"
	ReasonParseFailed         FailReason = "ParseFailed"
	ReasonSinkFailed          FailReason = "SinkFailed"
	ReasonFormatUnsupported   FailReason = "FormatUnsupported"
)

// ResourceOutcome is the result of processing a single catalog resource.
// A failed resource carries the terminal error; a succeeded one carries
// its fact and rejection counts.
type ResourceOutcome struct {
	Resource     catalog.Resource
	Status       ResourceStatus
	Reason       FailReason
	FactsWritten int64
	RowsRejected int
	Err          error
}

// RunSummary aggregates all resource outcomes of one orchestration run.
type RunSummary struct {
	StartedAt    time.Time
	CompletedAt  time.Time
	Attempted    int
	Succeeded    int
	Skipped      int
	Failed       int
	FactsWritten int64
	RowsRejected int
	Outcomes     []ResourceOutcome
}

// Success reports whether the run as a whole succeeded. Individual resource
// failures do not fail the run; only a run where every attempted resource
// failed does.
func (s *RunSummary) Success() bool {
	return s.Attempted == 0 || s.Failed < s.Attempted
}

// summarize folds per-resource outcomes into run totals.
func summarize(started time.Time, outcomes []ResourceOutcome) *RunSummary {
	s := &RunSummary{
		StartedAt:   started,
		CompletedAt: time.Now().UTC(),
		Attempted:   len(outcomes),
		Outcomes:    outcomes,
	}
	for _, o := range outcomes {
		switch o.Status {
		case StatusSucceeded:
			s.Succeeded++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
		s.FactsWritten += o.FactsWritten
		s.RowsRejected += o.RowsRejected
	}
	return s
}
