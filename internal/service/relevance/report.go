package relevance

import (
	"github.com/feichai0017/relevance-finder/internal/models"
)

// DocumentOutcome is where one candidate ended up.
type DocumentOutcome struct {
	Index     int
	Candidate models.Candidate
	// Document is nil when retrieval failed.
	Document *models.Document
	State    models.DocumentState
	// DroppedFrom is the state a dropped document was in when it was dropped.
	DroppedFrom models.DocumentState
	// Ranges is empty for gated documents and nil when classification never ran.
	Ranges      models.PageRanges
	Relevant    []int
	FailedPages int
	ResultID    string
	Err         error
}

func (o DocumentOutcome) drop(err error) DocumentOutcome {
	o.DroppedFrom = o.State
	o.State = models.StateDropped
	o.Err = err
	return o
}

// TotalPages is the document's page count, or 0 when it was never retrieved.
func (o DocumentOutcome) TotalPages() int {
	if o.Document == nil {
		return 0
	}
	return o.Document.TotalPages
}

// Report summarizes one pipeline invocation. Outcomes are indexed like the
// candidates they came from.
type Report struct {
	Query    models.Query
	Outcomes []DocumentOutcome
	// Errors holds persistence failures, the only per-document failures
	// surfaced to callers.
	Errors []error
}

func newReport(q models.Query, outcomes []DocumentOutcome) *Report {
	r := &Report{Query: q, Outcomes: outcomes}
	for _, o := range outcomes {
		if o.State == models.StatePersistFailed {
			r.Errors = append(r.Errors, o.Err)
		}
	}
	return r
}

func (r *Report) filter(state models.DocumentState) []DocumentOutcome {
	out := make([]DocumentOutcome, 0)
	for _, o := range r.Outcomes {
		if o.State == state {
			out = append(out, o)
		}
	}
	return out
}

// Results returns the persisted documents in candidate order.
func (r *Report) Results() []DocumentOutcome {
	return r.filter(models.StatePersisted)
}

// Gated returns the documents skipped by the size gate, each with an empty
// range and its true page count.
func (r *Report) Gated() []DocumentOutcome {
	return r.filter(models.StateGated)
}

func (r *Report) Count(state models.DocumentState) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}
