package relevance

// Outcome is the tagged result of classifying one page.
type Outcome int

const (
	NotRelevant Outcome = iota
	Relevant
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Relevant:
		return "relevant"
	case NotRelevant:
		return "not_relevant"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// PageResult is the verdict for one page. Reason is set only for Failed and
// is kept for diagnostics; a failed page counts as not relevant.
type PageResult struct {
	PageNo  int
	Outcome Outcome
	Reason  error
	Cached  bool
}

func relevantResult(pageNo int, verdict, cached bool) PageResult {
	if verdict {
		return PageResult{PageNo: pageNo, Outcome: Relevant, Cached: cached}
	}
	return PageResult{PageNo: pageNo, Outcome: NotRelevant, Cached: cached}
}

func failedResult(pageNo int, err error) PageResult {
	return PageResult{PageNo: pageNo, Outcome: Failed, Reason: err}
}
