package relevance

import "errors"

var (
	// ErrInvalidQuery fails a whole invocation before any work starts.
	ErrInvalidQuery = errors.New("invalid query")

	ErrRetrievalFailed   = errors.New("document retrieval failed")
	ErrNoRelevantPages   = errors.New("no relevant pages")
	ErrPersistFailed     = errors.New("failed to persist result")
	ErrSearchNotFound    = errors.New("search result not found")
	ErrNoResults         = errors.New("no results found")
	ErrInvalidSearchTask = errors.New("invalid relevance task")
)
