package relevance

import "errors"

var (
	// ErrMalformedVerdict is returned when a classifier answer is not exactly
	// {"page_no": <integer>, "is_relevant": <boolean>}.
	ErrMalformedVerdict = errors.New("malformed classifier verdict")
	// ErrInvalidRange is returned by Expand for tokens that are not a page or
	// an ascending closed run, or that break ascending order.
	ErrInvalidRange = errors.New("invalid page range")
)
