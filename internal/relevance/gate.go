package relevance

// DefaultMaxPages is the page ceiling above which a document is not classified.
const DefaultMaxPages = 75

// Gate rejects oversized documents before any classification call is made.
// It is a hard cutoff: a document above the ceiling is never partially
// classified.
type Gate struct {
	MaxPages int
}

// NewGate returns a gate with the given ceiling; a non-positive ceiling
// disables the gate.
func NewGate(maxPages int) Gate {
	return Gate{MaxPages: maxPages}
}

// Admit reports whether a document of totalPages pages may be classified.
// A document exactly at the ceiling is admitted.
func (g Gate) Admit(totalPages int) bool {
	return g.MaxPages <= 0 || totalPages <= g.MaxPages
}
