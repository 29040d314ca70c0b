package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PageRanges is a compacted relevant-page set: tokens are either a single
// page ("7") or a closed run ("2-4"). A nil value means "not computed yet";
// a non-nil empty value means "computed, nothing relevant".
type PageRanges []string

// Computed reports whether the ranges were produced by a compaction.
func (r PageRanges) Computed() bool {
	return r != nil
}

// Value stores the ranges as a JSON array of tokens.
func (r PageRanges) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a JSON array of tokens.
func (r *PageRanges) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	case nil:
		*r = nil
		return nil
	default:
		return fmt.Errorf("unsupported relevance column type %T", src)
	}
	tokens := make([]string, 0)
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return fmt.Errorf("failed to decode relevance: %w", err)
	}
	*r = PageRanges(tokens)
	return nil
}

// ParsedResult is the persisted outcome for one (document, query) pair.
// Rows are written once and never updated.
type ParsedResult struct {
	ID             string     `json:"id" db:"id"`
	SearchResultID string     `json:"searchResultId" db:"search_result_id"`
	DocumentID     string     `json:"pdfStoreId" db:"pdf_store_id"`
	Relevance      PageRanges `json:"relevance" db:"relevance"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
}

// ResultWithDocument joins a persisted result with its document metadata.
type ResultWithDocument struct {
	ParsedResult
	Document Document `db:"doc"`
}

// SearchResult is a stored search-engine response for one (query, grade).
type SearchResult struct {
	ID        string      `json:"id" db:"id"`
	Query     string      `json:"query" db:"query"`
	Grade     string      `json:"grade" db:"grade"`
	Results   []Candidate `json:"results" db:"-"`
	RawResult string      `json:"-" db:"results"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
}

// AsQuery returns the query this search result was issued for.
func (s SearchResult) AsQuery() Query {
	return Query{ID: s.ID, Text: s.Query, Grade: s.Grade}
}
