package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Query is a user's information need. Immutable once created.
type Query struct {
	ID    string `json:"id"`
	Text  string `json:"query"`
	Grade string `json:"grade"`
}

// Prompt renders the query text handed to the page classifier.
func (q Query) Prompt() string {
	return strings.TrimSpace(q.Text) + " For Grade " + strings.TrimSpace(q.Grade)
}

// Page is one 1-indexed page of a document.
type Page struct {
	Number  int    `json:"pageNo"`
	Content string `json:"content"`
}

// Candidate is a search hit that still has to be retrieved.
type Candidate struct {
	URL          string `json:"link"`
	Title        string `json:"title"`
	Description  string `json:"htmlTitle"`
	ThumbnailURL string `json:"thumbnail,omitempty"`
}

// Document is a retrieved source artifact. TotalPages is authoritative once
// the document has been loaded.
type Document struct {
	ID           string    `json:"id" db:"id"`
	Key          string    `json:"-" db:"document_key"`
	Query        string    `json:"query" db:"query"`
	Grade        string    `json:"grade" db:"grade"`
	URL          string    `json:"pdfUrl" db:"pdf_url"`
	StorageURL   string    `json:"s3Url" db:"s3_url"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	ThumbnailURL string    `json:"thumbnailUrl" db:"thumbnail_url"`
	TotalPages   int       `json:"totalPages" db:"total_pages"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`

	// Content holds the raw bytes between retrieval and page extraction.
	Content []byte `json:"-" db:"-"`
}

// IdentityKey names the document a source URL yields for one (query, grade),
// so retrieving the same source again resolves to the same stored document.
func (d *Document) IdentityKey() string {
	sum := sha256.Sum256([]byte(d.URL + "\x00" + d.Query + "\x00" + d.Grade))
	return hex.EncodeToString(sum[:])
}

// DocumentState tracks one document through the relevance pipeline.
type DocumentState string

const (
	StatePending       DocumentState = "pending"
	StateGated         DocumentState = "gated"
	StateClassifying   DocumentState = "classifying"
	StateCompacted     DocumentState = "compacted"
	StatePersisted     DocumentState = "persisted"
	StatePersistFailed DocumentState = "persist_failed"
	StateDropped       DocumentState = "dropped"
)
