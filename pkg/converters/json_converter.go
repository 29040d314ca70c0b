package converters

import (
	"github.com/feichai0017/relevance-finder/internal/models"
	"github.com/feichai0017/relevance-finder/internal/relevance"
)

// SearchResultItem is the client-facing shape of one document result.
type SearchResultItem struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Image         string            `json:"image"`
	TotalPages    int               `json:"totalPages"`
	RelevantPages models.PageRanges `json:"relevantPages"`
	RelevantCount int               `json:"relevantPageCount,omitempty"`
	PDFURL        string            `json:"pdfUrl"`
	StorageURL    string            `json:"s3Url,omitempty"`
}

// ResultConverter renders stored results and fresh documents for clients.
type ResultConverter interface {
	FromResults(results []models.ResultWithDocument) []SearchResultItem
	FromDocuments(docs []*models.Document) []SearchResultItem
}

type JSONConverter struct{}

func NewJSONConverter() *JSONConverter {
	return &JSONConverter{}
}

func (c *JSONConverter) FromResults(results []models.ResultWithDocument) []SearchResultItem {
	items := make([]SearchResultItem, 0, len(results))
	for _, r := range results {
		relevant := r.Relevance
		if relevant == nil {
			relevant = make(models.PageRanges, 0)
		}
		items = append(items, SearchResultItem{
			ID:            r.ID,
			Title:         r.Document.Title,
			Description:   r.Document.Description,
			Image:         r.Document.ThumbnailURL,
			TotalPages:    r.Document.TotalPages,
			RelevantPages: relevant,
			RelevantCount: relevantCount(relevant),
			PDFURL:        r.Document.URL,
			StorageURL:    r.Document.StorageURL,
		})
	}
	return items
}

// relevantCount is the number of pages ranges covers, or 0 when the stored
// ranges do not decode.
func relevantCount(ranges models.PageRanges) int {
	pages, err := relevance.Expand(ranges)
	if err != nil {
		return 0
	}
	return len(pages)
}

// FromDocuments renders documents whose relevance is not computed yet; their
// RelevantPages is null.
func (c *JSONConverter) FromDocuments(docs []*models.Document) []SearchResultItem {
	items := make([]SearchResultItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, SearchResultItem{
			ID:          d.ID,
			Title:       d.Title,
			Description: d.Description,
			Image:       d.ThumbnailURL,
			TotalPages:  d.TotalPages,
			PDFURL:      d.URL,
			StorageURL:  d.StorageURL,
		})
	}
	return items
}
