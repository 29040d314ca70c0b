package document

import (
	"context"

	"github.com/feichai0017/relevance-finder/internal/models"
)

// Info is what can be learned about a document without extracting text.
type Info struct {
	TotalPages int
	Title      string
	Size       int64
}

// Loader turns raw document bytes into pages. Inspect is cheap and is used
// for the page-count gate; Pages extracts the text of every page.
type Loader interface {
	CanLoad(mimeType string) bool
	Inspect(ctx context.Context, content []byte) (Info, error)
	Pages(ctx context.Context, content []byte) ([]models.Page, error)
}
