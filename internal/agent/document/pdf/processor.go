package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/relevance-finder/internal/agent/document"
	"github.com/feichai0017/relevance-finder/internal/models"
	"github.com/feichai0017/relevance-finder/pkg/logger"
)

const defaultWorkers = 4

type Processor struct {
	workers int
	logger  logger.Logger
}

var _ document.Loader = (*Processor)(nil)

func NewProcessor(workers int, log logger.Logger) *Processor {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Processor{
		workers: workers,
		logger:  log.Named("pdf"),
	}
}

func (p *Processor) CanLoad(mimeType string) bool {
	return mimeType == "application/pdf"
}

func open(content []byte) (*pdf.Reader, error) {
	reader := bytes.NewReader(content)
	r, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	return r, nil
}

// Inspect reads the page count and the title from the Info dictionary.
func (p *Processor) Inspect(ctx context.Context, content []byte) (document.Info, error) {
	r, err := open(content)
	if err != nil {
		return document.Info{}, err
	}

	info := document.Info{
		TotalPages: r.NumPage(),
		Size:       int64(len(content)),
	}

	trailer := r.Trailer()
	if !trailer.IsNull() {
		meta := trailer.Key("Info")
		if !meta.IsNull() {
			if title := meta.Key("Title"); !title.IsNull() {
				info.Title = title.Text()
			}
		}
	}
	return info, nil
}

// Pages extracts every page, numbered from 1 and returned in page order. A
// page whose text cannot be extracted is kept with empty content so that page
// numbering stays aligned with the source.
func (p *Processor) Pages(ctx context.Context, content []byte) ([]models.Page, error) {
	r, err := open(content)
	if err != nil {
		return nil, err
	}

	numPages := r.NumPage()
	pages := make([]models.Page, numPages)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := 1; i <= numPages; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pages[i-1] = models.Page{Number: i, Content: p.pageText(r, i)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func (p *Processor) pageText(r *pdf.Reader, num int) string {
	page := r.Page(num)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		p.logger.Warn("Failed to extract page text", logger.Int("page", num), logger.Error(err))
		return ""
	}
	return cleanText(text)
}

func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
