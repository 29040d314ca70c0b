package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/feichai0017/relevance-finder/internal/agent/document"
	"github.com/feichai0017/relevance-finder/internal/models"
	"github.com/feichai0017/relevance-finder/pkg/logger"
	"github.com/feichai0017/relevance-finder/pkg/storage"
)

var (
	ErrNotPDF       = errors.New("document is not a pdf")
	ErrTooLarge     = errors.New("document exceeds size limit")
	ErrUnsupported  = errors.New("unsupported document url")
	ErrUnreachable  = errors.New("document could not be downloaded")
	defaultMaxBytes = int64(50 << 20)
)

type Config struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
}

// Fetcher downloads candidate documents, reads their page count and keeps a
// copy in object storage.
type Fetcher struct {
	client  *http.Client
	loader  document.Loader
	storage storage.Storage
	cfg     Config
	logger  logger.Logger
}

// NewFetcher builds a Fetcher. store may be nil, in which case documents are
// not copied and StorageURL stays empty.
func NewFetcher(loader document.Loader, store storage.Storage, cfg Config, log logger.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "relevance-finder/1.0"
	}
	return &Fetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		loader:  loader,
		storage: store,
		cfg:     cfg,
		logger:  log.Named("fetcher"),
	}
}

// Fetch retrieves c and returns a document whose TotalPages is known and
// whose Content holds the raw bytes for later page extraction.
func (f *Fetcher) Fetch(ctx context.Context, c models.Candidate) (*models.Document, error) {
	content, err := f.download(ctx, c.URL)
	if err != nil {
		return nil, err
	}

	info, err := f.loader.Inspect(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect document: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate document id: %w", err)
	}

	doc := &models.Document{
		ID:           id.String(),
		URL:          c.URL,
		Title:        c.Title,
		Description:  c.Description,
		ThumbnailURL: c.ThumbnailURL,
		TotalPages:   info.TotalPages,
		CreatedAt:    time.Now().UTC(),
		Content:      content,
	}
	if doc.Title == "" {
		doc.Title = info.Title
	}

	if f.storage != nil {
		storageURL, err := f.storage.Store(ctx, storage.DocumentKey(c.URL), content, "application/pdf")
		if err != nil {
			return nil, fmt.Errorf("failed to store document copy: %w", err)
		}
		doc.StorageURL = storageURL
	}

	f.logger.Debug("Document fetched",
		logger.String("url", c.URL),
		logger.Int("pages", doc.TotalPages),
		logger.Int64("bytes", info.Size),
	)
	return doc, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}
	if resp.ContentLength > f.cfg.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if int64(len(content)) > f.cfg.MaxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.cfg.MaxBytes)
	}

	if http.DetectContentType(content) != "application/pdf" {
		return nil, fmt.Errorf("%w: served as %q", ErrNotPDF, resp.Header.Get("Content-Type"))
	}
	return content, nil
}
