package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/feichai0017/relevance-finder/config"
	"github.com/feichai0017/relevance-finder/internal/models"
	"github.com/feichai0017/relevance-finder/pkg/logger"
)

var ErrSearchFailed = errors.New("search request failed")

// Engine finds candidate documents for a query.
type Engine interface {
	Search(ctx context.Context, q models.Query, startIndex int) ([]models.Candidate, error)
}

// CSEClient queries the Custom Search JSON API for PDF results.
type CSEClient struct {
	service *customsearch.Service
	cx      string
	timeout time.Duration
	logger  logger.Logger
}

var _ Engine = (*CSEClient)(nil)

// NewCSEClient builds a client for cfg. An empty Endpoint uses the public API.
func NewCSEClient(cfg *config.SearchConfig, log logger.Logger) (*CSEClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.CX) == "" {
		return nil, errors.New("search api key and cx are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := customsearch.NewService(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create search service: %w", err)
	}

	return &CSEClient{
		service: svc,
		cx:      cfg.CX,
		timeout: timeout,
		logger:  log.Named("search"),
	}, nil
}

type pagemap struct {
	Thumbnails []struct {
		Src string `json:"src"`
	} `json:"cse_thumbnail"`
}

// SearchTerms renders the engine query for q.
func SearchTerms(q models.Query) string {
	return strings.TrimSpace(q.Text) + " for Grade " + strings.TrimSpace(q.Grade) + " filetype:pdf"
}

func (c *CSEClient) Search(ctx context.Context, q models.Query, startIndex int) ([]models.Candidate, error) {
	if startIndex < 1 {
		startIndex = 1
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.service.Cse.List().
		Q(SearchTerms(q)).
		Cx(c.cx).
		Start(int64(startIndex)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	candidates := make([]models.Candidate, 0, len(result.Items))
	for _, item := range result.Items {
		if item == nil || item.Link == "" {
			continue
		}
		cand := models.Candidate{
			URL:         item.Link,
			Title:       item.Title,
			Description: item.HtmlTitle,
		}
		if len(item.Pagemap) > 0 {
			var pm pagemap
			if err := json.Unmarshal(item.Pagemap, &pm); err == nil && len(pm.Thumbnails) > 0 {
				cand.ThumbnailURL = pm.Thumbnails[0].Src
			}
		}
		candidates = append(candidates, cand)
	}

	c.logger.Info("Search finished",
		logger.String("query", q.Text),
		logger.String("grade", q.Grade),
		logger.Int("results", len(candidates)),
	)
	return candidates, nil
}
