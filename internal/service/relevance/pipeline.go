package relevance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/feichai0017/relevance-finder/internal/models"
	core "github.com/feichai0017/relevance-finder/internal/relevance"
	"github.com/feichai0017/relevance-finder/pkg/logger"
)

// DocumentSource retrieves a candidate. The returned document carries its raw
// Content and an authoritative TotalPages.
type DocumentSource interface {
	Fetch(ctx context.Context, c models.Candidate) (*models.Document, error)
}

// PageLoader extracts the pages of a retrieved document.
type PageLoader interface {
	Pages(ctx context.Context, content []byte) ([]models.Page, error)
}

// ResultStore is the insert-only persistence used by the pipeline.
type ResultStore interface {
	InsertDocument(ctx context.Context, doc *models.Document) error
	InsertResult(ctx context.Context, searchResultID, documentID string, ranges models.PageRanges) (id string, created bool, err error)
}

// PipelineConfig bounds each stage across the documents of one invocation.
type PipelineConfig struct {
	DownloadConcurrency int
	ClassifyConcurrency int
	PersistConcurrency  int
}

type Pipeline struct {
	source    DocumentSource
	loader    PageLoader
	gate      *core.Gate
	scheduler *core.Scheduler
	store     ResultStore
	cfg       PipelineConfig
	logger    logger.Logger
}

func NewPipeline(
	source DocumentSource,
	loader PageLoader,
	gate *core.Gate,
	scheduler *core.Scheduler,
	store ResultStore,
	cfg PipelineConfig,
	log logger.Logger,
) (*Pipeline, error) {
	if source == nil || loader == nil || scheduler == nil || store == nil {
		return nil, errors.New("pipeline requires a source, a loader, a scheduler and a store")
	}
	if gate == nil {
		g := core.NewGate(core.DefaultMaxPages)
		gate = &g
	}
	if cfg.DownloadConcurrency <= 0 {
		cfg.DownloadConcurrency = 5
	}
	if cfg.ClassifyConcurrency <= 0 {
		cfg.ClassifyConcurrency = 3
	}
	if cfg.PersistConcurrency <= 0 {
		cfg.PersistConcurrency = 5
	}
	return &Pipeline{
		source:    source,
		loader:    loader,
		gate:      gate,
		scheduler: scheduler,
		store:     store,
		cfg:       cfg,
		logger:    log.Named("pipeline"),
	}, nil
}

// ValidateQuery checks that q can be classified and persisted against.
func ValidateQuery(q models.Query) error {
	switch {
	case strings.TrimSpace(q.ID) == "":
		return fmt.Errorf("%w: missing id", ErrInvalidQuery)
	case strings.TrimSpace(q.Text) == "":
		return fmt.Errorf("%w: missing text", ErrInvalidQuery)
	case strings.TrimSpace(q.Grade) == "":
		return fmt.Errorf("%w: missing grade", ErrInvalidQuery)
	}
	return nil
}

// ProgressFunc is told how many documents reached a terminal state.
type ProgressFunc func(done, total int)

func (p *Pipeline) Run(ctx context.Context, q models.Query, candidates []models.Candidate) (*Report, error) {
	return p.RunWithProgress(ctx, q, candidates, nil)
}

// RunWithProgress processes every candidate independently. Only an invalid
// query fails the invocation; document failures are recorded in the report.
func (p *Pipeline) RunWithProgress(ctx context.Context, q models.Query, candidates []models.Candidate, progress ProgressFunc) (*Report, error) {
	if err := ValidateQuery(q); err != nil {
		return nil, err
	}

	start := time.Now()
	log := logger.FromContext(logger.WithSearchResultID(ctx, q.ID), p.logger)
	stages := newStages(p.cfg)

	outcomes := make([]DocumentOutcome, len(candidates))
	var done atomic.Int32
	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = p.runDocument(ctx, log, stages, q, i, c)
			n := done.Add(1)
			if progress != nil {
				progress(int(n), len(candidates))
			}
		}()
	}
	wg.Wait()

	report := newReport(q, outcomes)
	log.Info("Pipeline finished",
		logger.Int("candidates", len(candidates)),
		logger.Int("persisted", report.Count(models.StatePersisted)),
		logger.Int("gated", report.Count(models.StateGated)),
		logger.Int("dropped", report.Count(models.StateDropped)),
		logger.Int("persistFailed", report.Count(models.StatePersistFailed)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

type stages struct {
	download *semaphore.Weighted
	classify *semaphore.Weighted
	persist  *semaphore.Weighted
}

func newStages(cfg PipelineConfig) *stages {
	return &stages{
		download: semaphore.NewWeighted(int64(cfg.DownloadConcurrency)),
		classify: semaphore.NewWeighted(int64(cfg.ClassifyConcurrency)),
		persist:  semaphore.NewWeighted(int64(cfg.PersistConcurrency)),
	}
}

func (p *Pipeline) runDocument(ctx context.Context, log logger.Logger, st *stages, q models.Query, idx int, c models.Candidate) DocumentOutcome {
	out := DocumentOutcome{Index: idx, Candidate: c, State: models.StatePending}
	log = log.With(logger.String("url", c.URL))

	doc, err := p.retrieve(ctx, st, c)
	if err != nil {
		log.Warn("Document retrieval failed", logger.Error(err))
		return out.drop(fmt.Errorf("%w: %v", ErrRetrievalFailed, err))
	}
	doc.Query, doc.Grade = q.Text, q.Grade
	out.Document = doc

	if !p.gate.Admit(doc.TotalPages) {
		doc.Content = nil
		out.State = models.StateGated
		out.Ranges = make(models.PageRanges, 0)
		log.Info("Document skipped by size gate",
			logger.Int("totalPages", doc.TotalPages),
			logger.Int("maxPages", p.gate.MaxPages),
		)
		return out
	}

	out.State = models.StateClassifying
	scan, err := p.classify(ctx, st, q, doc)
	if err != nil {
		log.Warn("Page extraction failed", logger.Error(err))
		return out.drop(fmt.Errorf("%w: %v", ErrRetrievalFailed, err))
	}
	out.Relevant = scan.Relevant
	out.FailedPages = scan.Failed

	ranges, ok := core.Compact(scan.Relevant)
	out.Ranges = ranges
	out.State = models.StateCompacted
	if !ok {
		log.Info("Document has no relevant pages", logger.Int("totalPages", doc.TotalPages))
		return out.drop(ErrNoRelevantPages)
	}

	id, err := p.persist(ctx, st, q, doc, ranges)
	if err != nil {
		log.Error("Failed to persist result", logger.String("documentId", doc.ID), logger.Error(err))
		out.State = models.StatePersistFailed
		out.Err = fmt.Errorf("%w for %s: %v", ErrPersistFailed, c.URL, err)
		return out
	}
	out.State = models.StatePersisted
	out.ResultID = id
	log.Info("Result persisted",
		logger.String("resultId", id),
		logger.Strings("relevance", ranges),
		logger.Int("failedPages", scan.Failed),
	)
	return out
}

func (p *Pipeline) retrieve(ctx context.Context, st *stages, c models.Candidate) (*models.Document, error) {
	if err := st.download.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer st.download.Release(1)
	return p.source.Fetch(ctx, c)
}

func (p *Pipeline) classify(ctx context.Context, st *stages, q models.Query, doc *models.Document) (*core.ScanResult, error) {
	if err := st.classify.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer st.classify.Release(1)

	pages, err := p.loader.Pages(ctx, doc.Content)
	doc.Content = nil
	if err != nil {
		return nil, err
	}
	return p.scheduler.Scan(ctx, q.Prompt(), pages), nil
}

func (p *Pipeline) persist(ctx context.Context, st *stages, q models.Query, doc *models.Document, ranges models.PageRanges) (string, error) {
	if err := st.persist.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer st.persist.Release(1)

	if err := p.store.InsertDocument(ctx, doc); err != nil {
		return "", err
	}
	id, _, err := p.store.InsertResult(ctx, q.ID, doc.ID, ranges)
	return id, err
}
