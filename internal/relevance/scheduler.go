package relevance

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/relevance-finder/internal/models"
	"github.com/feichai0017/relevance-finder/pkg/logger"
)

const (
	DefaultBatchSize   = 10
	DefaultConcurrency = 5
)

// SchedulerConfig holds the two independent cost controls of a scan.
type SchedulerConfig struct {
	// BatchSize is how many pages are dispatched before the scheduler waits.
	BatchSize int
	// Concurrency caps in-flight classifier calls for one document.
	Concurrency int
}

// ScanResult is the outcome of classifying every page of one document.
type ScanResult struct {
	// Pages holds one result per input page, in input order.
	Pages []PageResult
	// Relevant is the strictly ascending relevant page set.
	Relevant  []int
	Failed    int
	CacheHits int
}

// Scheduler fans classification out over a document's pages in sequential
// batches with a fixed concurrency ceiling.
type Scheduler struct {
	judge  PageJudge
	cfg    SchedulerConfig
	logger logger.Logger
}

func NewScheduler(judge PageJudge, cfg SchedulerConfig, log logger.Logger) *Scheduler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Scheduler{
		judge:  judge,
		cfg:    cfg,
		logger: log.Named("scheduler"),
	}
}

// Scan classifies pages and returns their verdicts. Batches run one after
// another; every call of a batch completes before the next batch starts.
// Results are stored by input index, so when pages are in ascending order
// (as a loaded document's pages are) Relevant is ascending without a sort.
// A failed page never aborts the scan.
func (s *Scheduler) Scan(ctx context.Context, query string, pages []models.Page) *ScanResult {
	start := time.Now()
	results := make([]PageResult, len(pages))

	for lo := 0; lo < len(pages); lo += s.cfg.BatchSize {
		hi := min(lo+s.cfg.BatchSize, len(pages))

		var g errgroup.Group
		g.SetLimit(s.cfg.Concurrency)
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				results[i] = s.judge.Classify(ctx, query, pages[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	scan := &ScanResult{Pages: results, Relevant: make([]int, 0)}
	for _, r := range results {
		if r.Cached {
			scan.CacheHits++
		}
		switch r.Outcome {
		case Relevant:
			scan.Relevant = append(scan.Relevant, r.PageNo)
		case Failed:
			scan.Failed++
			s.logger.Warn("Page classification failed",
				logger.Int("page", r.PageNo),
				logger.Error(r.Reason),
			)
		}
	}

	s.logger.Info("Scan finished",
		logger.Int("pages", len(pages)),
		logger.Int("relevant", len(scan.Relevant)),
		logger.Int("failed", scan.Failed),
		logger.Int("cacheHits", scan.CacheHits),
		logger.Duration("elapsed", time.Since(start)),
	)
	return scan
}
