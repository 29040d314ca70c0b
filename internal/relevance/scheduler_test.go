package relevance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/feichai0017/relevance-finder/pkg/logger"
)

func newTestScheduler(remote Remote, cfg SchedulerConfig) *Scheduler {
	log := logger.NewTestLogger()
	return NewScheduler(NewPageClassifier(remote, NewMemoryCache(), ClassifierConfig{}, log), cfg, log)
}

func TestScanPreservesPageOrderUnderLatency(t *testing.T) {
	remote := newStubRemote(2, 3, 5, 8, 13, 21, 22, 23)
	// later pages answer first
	remote.delay = func(page int) time.Duration {
		return time.Duration(25-page) * time.Millisecond
	}

	s := newTestScheduler(remote, SchedulerConfig{BatchSize: 10, Concurrency: 5})
	res := s.Scan(context.Background(), "q", makePages(25))

	assert.Equal(t, []int{2, 3, 5, 8, 13, 21, 22, 23}, res.Relevant)
	assert.Len(t, res.Pages, 25)
	for i, r := range res.Pages {
		assert.Equal(t, i+1, r.PageNo)
	}
}

func TestScanRespectsConcurrencyCeiling(t *testing.T) {
	remote := newStubRemote()
	remote.delay = func(int) time.Duration { return 5 * time.Millisecond }

	s := newTestScheduler(remote, SchedulerConfig{BatchSize: 10, Concurrency: 3})
	s.Scan(context.Background(), "q", makePages(30))

	assert.LessOrEqual(t, remote.peak.Load(), int32(3))
	assert.EqualValues(t, 30, remote.calls.Load())
}

func TestScanBatchesRunSequentially(t *testing.T) {
	remote := newStubRemote()
	remote.delay = func(page int) time.Duration {
		return time.Duration(page%4) * time.Millisecond
	}

	s := newTestScheduler(remote, SchedulerConfig{BatchSize: 4, Concurrency: 4})
	s.Scan(context.Background(), "q", makePages(12))

	// every page of batch k is dispatched before any page of batch k+1
	remote.mu.Lock()
	defer remote.mu.Unlock()
	for i, p := range remote.order {
		batch := i / 4
		assert.Equal(t, batch, (p-1)/4, "page %d dispatched at position %d", p, i)
	}
}

func TestScanFailedPagesAreExcluded(t *testing.T) {
	remote := newStubRemote(1, 2, 3, 4, 5, 6)
	remote.failing[2] = true
	remote.failing[5] = true

	s := newTestScheduler(remote, SchedulerConfig{BatchSize: 3, Concurrency: 2})
	res := s.Scan(context.Background(), "q", makePages(8))

	assert.Equal(t, []int{1, 3, 4, 6}, res.Relevant)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, Failed, res.Pages[1].Outcome)
	assert.ErrorIs(t, res.Pages[1].Reason, errRemoteDown)
	// failed pages are not retried
	assert.EqualValues(t, 8, remote.calls.Load())
}

func TestScanCountsCacheHits(t *testing.T) {
	remote := newStubRemote(1)
	s := newTestScheduler(remote, SchedulerConfig{})

	pages := makePages(4)
	first := s.Scan(context.Background(), "q", pages)
	second := s.Scan(context.Background(), "q", pages)

	assert.Equal(t, 0, first.CacheHits)
	assert.Equal(t, 4, second.CacheHits)
	assert.Equal(t, first.Relevant, second.Relevant)
	assert.EqualValues(t, 4, remote.calls.Load())
}

func TestScanEmptyDocument(t *testing.T) {
	s := newTestScheduler(newStubRemote(), SchedulerConfig{})
	res := s.Scan(context.Background(), "q", nil)

	assert.NotNil(t, res.Relevant)
	assert.Empty(t, res.Relevant)
	assert.Empty(t, res.Pages)
}
