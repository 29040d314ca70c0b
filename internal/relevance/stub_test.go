package relevance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/feichai0017/relevance-finder/internal/models"
)

var errRemoteDown = errors.New("remote unavailable")

// stubRemote answers from a fixed relevant set and records call statistics.
type stubRemote struct {
	relevant map[int]bool
	failing  map[int]bool
	delay    func(page int) time.Duration

	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32

	mu    sync.Mutex
	order []int
}

func newStubRemote(relevant ...int) *stubRemote {
	r := &stubRemote{relevant: map[int]bool{}, failing: map[int]bool{}}
	for _, p := range relevant {
		r.relevant[p] = true
	}
	return r
}

func (r *stubRemote) Classify(ctx context.Context, query string, page models.Page) (Verdict, error) {
	r.calls.Add(1)
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}

	r.mu.Lock()
	r.order = append(r.order, page.Number)
	r.mu.Unlock()

	if r.delay != nil {
		time.Sleep(r.delay(page.Number))
	}
	if r.failing[page.Number] {
		return Verdict{}, errRemoteDown
	}
	return Verdict{PageNo: page.Number, IsRelevant: r.relevant[page.Number]}, nil
}

func makePages(n int) []models.Page {
	pages := make([]models.Page, n)
	for i := range pages {
		pages[i] = models.Page{Number: i + 1, Content: fmt.Sprintf("content of page %d", i+1)}
	}
	return pages
}

// errCache fails every operation.
type errCache struct{}

func (errCache) Exists(context.Context, Fingerprint) (bool, error) {
	return false, errors.New("cache down")
}
func (errCache) Get(context.Context, Fingerprint) (bool, bool, error) {
	return false, false, errors.New("cache down")
}
func (errCache) Set(context.Context, Fingerprint, bool) error { return errors.New("cache down") }
