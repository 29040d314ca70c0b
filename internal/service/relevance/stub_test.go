package relevance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/feichai0017/relevance-finder/internal/models"
	core "github.com/feichai0017/relevance-finder/internal/relevance"
	"github.com/feichai0017/relevance-finder/pkg/logger"
)

const relevantMarker = "relevant topic"

// fakeDoc describes a fake document served by fakeSource.
type fakeDoc struct {
	pages    int
	relevant []int
	fail     bool
}

type fakeSource struct {
	docs     map[string]fakeDoc
	delay    time.Duration
	freshIDs bool
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
}

func newFakeSource(docs map[string]fakeDoc) *fakeSource {
	return &fakeSource{docs: docs}
}

func (s *fakeSource) Fetch(ctx context.Context, c models.Candidate) (*models.Document, error) {
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	fx, ok := s.docs[c.URL]
	if !ok || fx.fail {
		return nil, fmt.Errorf("download %s: connection refused", c.URL)
	}
	id := "doc-" + strings.TrimPrefix(c.URL, "https://")
	if s.freshIDs {
		id = uuid.NewString()
	}
	return &models.Document{
		ID:         id,
		URL:        c.URL,
		Title:      c.Title,
		TotalPages: fx.pages,
		Content:    []byte(c.URL),
	}, nil
}

// fakeLoader renders the pages of a fakeSource document.
type fakeLoader struct {
	docs map[string]fakeDoc
}

func (l *fakeLoader) Pages(_ context.Context, content []byte) ([]models.Page, error) {
	fx, ok := l.docs[string(content)]
	if !ok {
		return nil, errors.New("unreadable document")
	}
	relevant := make(map[int]bool, len(fx.relevant))
	for _, p := range fx.relevant {
		relevant[p] = true
	}
	pages := make([]models.Page, fx.pages)
	for i := range pages {
		text := fmt.Sprintf("%s page %d filler", content, i+1)
		if relevant[i+1] {
			text = fmt.Sprintf("%s page %d %s", content, i+1, relevantMarker)
		}
		pages[i] = models.Page{Number: i + 1, Content: text}
	}
	return pages, nil
}

type keywordRemote struct {
	calls atomic.Int32
}

func (r *keywordRemote) Classify(_ context.Context, _ string, page models.Page) (core.Verdict, error) {
	r.calls.Add(1)
	return core.Verdict{PageNo: page.Number, IsRelevant: strings.Contains(page.Content, relevantMarker)}, nil
}

type memStore struct {
	mu        sync.Mutex
	docs      map[string]*models.Document
	results   map[string]models.PageRanges
	failURLs  map[string]bool
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{
		docs:     make(map[string]*models.Document),
		results:  make(map[string]models.PageRanges),
		failURLs: make(map[string]bool),
	}
}

func (m *memStore) InsertDocument(_ context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	return nil
}

func (m *memStore) InsertResult(_ context.Context, searchResultID, documentID string, ranges models.PageRanges) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc, ok := m.docs[documentID]; ok && m.failURLs[doc.URL] {
		return "", false, errors.New("database is locked")
	}
	key := searchResultID + "/" + documentID
	if _, ok := m.results[key]; ok {
		return key, false, nil
	}
	m.results[key] = ranges
	return key, true, nil
}

func (m *memStore) result(searchResultID, documentID string) (models.PageRanges, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[searchResultID+"/"+documentID]
	return r, ok
}

func newTestPipeline(source DocumentSource, docs map[string]fakeDoc, store ResultStore, cfg PipelineConfig) (*Pipeline, *keywordRemote) {
	remote := &keywordRemote{}
	log := logger.NewNop()
	classifier := core.NewPageClassifier(remote, core.NewMemoryCache(), core.ClassifierConfig{}, log)
	scheduler := core.NewScheduler(classifier, core.SchedulerConfig{}, log)
	gate := core.NewGate(core.DefaultMaxPages)
	p, err := NewPipeline(source, &fakeLoader{docs: docs}, &gate, scheduler, store, cfg, log)
	if err != nil {
		panic(err)
	}
	return p, remote
}

func candidates(urls ...string) []models.Candidate {
	out := make([]models.Candidate, len(urls))
	for i, u := range urls {
		out[i] = models.Candidate{URL: u, Title: "Title " + u}
	}
	return out
}
