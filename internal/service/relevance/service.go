package relevance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/relevance-finder/internal/agent/search"
	"github.com/feichai0017/relevance-finder/internal/models"
	"github.com/feichai0017/relevance-finder/internal/repository"
	"github.com/feichai0017/relevance-finder/pkg/converters"
	"github.com/feichai0017/relevance-finder/pkg/logger"
	"github.com/feichai0017/relevance-finder/pkg/queue"
	"github.com/feichai0017/relevance-finder/pkg/storage"
)

// Store is everything the service reads and writes.
type Store interface {
	ResultStore
	CreateSearchResult(ctx context.Context, sr *models.SearchResult) error
	FindSearchResult(ctx context.Context, query, grade string) (*models.SearchResult, error)
	GetSearchResult(ctx context.Context, id string) (*models.SearchResult, error)
	ListResults(ctx context.Context, searchResultID string) ([]models.ResultWithDocument, error)
	SearchHistory(ctx context.Context, query, grade string, limit int) ([]models.SearchResult, error)
	Ping(ctx context.Context) error
}

type RelevanceService interface {
	Search(ctx context.Context, query, grade string, startIndex int) (*models.SearchResult, error)
	BasicResults(ctx context.Context, searchResultID string) ([]converters.SearchResultItem, error)
	EnqueueRelevance(ctx context.Context, searchResultID string) (*models.RelevanceTask, error)
	HandleRelevanceTask(ctx context.Context, task *queue.Task) error
	GetTaskStatus(ctx context.Context, taskID string) (*models.RelevanceTask, error)
	CancelTask(ctx context.Context, taskID string) error
	Results(ctx context.Context, searchResultID string) ([]converters.SearchResultItem, error)
	History(ctx context.Context, query, grade string) ([]models.SearchResult, error)
}

type ServiceConfig struct {
	DownloadConcurrency int
	QueuePriority       int
	HistoryLimit        int
	// RetentionPeriod is how long document copies are kept. Zero keeps them.
	RetentionPeriod time.Duration
}

type Service struct {
	engine    search.Engine
	store     Store
	source    DocumentSource
	objects   storage.Storage
	pipeline  *Pipeline
	queue     queue.Queue
	converter converters.ResultConverter
	config    ServiceConfig
	logger    logger.Logger
}

var _ RelevanceService = (*Service)(nil)

func NewService(
	engine search.Engine,
	store Store,
	source DocumentSource,
	objects storage.Storage,
	pipeline *Pipeline,
	q queue.Queue,
	cfg ServiceConfig,
	log logger.Logger,
) *Service {
	if cfg.DownloadConcurrency <= 0 {
		cfg.DownloadConcurrency = 5
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	return &Service{
		engine:    engine,
		store:     store,
		source:    source,
		objects:   objects,
		pipeline:  pipeline,
		queue:     q,
		converter: converters.NewJSONConverter(),
		config:    cfg,
		logger:    log.Named("service"),
	}
}

// Search returns the stored search for (query, grade), querying the engine
// only the first time.
func (s *Service) Search(ctx context.Context, query, grade string, startIndex int) (*models.SearchResult, error) {
	query, grade = strings.TrimSpace(query), strings.TrimSpace(grade)
	if query == "" || grade == "" {
		return nil, fmt.Errorf("%w: missing query or grade", ErrInvalidQuery)
	}

	existing, err := s.store.FindSearchResult(ctx, query, grade)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up search: %w", err)
	}

	candidates, err := s.engine.Search(ctx, models.Query{Text: query, Grade: grade}, startIndex)
	if err != nil {
		s.logger.Error("Search failed", logger.String("query", query), logger.Error(err))
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoResults
	}

	sr := &models.SearchResult{Query: query, Grade: grade, Results: candidates}
	if err := s.store.CreateSearchResult(ctx, sr); err != nil {
		return nil, fmt.Errorf("failed to store search result: %w", err)
	}
	return sr, nil
}

func (s *Service) getSearchResult(ctx context.Context, id string) (*models.SearchResult, error) {
	sr, err := s.store.GetSearchResult(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSearchNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get search result: %w", err)
	}
	return sr, nil
}

// BasicResults downloads the hits of a search and registers them as
// documents without classifying them. Hits that fail to download or to be
// stored are left out.
func (s *Service) BasicResults(ctx context.Context, searchResultID string) ([]converters.SearchResultItem, error) {
	sr, err := s.getSearchResult(ctx, searchResultID)
	if err != nil {
		return nil, err
	}

	docs := make([]*models.Document, len(sr.Results))
	var g errgroup.Group
	g.SetLimit(s.config.DownloadConcurrency)
	for i, c := range sr.Results {
		g.Go(func() error {
			doc, err := s.source.Fetch(ctx, c)
			if err != nil {
				s.logger.Warn("Document retrieval failed", logger.String("url", c.URL), logger.Error(err))
				return nil
			}
			doc.Content = nil
			doc.Query, doc.Grade = sr.Query, sr.Grade
			if err := s.store.InsertDocument(ctx, doc); err != nil {
				s.logger.Error("Failed to store document", logger.String("url", c.URL), logger.Error(err))
				return nil
			}
			docs[i] = doc
			return nil
		})
	}
	_ = g.Wait()

	stored := make([]*models.Document, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			stored = append(stored, d)
		}
	}
	return s.converter.FromDocuments(stored), nil
}

// EnqueueRelevance schedules relevance discovery for a stored search.
func (s *Service) EnqueueRelevance(ctx context.Context, searchResultID string) (*models.RelevanceTask, error) {
	if _, err := s.getSearchResult(ctx, searchResultID); err != nil {
		return nil, err
	}

	now := time.Now()
	task := &models.RelevanceTask{
		ID:             uuid.New().String(),
		SearchResultID: searchResultID,
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	queueTask := &queue.Task{
		ID:        task.ID,
		Type:      queue.TaskTypeRelevanceCompute,
		Priority:  s.config.QueuePriority,
		Payload:   map[string]interface{}{"searchResultId": searchResultID},
		Metadata:  map[string]string{"searchResultId": searchResultID},
		CreatedAt: now,
	}
	if err := s.queue.Enqueue(ctx, queueTask); err != nil {
		s.logger.Error("Failed to enqueue task", logger.String("taskId", task.ID), logger.Error(err))
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}
	task.ID = queueTask.ID

	s.saveStatus(ctx, &queue.TaskStatus{
		TaskID:    task.ID,
		Status:    queue.StatusPending,
		StartedAt: now,
	})

	s.logger.Info("Relevance task created",
		logger.String("taskId", task.ID),
		logger.String("searchResultId", searchResultID),
	)
	return task, nil
}

// HandleRelevanceTask runs the pipeline for the search named in task and
// records progress as documents finish.
func (s *Service) HandleRelevanceTask(ctx context.Context, task *queue.Task) error {
	searchResultID := task.PayloadString("searchResultId")
	if task.ID == "" || searchResultID == "" {
		return fmt.Errorf("%w: missing task id or search result id", ErrInvalidSearchTask)
	}

	started := time.Now()
	s.saveStatus(ctx, &queue.TaskStatus{TaskID: task.ID, Status: queue.StatusRunning, StartedAt: started})

	// documents finish on their own goroutines; only forward progress is saved
	var mu sync.Mutex
	reported := 0
	report, err := s.ComputeRelevance(ctx, searchResultID, func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if done <= reported {
			return
		}
		reported = done
		s.saveStatus(ctx, &queue.TaskStatus{
			TaskID:    task.ID,
			Status:    queue.StatusRunning,
			Progress:  float64(done) / float64(total),
			StartedAt: started,
		})
	})
	if err != nil {
		s.saveStatus(ctx, &queue.TaskStatus{
			TaskID:     task.ID,
			Status:     queue.StatusFailed,
			Error:      err.Error(),
			StartedAt:  started,
			FinishedAt: time.Now(),
		})
		return err
	}

	final := &queue.TaskStatus{
		TaskID:     task.ID,
		Status:     queue.StatusCompleted,
		Progress:   1.0,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if len(report.Errors) > 0 {
		final.Error = errors.Join(report.Errors...).Error()
	}
	s.saveStatus(ctx, final)

	s.logger.Info("Relevance task completed",
		logger.String("taskId", task.ID),
		logger.Int("results", len(report.Results())),
		logger.Int("persistFailures", len(report.Errors)),
	)
	return nil
}

// ComputeRelevance runs the pipeline over every hit of a stored search.
func (s *Service) ComputeRelevance(ctx context.Context, searchResultID string, progress ProgressFunc) (*Report, error) {
	sr, err := s.getSearchResult(ctx, searchResultID)
	if err != nil {
		return nil, err
	}
	return s.pipeline.RunWithProgress(ctx, sr.AsQuery(), sr.Results, progress)
}

func (s *Service) saveStatus(ctx context.Context, status *queue.TaskStatus) {
	if err := s.queue.SaveStatus(ctx, status); err != nil {
		s.logger.Error("Failed to save task status",
			logger.String("taskId", status.TaskID),
			logger.Error(err),
		)
	}
}

func (s *Service) GetTaskStatus(ctx context.Context, taskID string) (*models.RelevanceTask, error) {
	status, err := s.queue.GetTaskStatus(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task status: %w", err)
	}

	var taskStatus models.ProcessingStatus
	switch status.Status {
	case queue.StatusRunning:
		taskStatus = models.StatusRunning
	case queue.StatusCompleted:
		taskStatus = models.StatusCompleted
	case queue.StatusFailed, queue.StatusCancelled:
		taskStatus = models.StatusFailed
	default:
		taskStatus = models.StatusPending
	}

	return &models.RelevanceTask{
		ID:        status.TaskID,
		Status:    taskStatus,
		Progress:  status.Progress,
		Error:     status.Error,
		CreatedAt: status.StartedAt,
		UpdatedAt: status.FinishedAt,
	}, nil
}

// CancelTask marks a queued task as cancelled. Documents already persisted by
// a running task stay persisted.
func (s *Service) CancelTask(ctx context.Context, taskID string) error {
	if err := s.queue.CancelTask(ctx, taskID); err != nil {
		return fmt.Errorf("failed to cancel task: %w", err)
	}
	s.logger.Info("Relevance task cancelled", logger.String("taskId", taskID))
	return nil
}

// Results returns the persisted relevance results of a search.
func (s *Service) Results(ctx context.Context, searchResultID string) ([]converters.SearchResultItem, error) {
	results, err := s.store.ListResults(ctx, searchResultID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return s.converter.FromResults(results), nil
}

// CleanupStorage removes document copies older than the retention period.
// It does nothing when retention is disabled or no object storage is set.
func (s *Service) CleanupStorage(ctx context.Context) error {
	if s.objects == nil || s.config.RetentionPeriod <= 0 {
		return nil
	}
	threshold := time.Now().Add(-s.config.RetentionPeriod)
	if err := s.objects.CleanupBefore(ctx, threshold); err != nil {
		return fmt.Errorf("failed to cleanup storage: %w", err)
	}

	s.logger.Info("Completed storage cleanup", logger.Time("threshold", threshold))
	return nil
}

// Ping checks the database.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) History(ctx context.Context, query, grade string) ([]models.SearchResult, error) {
	query, grade = strings.TrimSpace(query), strings.TrimSpace(grade)
	if query == "" || grade == "" {
		return nil, fmt.Errorf("%w: missing query or grade", ErrInvalidQuery)
	}
	return s.store.SearchHistory(ctx, query, grade, s.config.HistoryLimit)
}
