package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/relevance-finder/pkg/logger"
	"github.com/feichai0017/relevance-finder/pkg/queue"
)

// TaskHandler runs one relevance task to completion and sweeps expired
// document copies.
type TaskHandler interface {
	HandleRelevanceTask(ctx context.Context, task *queue.Task) error
	CleanupStorage(ctx context.Context) error
}

type RelevanceWorker struct {
	BaseWorker
	handler TaskHandler
}

func NewRelevanceWorker(cfg *Config, handler TaskHandler, log logger.Logger) (*RelevanceWorker, error) {
	if handler == nil {
		return nil, fmt.Errorf("relevance worker requires a task handler")
	}
	queues := cfg.Queues
	if len(queues) == 0 {
		queues = DefaultQueues()
	}

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      queues,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n) * time.Minute
			},
		},
	)

	w := &RelevanceWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log.Named("worker"),
			stopChan: make(chan struct{}),
		},
		handler: handler,
	}
	w.mux.HandleFunc(queue.TaskTypeRelevanceCompute, w.handleRelevance)
	w.mux.HandleFunc(queue.TaskTypeStorageCleanup, w.handleCleanup)
	return w, nil
}

func (w *RelevanceWorker) handleRelevance(ctx context.Context, t *asynq.Task) error {
	var task queue.Task
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("Failed to unmarshal task",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal task: %v: %w", err, asynq.SkipRetry)
	}

	log := w.logger.With(logger.String("taskId", task.ID))
	log.Info("Processing relevance task", logger.Any("payload", task.Payload))

	writeResult(t, `{"status":"running","progress":0}`)

	start := time.Now()
	if err := w.handler.HandleRelevanceTask(ctx, &task); err != nil {
		log.Error("Relevance task failed", logger.Error(err), logger.Duration("elapsed", time.Since(start)))
		writeResult(t, fmt.Sprintf(`{"status":"failed","error":%q}`, err.Error()))
		return err
	}

	writeResult(t, `{"status":"completed","progress":1}`)
	log.Info("Relevance task done", logger.Duration("elapsed", time.Since(start)))
	return nil
}

func (w *RelevanceWorker) handleCleanup(ctx context.Context, _ *asynq.Task) error {
	start := time.Now()
	if err := w.handler.CleanupStorage(ctx); err != nil {
		w.logger.Error("Storage cleanup failed", logger.Error(err))
		return err
	}
	w.logger.Info("Storage cleanup done", logger.Duration("elapsed", time.Since(start)))
	return nil
}

// writeResult is a no-op for tasks not delivered by an asynq server.
func writeResult(t *asynq.Task, result string) {
	if rw := t.ResultWriter(); rw != nil {
		_, _ = rw.Write([]byte(result))
	}
}

func (w *RelevanceWorker) Start(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start worker server: %w", err)
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = w.Stop()
		case <-w.stopChan:
		}
	}()

	return nil
}
