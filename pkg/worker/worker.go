package worker

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/relevance-finder/pkg/logger"
)

type Worker interface {
	Start(ctx context.Context) error
	Stop() error
}

type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
	Queues        map[string]int
}

// DefaultQueues mirrors the priorities used when tasks are enqueued.
func DefaultQueues() map[string]int {
	return map[string]int{"critical": 6, "default": 3, "low": 1}
}

type BaseWorker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	logger   logger.Logger
	stopChan chan struct{}
}

func (w *BaseWorker) Stop() error {
	select {
	case <-w.stopChan:
		return nil
	default:
	}
	close(w.stopChan)
	w.server.Shutdown()
	return nil
}
