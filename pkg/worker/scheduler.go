package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/relevance-finder/pkg/logger"
	"github.com/feichai0017/relevance-finder/pkg/queue"
)

// CleanupScheduler enqueues a storage cleanup task on a fixed interval.
type CleanupScheduler struct {
	scheduler *asynq.Scheduler
	interval  time.Duration
	logger    logger.Logger
	stopChan  chan struct{}
}

func NewCleanupScheduler(cfg *Config, interval time.Duration, log logger.Logger) (*CleanupScheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("cleanup interval must be positive, got %s", interval)
	}
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		&asynq.SchedulerOpts{Location: time.UTC},
	)
	return &CleanupScheduler{
		scheduler: scheduler,
		interval:  interval,
		logger:    log.Named("scheduler"),
		stopChan:  make(chan struct{}),
	}, nil
}

// CronSpec is the schedule the cleanup task is registered with.
func (s *CleanupScheduler) CronSpec() string {
	return "@every " + s.interval.String()
}

func (s *CleanupScheduler) Start(ctx context.Context) error {
	entryID, err := s.scheduler.Register(s.CronSpec(),
		asynq.NewTask(queue.TaskTypeStorageCleanup, nil),
		asynq.Queue("low"),
		asynq.MaxRetry(0),
	)
	if err != nil {
		return fmt.Errorf("failed to register cleanup task: %w", err)
	}
	if err := s.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	s.logger.Info("Storage cleanup scheduled",
		logger.String("entryId", entryID),
		logger.Duration("interval", s.interval),
	)

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Stop()
		case <-s.stopChan:
		}
	}()
	return nil
}

func (s *CleanupScheduler) Stop() error {
	select {
	case <-s.stopChan:
		return nil
	default:
	}
	close(s.stopChan)
	s.scheduler.Shutdown()
	return nil
}
