package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/feichai0017/relevance-finder/config"
	"github.com/feichai0017/relevance-finder/internal/service/relevance"
	"github.com/feichai0017/relevance-finder/pkg/logger"
	"github.com/feichai0017/relevance-finder/pkg/worker"
)

func main() {
	appCfg := config.GetAppConfig()
	redisCfg := config.GetRedisConfig()

	log, err := logger.NewLogger(
		logger.WithLevel(appCfg.LogLevel),
		logger.WithEncoding(appCfg.LogEncoding),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	svc, closeService, err := relevance.GetService(log)
	if err != nil {
		log.Error("Failed to create relevance service", logger.Error(err))
		os.Exit(1)
	}
	defer closeService()

	workerCfg := &worker.Config{
		RedisAddr:     redisCfg.Addr,
		RedisPassword: redisCfg.Password,
		RedisDB:       redisCfg.DB,
		Concurrency:   appCfg.WorkerConcurrency,
		Queues:        worker.DefaultQueues(),
	}
	relevanceWorker, err := worker.NewRelevanceWorker(workerCfg, svc, log)
	if err != nil {
		log.Error("Failed to create relevance worker", logger.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := relevanceWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Worker started", logger.Int("concurrency", appCfg.WorkerConcurrency))

	if appCfg.StorageRetention > 0 {
		cleanup, err := worker.NewCleanupScheduler(workerCfg, appCfg.StorageCleanupInterval, log)
		if err != nil {
			log.Error("Failed to create cleanup scheduler", logger.Error(err))
			os.Exit(1)
		}
		if err := cleanup.Start(ctx); err != nil {
			log.Error("Failed to start cleanup scheduler", logger.Error(err))
			os.Exit(1)
		}
		defer cleanup.Stop()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	relevanceWorker.Stop()
	log.Info("Worker stopped")
}
