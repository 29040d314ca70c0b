package relevance

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/feichai0017/relevance-finder/config"
	"github.com/feichai0017/relevance-finder/internal/agent"
	"github.com/feichai0017/relevance-finder/internal/agent/fetcher"
	"github.com/feichai0017/relevance-finder/internal/agent/llm"
	"github.com/feichai0017/relevance-finder/internal/agent/search"
	core "github.com/feichai0017/relevance-finder/internal/relevance"
	"github.com/feichai0017/relevance-finder/internal/repository"
	"github.com/feichai0017/relevance-finder/pkg/cache"
	"github.com/feichai0017/relevance-finder/pkg/logger"
	"github.com/feichai0017/relevance-finder/pkg/queue"
	"github.com/feichai0017/relevance-finder/pkg/storage"
)

// GetService builds the service and everything behind it from the process
// configuration. The returned close function releases the database, queue
// and cache connections.
func GetService(log logger.Logger) (*Service, func() error, error) {
	appCfg := config.GetAppConfig()
	pipeCfg := config.GetPipelineConfig()
	redisCfg := config.GetRedisConfig()
	dbCfg := config.GetDatabaseConfig()

	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*Service, func() error, error) {
		_ = closeAll()
		return nil, nil, err
	}

	store, err := storage.NewStorage(storage.StorageType(appCfg.StorageType), log)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize storage: %w", err))
	}

	loaders := agent.NewLoaderFactory(pipeCfg.ExtractWorkers, log)
	source := fetcher.NewFetcher(loaders, store, fetcher.Config{
		Timeout:  pipeCfg.FetchTimeout,
		MaxBytes: pipeCfg.MaxDocumentBytes,
	}, log)

	remote, err := llm.NewRemote(config.GetLLMConfig())
	if err != nil {
		return fail(fmt.Errorf("failed to initialize classifier: %w", err))
	}

	cacheClient := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	closers = append(closers, cacheClient.Close)
	if err := cacheClient.Ping(context.Background()).Err(); err != nil {
		return fail(fmt.Errorf("failed to connect to redis: %w", err))
	}
	verdicts := cache.NewRedisCache(cacheClient, redisCfg.CacheNamespace, redisCfg.CacheTTL)

	classifier := core.NewPageClassifier(remote, verdicts, core.ClassifierConfig{
		FingerprintPrefix: pipeCfg.FingerprintPrefix,
		MaxPageChars:      pipeCfg.MaxPageChars,
		RequestsPerMinute: pipeCfg.RequestsPerMinute,
	}, log)
	scheduler := core.NewScheduler(classifier, core.SchedulerConfig{
		BatchSize:   pipeCfg.BatchSize,
		Concurrency: pipeCfg.PageConcurrency,
	}, log)
	gate := core.NewGate(pipeCfg.MaxPages)

	db, err := repository.NewSQLStore(dbCfg.Driver, dbCfg.DSN, log)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize database: %w", err))
	}
	closers = append(closers, db.Close)

	pipeline, err := NewPipeline(source, loaders, &gate, scheduler, db, PipelineConfig{
		DownloadConcurrency: pipeCfg.DownloadConcurrency,
		ClassifyConcurrency: pipeCfg.ClassifyConcurrency,
		PersistConcurrency:  pipeCfg.PersistConcurrency,
	}, log)
	if err != nil {
		return fail(err)
	}

	engine, err := search.NewCSEClient(config.GetSearchConfig(), log)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize search engine: %w", err))
	}

	q, err := queue.NewAsynqQueue(&queue.QueueConfig{
		RedisAddr:     redisCfg.Addr,
		RedisPassword: redisCfg.Password,
		RedisDB:       redisCfg.DB,
		MaxRetries:    0,
	})
	if err != nil {
		return fail(fmt.Errorf("failed to initialize queue: %w", err))
	}
	closers = append(closers, q.Close)

	svc := NewService(engine, db, source, store, pipeline, q, ServiceConfig{
		DownloadConcurrency: pipeCfg.DownloadConcurrency,
		QueuePriority:       2,
		RetentionPeriod:     appCfg.StorageRetention,
	}, log)
	return svc, closeAll, nil
}
