package config

import (
	"sync"
	"time"
)

var (
	appOnce   sync.Once
	appConfig *AppConfig
)

// AppConfig holds process-level settings shared by the server and the worker.
type AppConfig struct {
	ServerAddr  string
	LogLevel    string
	LogEncoding string
	StorageType string
	// StorageRetention is how long document copies are kept; zero keeps them.
	StorageRetention       time.Duration
	StorageCleanupInterval time.Duration
	WorkerConcurrency      int
	ShutdownTimeout        time.Duration
}

func GetAppConfig() *AppConfig {
	appOnce.Do(func() {
		loadEnv()
		appConfig = &AppConfig{
			ServerAddr:             getEnv("SERVER_ADDR", ":8080"),
			LogLevel:               getEnv("LOG_LEVEL", "info"),
			LogEncoding:            getEnv("LOG_ENCODING", "json"),
			StorageType:            getEnv("STORAGE_TYPE", "s3"),
			StorageRetention:       getEnvDuration("STORAGE_RETENTION", 0),
			StorageCleanupInterval: getEnvDuration("STORAGE_CLEANUP_INTERVAL", 24*time.Hour),
			WorkerConcurrency:      getEnvInt("WORKER_CONCURRENCY", 10),
			ShutdownTimeout:        getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		}
	})
	return appConfig
}
