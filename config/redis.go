package config

import (
	"sync"
	"time"
)

var (
	redisOnce   sync.Once
	redisConfig *RedisConfig
)

// RedisConfig is shared by the verdict cache and the job queue.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// CacheNamespace prefixes verdict keys.
	CacheNamespace string
	// CacheTTL expires verdicts; 0 keeps them forever.
	CacheTTL time.Duration
}

func GetRedisConfig() *RedisConfig {
	redisOnce.Do(func() {
		loadEnv()
		redisConfig = &RedisConfig{
			Addr:           getEnv("REDIS_ADDR", "localhost:6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvInt("REDIS_DB", 0),
			CacheNamespace: getEnv("VERDICT_CACHE_NAMESPACE", "relevance"),
			CacheTTL:       getEnvDuration("VERDICT_CACHE_TTL", 0),
		}
	})
	return redisConfig
}
