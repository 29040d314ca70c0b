package config

import (
	"sync"
)

var (
	dbOnce   sync.Once
	dbConfig *DatabaseConfig
)

// DatabaseConfig points the result store at sqlite3 or mysql.
type DatabaseConfig struct {
	Driver string
	DSN    string
}

func GetDatabaseConfig() *DatabaseConfig {
	dbOnce.Do(func() {
		loadEnv()
		dbConfig = &DatabaseConfig{
			Driver: getEnv("DATABASE_DRIVER", "sqlite3"),
			DSN:    getEnv("DATABASE_URL", "file:relevance.db?_foreign_keys=on"),
		}
	})
	return dbConfig
}
