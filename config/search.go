package config

import (
	"sync"
	"time"
)

var (
	searchOnce   sync.Once
	searchConfig *SearchConfig
)

// SearchConfig configures the Custom Search JSON API client.
type SearchConfig struct {
	APIKey   string
	CX       string
	// Endpoint overrides the API base URL; empty uses the public endpoint.
	Endpoint string
	Timeout  time.Duration
}

func GetSearchConfig() *SearchConfig {
	searchOnce.Do(func() {
		loadEnv()
		searchConfig = &SearchConfig{
			APIKey:   getEnv("CSE_API_KEY", ""),
			CX:       getEnv("CSE_CX_ID", ""),
			Endpoint: getEnv("CSE_ENDPOINT", ""),
			Timeout:  getEnvDuration("CSE_TIMEOUT", 15*time.Second),
		}
	})
	return searchConfig
}
