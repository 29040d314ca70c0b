package config

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	pipelineOnce   sync.Once
	pipelineConfig *PipelineConfig
)

// PipelineConfig tunes the relevance pipeline. Values come from the
// environment and may be overridden by the YAML file named in PIPELINE_CONFIG.
type PipelineConfig struct {
	MaxPages          int `yaml:"max_pages"`
	BatchSize         int `yaml:"batch_size"`
	PageConcurrency   int `yaml:"page_concurrency"`
	FingerprintPrefix int `yaml:"fingerprint_prefix"`
	MaxPageChars      int `yaml:"max_page_chars"`
	RequestsPerMinute int `yaml:"requests_per_minute"`
	ExtractWorkers    int `yaml:"extract_workers"`

	DownloadConcurrency int `yaml:"download_concurrency"`
	ClassifyConcurrency int `yaml:"classify_concurrency"`
	PersistConcurrency  int `yaml:"persist_concurrency"`

	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
	MaxDocumentBytes int64         `yaml:"max_document_bytes"`
}

func defaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		MaxPages:            getEnvInt("PIPELINE_MAX_PAGES", 75),
		BatchSize:           getEnvInt("PIPELINE_BATCH_SIZE", 10),
		PageConcurrency:     getEnvInt("PIPELINE_PAGE_CONCURRENCY", 5),
		FingerprintPrefix:   getEnvInt("PIPELINE_FINGERPRINT_PREFIX", 100),
		MaxPageChars:        getEnvInt("PIPELINE_MAX_PAGE_CHARS", 12000),
		RequestsPerMinute:   getEnvInt("PIPELINE_REQUESTS_PER_MINUTE", 0),
		ExtractWorkers:      getEnvInt("PIPELINE_EXTRACT_WORKERS", 4),
		DownloadConcurrency: getEnvInt("PIPELINE_DOWNLOAD_CONCURRENCY", 5),
		ClassifyConcurrency: getEnvInt("PIPELINE_CLASSIFY_CONCURRENCY", 3),
		PersistConcurrency:  getEnvInt("PIPELINE_PERSIST_CONCURRENCY", 5),
		FetchTimeout:        getEnvDuration("PIPELINE_FETCH_TIMEOUT", 60*time.Second),
		MaxDocumentBytes:    int64(getEnvInt("PIPELINE_MAX_DOCUMENT_BYTES", 50<<20)),
	}
}

// LoadPipelineConfig returns the environment defaults overlaid with the YAML
// file at path. An empty path skips the file.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cfg := defaultPipelineConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline config: %w", err)
	}
	return cfg, nil
}

func GetPipelineConfig() *PipelineConfig {
	pipelineOnce.Do(func() {
		loadEnv()
		cfg, err := LoadPipelineConfig(os.Getenv("PIPELINE_CONFIG"))
		if err != nil {
			log.Printf("Warning: %v, using defaults", err)
			cfg = defaultPipelineConfig()
		}
		pipelineConfig = cfg
	})
	return pipelineConfig
}
