package config

import (
	"sync"
	"time"
)

var (
	llmOnce   sync.Once
	llmConfig *LLMConfig
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// LLMConfig selects and configures the remote page classifier. The default is
// Groq through its OpenAI-compatible endpoint.
type LLMConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

func GetLLMConfig() *LLMConfig {
	llmOnce.Do(func() {
		loadEnv()
		provider := getEnv("LLM_PROVIDER", ProviderOpenAI)
		cfg := &LLMConfig{
			Provider:    provider,
			APIKey:      getEnv("LLM_API_KEY", getEnv("GROQ_API_KEY", "")),
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:       getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 64),
			Timeout:     getEnvDuration("LLM_TIMEOUT", 30*time.Second),
		}
		if provider == ProviderAnthropic {
			cfg.APIKey = getEnv("LLM_API_KEY", getEnv("ANTHROPIC_API_KEY", ""))
			cfg.BaseURL = getEnv("LLM_BASE_URL", "")
			cfg.Model = getEnv("LLM_MODEL", "claude-3-5-haiku-latest")
		}
		llmConfig = cfg
	})
	return llmConfig
}
