package llm

import (
	"fmt"

	"github.com/feichai0017/relevance-finder/config"
	"github.com/feichai0017/relevance-finder/internal/relevance"
)

// NewRemote builds the remote classifier selected by cfg.Provider.
func NewRemote(cfg *config.LLMConfig) (relevance.Remote, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		return NewOpenAIClassifier(cfg)
	case config.ProviderAnthropic:
		return NewAnthropicClassifier(cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
