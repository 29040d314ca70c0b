package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/feichai0017/relevance-finder/config"
	"github.com/feichai0017/relevance-finder/internal/models"
	"github.com/feichai0017/relevance-finder/internal/relevance"
)

type AnthropicClassifier struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int64
}

var _ relevance.Remote = (*AnthropicClassifier)(nil)

func NewAnthropicClassifier(cfg *config.LLMConfig, extra ...option.RequestOption) (*AnthropicClassifier, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm api key is empty")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(base, "/")))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	opts = append(opts, extra...)

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 64
	}
	return &AnthropicClassifier{
		client:      anthropic.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
	}, nil
}

func (c *AnthropicClassifier) Classify(ctx context.Context, query string, page models.Page) (relevance.Verdict, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt + "\nRespond with the JSON object only."},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(query, page))),
		},
	})
	if err != nil {
		return relevance.Verdict{}, fmt.Errorf("message request failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return relevance.Verdict{}, fmt.Errorf("%w: empty response", relevance.ErrMalformedVerdict)
	}
	return decode(text.String(), page)
}
