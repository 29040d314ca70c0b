package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/feichai0017/relevance-finder/config"
	"github.com/feichai0017/relevance-finder/internal/models"
	"github.com/feichai0017/relevance-finder/internal/relevance"
)

// OpenAIClassifier talks to any OpenAI-compatible chat completions endpoint.
// Groq is the default.
type OpenAIClassifier struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

var _ relevance.Remote = (*OpenAIClassifier)(nil)

func NewOpenAIClassifier(cfg *config.LLMConfig, extra ...option.RequestOption) (*OpenAIClassifier, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm api key is empty")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	opts = append(opts, extra...)

	return &OpenAIClassifier{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (c *OpenAIClassifier) Classify(ctx context.Context, query string, page models.Page) (relevance.Verdict, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(query, page)),
		},
		Temperature: openai.Float(c.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return relevance.Verdict{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return relevance.Verdict{}, fmt.Errorf("%w: empty response", relevance.ErrMalformedVerdict)
	}
	return decode(resp.Choices[0].Message.Content, page)
}

// decode parses a model answer. The verdict is attributed to the page that
// was asked about, whatever page_no the model echoed.
func decode(content string, page models.Page) (relevance.Verdict, error) {
	v, err := relevance.ParseVerdict([]byte(stripFences(content)))
	if err != nil {
		return relevance.Verdict{}, err
	}
	v.PageNo = page.Number
	return v, nil
}
