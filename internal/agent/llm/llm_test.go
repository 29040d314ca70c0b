package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/relevance-finder/config"
	"github.com/feichai0017/relevance-finder/internal/models"
	"github.com/feichai0017/relevance-finder/internal/relevance"
)

func chatServer(t *testing.T, content string, captured *map[string]any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		if captured != nil {
			require.NoError(t, json.Unmarshal(body, captured))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "llama-3.3-70b-versatile",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
}

func llmConfig(provider, baseURL string) *config.LLMConfig {
	return &config.LLMConfig{
		Provider:  provider,
		APIKey:    "test-key",
		BaseURL:   baseURL,
		Model:     "llama-3.3-70b-versatile",
		MaxTokens: 64,
	}
}

func TestOpenAIClassifierRequest(t *testing.T) {
	var body map[string]any
	srv := chatServer(t, `{"page_no": 4, "is_relevant": true}`, &body)
	defer srv.Close()

	c, err := NewOpenAIClassifier(llmConfig(config.ProviderOpenAI, srv.URL))
	require.NoError(t, err)

	v, err := c.Classify(context.Background(), "fractions For Grade 5", models.Page{Number: 4, Content: "adding fractions"})
	require.NoError(t, err)
	assert.Equal(t, relevance.Verdict{PageNo: 4, IsRelevant: true}, v)

	assert.Equal(t, "llama-3.3-70b-versatile", body["model"])
	assert.EqualValues(t, 0, body["temperature"])
	assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)
	assert.Equal(t, "user", user["role"])
	assert.Contains(t, user["content"], "User query: fractions For Grade 5")
	assert.Contains(t, user["content"], "Page number: 4")
	assert.Contains(t, user["content"], "Page content: adding fractions")
}

func TestOpenAIClassifierMalformedAnswer(t *testing.T) {
	srv := chatServer(t, `{"page_no": 4, "relevant": "yes"}`, nil)
	defer srv.Close()

	c, err := NewOpenAIClassifier(llmConfig(config.ProviderOpenAI, srv.URL))
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), "q", models.Page{Number: 4, Content: "x"})
	assert.ErrorIs(t, err, relevance.ErrMalformedVerdict)
}

func TestOpenAIClassifierServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClassifier(llmConfig(config.ProviderOpenAI, srv.URL))
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), "q", models.Page{Number: 1, Content: "x"})
	assert.Error(t, err)
}

func TestAnthropicClassifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-3-5-haiku-latest",
			"stop_reason": "end_turn",
			"content": []map[string]any{{
				"type": "text",
				"text": "```json\n{\"page_no\": 2, \"is_relevant\": false}\n```",
			}},
			"usage": map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	defer srv.Close()

	c, err := NewAnthropicClassifier(llmConfig(config.ProviderAnthropic, srv.URL))
	require.NoError(t, err)

	v, err := c.Classify(context.Background(), "q", models.Page{Number: 2, Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, relevance.Verdict{PageNo: 2, IsRelevant: false}, v)
}

func TestNewRemote(t *testing.T) {
	r, err := NewRemote(llmConfig(config.ProviderOpenAI, "http://localhost"))
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClassifier{}, r)

	r, err = NewRemote(llmConfig(config.ProviderAnthropic, ""))
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClassifier{}, r)

	_, err = NewRemote(llmConfig("cohere", ""))
	assert.Error(t, err)

	cfg := llmConfig(config.ProviderOpenAI, "")
	cfg.APIKey = ""
	_, err = NewRemote(cfg)
	assert.Error(t, err)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`  {"a":1} `))
}
