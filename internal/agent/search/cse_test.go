package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/relevance-finder/config"
	"github.com/feichai0017/relevance-finder/internal/models"
	"github.com/feichai0017/relevance-finder/pkg/logger"
)

func TestCSEClientSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customsearch/v1", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "k", q.Get("key"))
		assert.Equal(t, "cx", q.Get("cx"))
		assert.Equal(t, "fractions for Grade 5 filetype:pdf", q.Get("q"))
		assert.Equal(t, "11", q.Get("start"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"title":"Fractions","htmlTitle":"<b>Fractions</b>","link":"https://a.example/f.pdf",
			 "pagemap":{"cse_thumbnail":[{"src":"https://img.example/f.png"}]}},
			{"title":"No link"},
			{"title":"Decimals","htmlTitle":"Decimals","link":"https://b.example/d.pdf"}
		]}`))
	}))
	defer srv.Close()

	c, err := NewCSEClient(&config.SearchConfig{APIKey: "k", CX: "cx", Endpoint: srv.URL + "/"}, logger.NewNop())
	require.NoError(t, err)

	got, err := c.Search(context.Background(), models.Query{Text: "fractions", Grade: "5"}, 11)
	require.NoError(t, err)
	assert.Equal(t, []models.Candidate{
		{URL: "https://a.example/f.pdf", Title: "Fractions", Description: "<b>Fractions</b>", ThumbnailURL: "https://img.example/f.png"},
		{URL: "https://b.example/d.pdf", Title: "Decimals", Description: "Decimals"},
	}, got)
}

func TestCSEClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	c, err := NewCSEClient(&config.SearchConfig{APIKey: "k", CX: "cx", Endpoint: srv.URL + "/"}, logger.NewNop())
	require.NoError(t, err)

	_, err = c.Search(context.Background(), models.Query{Text: "q", Grade: "1"}, 0)
	assert.ErrorIs(t, err, ErrSearchFailed)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestNewCSEClientRequiresCredentials(t *testing.T) {
	_, err := NewCSEClient(&config.SearchConfig{}, logger.NewNop())
	assert.Error(t, err)
}
