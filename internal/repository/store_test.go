package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/relevance-finder/internal/models"
	"github.com/feichai0017/relevance-finder/pkg/logger"
)

func newTestStore(t *testing.T) *SQLStore {
	s, err := NewSQLStore("sqlite3", ":memory:", logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSearchResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sr := &models.SearchResult{
		Query: "photosynthesis",
		Grade: "7",
		Results: []models.Candidate{
			{URL: "https://a.example/p.pdf", Title: "Plants"},
		},
	}
	require.NoError(t, s.CreateSearchResult(ctx, sr))
	assert.NotEmpty(t, sr.ID)

	found, err := s.FindSearchResult(ctx, "photosynthesis", "7")
	require.NoError(t, err)
	assert.Equal(t, sr.ID, found.ID)
	assert.Equal(t, sr.Results, found.Results)

	got, err := s.GetSearchResult(ctx, sr.ID)
	require.NoError(t, err)
	assert.Equal(t, "photosynthesis", got.Query)

	_, err = s.FindSearchResult(ctx, "photosynthesis", "8")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetSearchResult(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertResultIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := &models.Document{Query: "q", Grade: "5", Title: "Doc", TotalPages: 12, URL: "https://a.example/d.pdf"}
	require.NoError(t, s.InsertDocument(ctx, doc))

	id, created, err := s.InsertResult(ctx, "search-1", doc.ID, models.PageRanges{"2-4", "7"})
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := s.InsertResult(ctx, "search-1", doc.ID, models.PageRanges{"1"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, again)

	results, err := s.ListResults(ctx, "search-1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.PageRanges{"2-4", "7"}, results[0].Relevance)
}

func TestInsertDocumentReusesSameSource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &models.Document{ID: "doc-a", Query: "q", Grade: "5", URL: "https://a.example/d.pdf", TotalPages: 4}
	require.NoError(t, s.InsertDocument(ctx, first))
	assert.Equal(t, "doc-a", first.ID)

	again := &models.Document{ID: "doc-b", Query: "q", Grade: "5", URL: "https://a.example/d.pdf", TotalPages: 4}
	require.NoError(t, s.InsertDocument(ctx, again))
	assert.Equal(t, "doc-a", again.ID)
	assert.True(t, first.CreatedAt.Equal(again.CreatedAt))

	otherGrade := &models.Document{ID: "doc-c", Query: "q", Grade: "6", URL: "https://a.example/d.pdf", TotalPages: 4}
	require.NoError(t, s.InsertDocument(ctx, otherGrade))
	assert.Equal(t, "doc-c", otherGrade.ID)

	_, created, err := s.InsertResult(ctx, "search-1", first.ID, models.PageRanges{"1-2"})
	require.NoError(t, err)
	assert.True(t, created)
	_, created, err = s.InsertResult(ctx, "search-1", again.ID, models.PageRanges{"1-2"})
	require.NoError(t, err)
	assert.False(t, created)

	results, err := s.ListResults(ctx, "search-1")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestListResultsJoinsDocuments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docs := []*models.Document{
		{Query: "q", Grade: "5", URL: "https://a.example/1.pdf", Title: "First", Description: "d1", ThumbnailURL: "https://img/1.png", TotalPages: 3},
		{Query: "q", Grade: "5", URL: "https://a.example/2.pdf", Title: "Second", TotalPages: 40, StorageURL: "https://cdn/2.pdf"},
	}
	for _, d := range docs {
		require.NoError(t, s.InsertDocument(ctx, d))
	}
	_, _, err := s.InsertResult(ctx, "search-1", docs[0].ID, models.PageRanges{"1-3"})
	require.NoError(t, err)
	_, _, err = s.InsertResult(ctx, "search-1", docs[1].ID, models.PageRanges{"5", "9-10"})
	require.NoError(t, err)
	_, _, err = s.InsertResult(ctx, "search-2", docs[1].ID, models.PageRanges{"1"})
	require.NoError(t, err)

	results, err := s.ListResults(ctx, "search-1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	byTitle := map[string]models.ResultWithDocument{}
	for _, r := range results {
		assert.Equal(t, "search-1", r.SearchResultID)
		assert.Equal(t, r.DocumentID, r.Document.ID)
		byTitle[r.Document.Title] = r
	}
	assert.Equal(t, 3, byTitle["First"].Document.TotalPages)
	assert.Equal(t, "https://img/1.png", byTitle["First"].Document.ThumbnailURL)
	assert.Equal(t, "https://cdn/2.pdf", byTitle["Second"].Document.StorageURL)
	assert.Equal(t, models.PageRanges{"5", "9-10"}, byTitle["Second"].Relevance)

	empty, err := s.ListResults(ctx, "search-3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSearchHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []struct {
		query, grade string
		offset       time.Duration
	}{
		{"plant cells", "7", 0},
		{"animal cells", "7", time.Minute},
		{"plant cells", "7", 2 * time.Minute},
		{"plant cells", "8", 3 * time.Minute},
		{"fractions", "7", 4 * time.Minute},
	}
	for _, e := range entries {
		require.NoError(t, s.CreateSearchResult(ctx, &models.SearchResult{
			Query: e.query, Grade: e.grade, CreatedAt: base.Add(e.offset),
		}))
	}

	history, err := s.SearchHistory(ctx, "cells", "7", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "plant cells", history[0].Query)
	assert.Equal(t, "animal cells", history[1].Query)
}

func TestSearchHistoryLimitCountsDistinctQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateSearchResult(ctx, &models.SearchResult{
		Query: "moon phases", Grade: "4", CreatedAt: base,
	}))
	require.NoError(t, s.CreateSearchResult(ctx, &models.SearchResult{
		Query: "moon craters", Grade: "4", CreatedAt: base.Add(time.Minute),
	}))
	for i := 0; i < 5; i++ {
		require.NoError(t, s.CreateSearchResult(ctx, &models.SearchResult{
			Query: "moon landing", Grade: "4", CreatedAt: base.Add(time.Hour + time.Duration(i)*time.Minute),
		}))
	}

	history, err := s.SearchHistory(ctx, "moon", "4", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "moon landing", history[0].Query)
	assert.True(t, base.Add(time.Hour+4*time.Minute).Equal(history[0].CreatedAt))
	assert.Equal(t, "moon craters", history[1].Query)
}

func TestSearchHistoryMatchesWildcardsLiterally(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, q := range []string{"100% juice", "100 percent juice", "snake_case", "snakescase", "wow!"} {
		require.NoError(t, s.CreateSearchResult(ctx, &models.SearchResult{Query: q, Grade: "3"}))
	}

	queries := func(text string) []string {
		history, err := s.SearchHistory(ctx, text, "3", 10)
		require.NoError(t, err)
		out := make([]string, 0, len(history))
		for _, h := range history {
			out = append(out, h.Query)
		}
		return out
	}

	assert.Equal(t, []string{"100% juice"}, queries("100%"))
	assert.Equal(t, []string{"snake_case"}, queries("e_c"))
	assert.Equal(t, []string{"wow!"}, queries("w!"))
}
