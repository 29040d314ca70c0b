package relevance

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/relevance-finder/internal/models"
)

func TestCompact(t *testing.T) {
	tests := []struct {
		name  string
		pages []int
		want  models.PageRanges
		ok    bool
	}{
		{"mixed runs", []int{2, 3, 4, 7, 9, 10}, models.PageRanges{"2-4", "7", "9-10"}, true},
		{"single page", []int{5}, models.PageRanges{"5"}, true},
		{"all singles", []int{1, 3, 5}, models.PageRanges{"1", "3", "5"}, true},
		{"one run", []int{1, 2, 3, 4}, models.PageRanges{"1-4"}, true},
		{"trailing single", []int{1, 2, 9}, models.PageRanges{"1-2", "9"}, true},
		{"pair", []int{6, 7}, models.PageRanges{"6-7"}, true},
		{"empty", []int{}, models.PageRanges{}, false},
		{"nil", nil, models.PageRanges{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Compact(tt.pages)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestCompactEmptyIsComputed(t *testing.T) {
	got, ok := Compact(nil)
	assert.False(t, ok)
	assert.NotNil(t, got)
	assert.True(t, got.Computed())
	assert.Empty(t, got)

	var notYet models.PageRanges
	assert.False(t, notYet.Computed())
}

func TestCompactRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		var pages []int
		p := 0
		for n := rng.Intn(40); n > 0; n-- {
			p += 1 + rng.Intn(3)
			pages = append(pages, p)
		}

		ranges, ok := Compact(pages)
		assert.Equal(t, len(pages) > 0, ok)

		back, err := Expand(ranges)
		require.NoError(t, err)
		if len(pages) == 0 {
			assert.Empty(t, back)
			continue
		}
		assert.Equal(t, pages, back)
	}
}

func TestExpandRejectsMalformed(t *testing.T) {
	for _, bad := range []models.PageRanges{
		{"a"},
		{"0"},
		{"3-3"},
		{"5-2"},
		{"1-"},
		{"-4"},
		{"4", "2"},
		{"1-5", "5"},
	} {
		_, err := Expand(bad)
		assert.ErrorIs(t, err, ErrInvalidRange, "tokens %v", bad)
	}
}
