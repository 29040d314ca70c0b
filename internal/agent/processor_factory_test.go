package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/relevance-finder/internal/agent/document"
	"github.com/feichai0017/relevance-finder/internal/models"
	"github.com/feichai0017/relevance-finder/pkg/logger"
)

type textLoader struct{}

func (textLoader) CanLoad(mimeType string) bool { return mimeType == "text/plain" }

func (textLoader) Inspect(_ context.Context, content []byte) (document.Info, error) {
	return document.Info{TotalPages: 1, Size: int64(len(content))}, nil
}

func (textLoader) Pages(_ context.Context, content []byte) ([]models.Page, error) {
	return []models.Page{{Number: 1, Content: string(content)}}, nil
}

func TestLoaderFactoryDispatch(t *testing.T) {
	f := NewLoaderFactory(2, logger.NewNop())
	assert.True(t, f.CanLoad("application/pdf"))
	assert.True(t, f.CanLoad("Application/PDF; charset=binary"))
	assert.False(t, f.CanLoad("text/plain"))

	f.Register("text/plain", textLoader{})
	pages, err := f.Pages(context.Background(), []byte("plain notes about cells"))
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "plain notes about cells", pages[0].Content)

	info, err := f.Inspect(context.Background(), []byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, 1, info.TotalPages)
}

func TestLoaderFactoryUnsupported(t *testing.T) {
	f := NewLoaderFactory(2, logger.NewNop())

	_, err := f.Inspect(context.Background(), []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	assert.ErrorContains(t, err, "no loader found for mime type: image/png")

	_, err = f.GetLoader("application/msword")
	assert.Error(t, err)
}
