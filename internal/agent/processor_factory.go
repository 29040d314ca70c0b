package agent

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/feichai0017/relevance-finder/internal/agent/document"
	"github.com/feichai0017/relevance-finder/internal/agent/document/pdf"
	"github.com/feichai0017/relevance-finder/internal/models"
	"github.com/feichai0017/relevance-finder/pkg/logger"
)

// LoaderFactory picks a document.Loader by sniffing the content type of the
// bytes it is given. It is itself a Loader.
type LoaderFactory struct {
	loaders map[string]document.Loader
	logger  logger.Logger
}

var _ document.Loader = (*LoaderFactory)(nil)

// NewLoaderFactory registers the PDF loader with the given extraction workers.
func NewLoaderFactory(extractWorkers int, log logger.Logger) *LoaderFactory {
	f := &LoaderFactory{
		loaders: make(map[string]document.Loader),
		logger:  log.Named("loaders"),
	}
	f.Register("application/pdf", pdf.NewProcessor(extractWorkers, log))
	return f
}

func (f *LoaderFactory) Register(mimeType string, loader document.Loader) {
	f.loaders[mimeType] = loader
}

func (f *LoaderFactory) GetLoader(mimeType string) (document.Loader, error) {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))

	loader, ok := f.loaders[mimeType]
	if !ok || !loader.CanLoad(mimeType) {
		f.logger.Debug("No loader found", logger.String("mimeType", mimeType))
		return nil, fmt.Errorf("no loader found for mime type: %s", mimeType)
	}
	return loader, nil
}

func (f *LoaderFactory) CanLoad(mimeType string) bool {
	_, err := f.GetLoader(mimeType)
	return err == nil
}

func (f *LoaderFactory) Inspect(ctx context.Context, content []byte) (document.Info, error) {
	loader, err := f.GetLoader(http.DetectContentType(content))
	if err != nil {
		return document.Info{}, err
	}
	return loader.Inspect(ctx, content)
}

func (f *LoaderFactory) Pages(ctx context.Context, content []byte) ([]models.Page, error) {
	loader, err := f.GetLoader(http.DetectContentType(content))
	if err != nil {
		return nil, err
	}
	return loader.Pages(ctx, content)
}
