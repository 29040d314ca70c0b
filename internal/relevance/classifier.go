package relevance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/feichai0017/relevance-finder/internal/models"
	"github.com/feichai0017/relevance-finder/pkg/logger"
)

// Verdict is a decoded classifier answer.
type Verdict struct {
	PageNo     int
	IsRelevant bool
}

// Remote asks the remote classification service about one page.
type Remote interface {
	Classify(ctx context.Context, query string, page models.Page) (Verdict, error)
}

// PageJudge produces a tagged result for one page. It never returns an error:
// failures are carried in the result.
type PageJudge interface {
	Classify(ctx context.Context, query string, page models.Page) PageResult
}

// ClassifierConfig tunes a PageClassifier.
type ClassifierConfig struct {
	// FingerprintPrefix is the content prefix length used for cache keys.
	FingerprintPrefix int
	// MaxPageChars truncates page content before it is sent; 0 sends all.
	MaxPageChars int
	// RequestsPerMinute caps remote calls issued by this classifier; 0 disables.
	RequestsPerMinute int
}

// PageClassifier consults the cache and falls back to the remote classifier.
// It performs no retries.
type PageClassifier struct {
	remote  Remote
	cache   Cache
	limiter *rate.Limiter
	cfg     ClassifierConfig
	logger  logger.Logger
}

func NewPageClassifier(remote Remote, cache Cache, cfg ClassifierConfig, log logger.Logger) *PageClassifier {
	if cfg.FingerprintPrefix <= 0 {
		cfg.FingerprintPrefix = DefaultFingerprintPrefix
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	c := &PageClassifier{
		remote: remote,
		cache:  cache,
		cfg:    cfg,
		logger: log.Named("classifier"),
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return c
}

// Classify returns the verdict for page, served from cache when the
// fingerprint is known. A successful remote verdict is cached before return.
func (c *PageClassifier) Classify(ctx context.Context, query string, page models.Page) PageResult {
	fp := NewFingerprint(page.Number, page.Content, c.cfg.FingerprintPrefix)

	if verdict, ok := c.lookup(ctx, fp); ok {
		return relevantResult(page.Number, verdict, true)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return failedResult(page.Number, fmt.Errorf("failed to wait for rate limit: %w", err))
		}
	}

	sent := page
	sent.Content = truncate(page.Content, c.cfg.MaxPageChars)

	v, err := c.remote.Classify(ctx, query, sent)
	if err != nil {
		return failedResult(page.Number, err)
	}

	if err := c.cache.Set(ctx, fp, v.IsRelevant); err != nil {
		c.logger.Warn("Failed to cache verdict",
			logger.Int("page", page.Number),
			logger.String("fingerprint", fp.String()),
			logger.Error(err),
		)
	}
	return relevantResult(page.Number, v.IsRelevant, false)
}

func (c *PageClassifier) lookup(ctx context.Context, fp Fingerprint) (bool, bool) {
	exists, err := c.cache.Exists(ctx, fp)
	if err != nil {
		c.logger.Warn("Cache lookup failed", logger.String("fingerprint", fp.String()), logger.Error(err))
		return false, false
	}
	if !exists {
		return false, false
	}
	// the entry may expire between the two calls when the store has a TTL
	verdict, found, err := c.cache.Get(ctx, fp)
	if err != nil {
		c.logger.Warn("Cache read failed", logger.String("fingerprint", fp.String()), logger.Error(err))
		return false, false
	}
	return verdict, found
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	s = s[:max]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// ParseVerdict decodes a classifier answer. The payload must be a JSON object
// with exactly the keys page_no (integer) and is_relevant (boolean).
func ParseVerdict(raw []byte) (Verdict, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}
	if len(fields) != 2 {
		return Verdict{}, fmt.Errorf("%w: expected 2 fields, got %d", ErrMalformedVerdict, len(fields))
	}

	rawPage, ok := fields["page_no"]
	if !ok {
		return Verdict{}, fmt.Errorf("%w: missing page_no", ErrMalformedVerdict)
	}
	rawRelevant, ok := fields["is_relevant"]
	if !ok {
		return Verdict{}, fmt.Errorf("%w: missing is_relevant", ErrMalformedVerdict)
	}

	pageNo, err := strconv.Atoi(string(bytes.TrimSpace(rawPage)))
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: page_no is not an integer", ErrMalformedVerdict)
	}

	var relevant bool
	switch string(bytes.TrimSpace(rawRelevant)) {
	case "true":
		relevant = true
	case "false":
	default:
		return Verdict{}, fmt.Errorf("%w: is_relevant is not a boolean", ErrMalformedVerdict)
	}

	return Verdict{PageNo: pageNo, IsRelevant: relevant}, nil
}

// decodeObject reads a single JSON object into its raw members. A key that
// appears twice is an error.
func decodeObject(raw []byte) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("not an object")
	}

	fields := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.New("invalid object key")
		}
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("duplicate key %q", key)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data")
	}
	return fields, nil
}
