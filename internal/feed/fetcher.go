package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"goods-be/internal/catalog"
	"goods-be/internal/logger"

	"go.uber.org/zap"
)

type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL.With(raw)
	}
	return nil
}

// Fetch downloads and parses the feed at rawURL. The returned feed carries
// rawURL as its source.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*catalog.Feed, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "feed"),
		zap.String("url", rawURL),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, ErrInvalidURL.With(err.Error())
	}
	req.Header.Set("Accept", "application/yaml, text/yaml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		log.Warn("feed request failed", zap.Error(err))
		return nil, ErrFetchFailed.With(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("feed responded with error", zap.Int("status", resp.StatusCode))
		return nil, ErrFetchFailed.With(fmt.Sprintf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, ErrFetchFailed.With(err.Error())
	}
	if int64(len(body)) > f.maxBytes {
		return nil, ErrTooLarge.With(fmt.Sprintf("limit is %d bytes", f.maxBytes))
	}

	feed, err := Parse(bytes.NewReader(body))
	if err != nil {
		log.Warn("feed could not be parsed", zap.Error(err))
		return nil, err
	}
	feed.Source = rawURL

	log.Debug("feed fetched", zap.Int("bytes", len(body)), zap.Int("goods", len(feed.Goods)))
	return feed, nil
}
