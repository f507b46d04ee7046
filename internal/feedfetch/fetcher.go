// Package feedfetch retrieves external RSS/Atom feeds and linked article
// pages, with conditional-GET handling and raw-document capture on top of
// gofeed parsing.
package feedfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"rsstranslator/internal/resilience/circuitbreaker"
	"rsstranslator/internal/resilience/retry"
)

// Result is the outcome of one conditional fetch attempt.
type Result struct {
	// Updated is false when the server answered 304 Not Modified; Raw and
	// Feed are unset in that case.
	Updated bool
	Raw     []byte
	Feed    *gofeed.Feed
	ETag    string
}

// Fetcher fetches and parses a source feed, sending If-None-Match when a
// prior ETag is known so unchanged feeds cost a single round trip.
type Fetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewFetcher creates a Fetcher using client for outbound requests.
func NewFetcher(client *http.Client) *Fetcher {
	return &Fetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

// Fetch retrieves feedURL, sending If-None-Match: etag when etag is
// non-empty, behind the shared circuit-breaker and retry policy for
// transient network failures.
func (f *Fetcher) Fetch(ctx context.Context, feedURL, etag string) (Result, error) {
	var result Result

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feedURL, etag)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("url", feedURL),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}
		result = cbResult.(Result)
		return nil
	})

	if retryErr != nil {
		return Result{}, retryErr
	}
	return result, nil
}

func (f *Fetcher) doFetch(ctx context.Context, feedURL, etag string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", "RSSTranslatorBot/1.0")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return Result{Updated: false}, nil
	}
	if resp.StatusCode >= 400 {
		return Result{}, fmt.Errorf("fetching feed: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("reading feed body: %w", err)
	}

	fp := gofeed.NewParser()
	feed, err := fp.ParseString(string(raw))
	if err != nil {
		return Result{}, fmt.Errorf("parsing feed: %w", err)
	}

	return Result{
		Updated: true,
		Raw:     raw,
		Feed:    feed,
		ETag:    resp.Header.Get("ETag"),
	}, nil
}
