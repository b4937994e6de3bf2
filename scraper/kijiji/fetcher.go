package kijiji

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// PageFetcher returns the HTML of one result page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Close() error
}

// HTTPFetcher downloads pages with a plain HTTP client. Result pages are
// server rendered, so this is the default.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher creates an HTTPFetcher with a per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml")
	return &HTTPFetcher{client: client}
}

// Fetch issues a GET and fails on any non-2xx status.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("http get %s: unexpected status %s", url, resp.Status())
	}
	return resp.Body(), nil
}

func (f *HTTPFetcher) Close() error { return nil }
