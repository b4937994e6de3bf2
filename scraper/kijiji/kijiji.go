// Package kijiji walks Kijiji search result pages and stores them in the
// data lake for later processing.
package kijiji

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"phone-tracker/capture"
	"phone-tracker/config"
	"phone-tracker/storage"
	"phone-tracker/utils"
)

// maxPages guards against a pagination block that never ends.
const maxPages = 100

// Scraper drives pagination for one or more search keywords.
type Scraper struct {
	cfg        *config.Config
	logger     *utils.Logger
	fetcher    PageFetcher
	lake       *storage.DataLake
	visitedURL *utils.URLSet
	retry      *utils.RetryConfig
	sleep      func(ctx context.Context, d time.Duration) error
}

// New creates a ready-to-use Scraper.
func New(cfg *config.Config, logger *utils.Logger, fetcher PageFetcher, lake *storage.DataLake) *Scraper {
	return &Scraper{
		cfg:        cfg,
		logger:     logger,
		fetcher:    fetcher,
		lake:       lake,
		visitedURL: utils.NewURLSet(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		sleep: sleepCtx,
	}
}

// NewFetcher picks the page fetcher named by cfg.FetchMode ("http" or "browser").
func NewFetcher(cfg *config.Config) (PageFetcher, error) {
	switch strings.ToLower(cfg.FetchMode) {
	case "", "http":
		return NewHTTPFetcher(30 * time.Second), nil
	case "browser", "chrome":
		f, err := NewBrowserFetcher(cfg.ChromeBin, 60*time.Second)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown fetch mode %q", cfg.FetchMode)
	}
}

// PageURL fills the keyword and page number into the search URL template.
func PageURL(template, keyword string, page int) string {
	return strings.NewReplacer("{keyword}", keyword, "{page}", strconv.Itoa(page)).Replace(template)
}

// GatherAll captures every keyword for date, pausing a random interval
// between keywords. A failing keyword is logged and does not stop the rest.
func (s *Scraper) GatherAll(ctx context.Context, keywords []string, date time.Time) error {
	var failed []string
	for idx, kw := range keywords {
		if _, err := s.Gather(ctx, kw, date); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("[kijiji] %s failed: %v", kw, err)
			failed = append(failed, kw)
		}
		if idx < len(keywords)-1 {
			pause := s.keywordPause()
			s.logger.Info("[kijiji] Pausing %v before next keyword", pause)
			if err := s.sleep(ctx, pause); err != nil {
				return err
			}
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("kijiji: %d of %d keywords failed: %s",
			len(failed), len(keywords), strings.Join(failed, ", "))
	}
	return nil
}

// Gather stores result pages for keyword until there is no next page.
// It returns the number of pages written.
func (s *Scraper) Gather(ctx context.Context, keyword string, date time.Time) (int, error) {
	s.logger.Info("[kijiji] Gathering %q for %s", keyword, date.Format(storage.DateLayout))

	pages := 0
	for page := 1; page <= maxPages; page++ {
		url := PageURL(s.cfg.SearchURL, keyword, page)
		if !s.visitedURL.Add(url) {
			s.logger.Warn("[kijiji] Already fetched %s, stopping", url)
			break
		}

		var body []byte
		err := s.retry.Do(ctx, fmt.Sprintf("%s-page-%d", keyword, page), func(ctx context.Context) error {
			b, err := s.fetcher.Fetch(ctx, url)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
		if err != nil {
			return pages, fmt.Errorf("page %d: %w", page, err)
		}

		path, err := s.lake.WritePage(keyword, date, page, body)
		if err != nil {
			return pages, err
		}
		pages++
		utils.PagesFetched.WithLabelValues(keyword).Inc()
		s.logger.Debug("[kijiji] Saved %s", path)

		next, err := capture.HasNextPage(bytes.NewReader(body))
		if err != nil {
			return pages, fmt.Errorf("page %d: %w", page, err)
		}
		if !next {
			break
		}
	}

	s.logger.Info("[kijiji] %s: stored %d pages", keyword, pages)
	return pages, nil
}

func (s *Scraper) keywordPause() time.Duration {
	lo, hi := s.cfg.KeywordPauseMinSec, s.cfg.KeywordPauseMaxSec
	if hi <= lo {
		return time.Duration(lo) * time.Second
	}
	return time.Duration(lo+rand.Intn(hi-lo)) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
