package kijiji

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in headless Chrome, for when the site
// starts refusing plain HTTP clients.
type BrowserFetcher struct {
	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancelTab   context.CancelFunc
	timeout     time.Duration
	settle      time.Duration
}

// NewBrowserFetcher starts one headless browser that every Fetch opens its
// tabs in. chromeBin may be empty to search the usual install locations.
func NewBrowserFetcher(chromeBin string, timeout time.Duration) (*BrowserFetcher, error) {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	// Suppress chromedp log noise
	browserCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// An empty Run launches the browser, so later tabs attach to it.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("chromedp start: %w", err)
	}

	return &BrowserFetcher{
		cancelAlloc: cancelAlloc,
		browserCtx:  browserCtx,
		cancelTab:   cancelTab,
		timeout:     timeout,
		settle:      3 * time.Second,
	}, nil
}

// Fetch navigates a fresh tab of the shared browser to url and returns the
// rendered document.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	tabCtx, cancel := chromedp.NewContext(f.browserCtx)
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.timeout)
	defer cancelTimeout()

	// Stop the tab when the caller gives up.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var page string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(f.settle),
		chromedp.OuterHTML("html", &page, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp fetch: %w", err)
	}
	return []byte(page), nil
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() error {
	f.cancelTab()
	f.cancelAlloc()
	return nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
