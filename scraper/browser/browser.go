// Package browser collects outbound links from a page with a headless
// Chrome. The discovery pipeline uses it when the extraction provider
// returns no links for a candidate page.
package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"land-auction-scraper/utils"
)

const (
	pageTimeout = 60 * time.Second
	settleDelay = 3 * time.Second
	userAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// collectLinksJS returns every absolute href on the page, deduplicated.
const collectLinksJS = `
(function() {
	var seen = {};
	var out = [];
	var anchors = document.querySelectorAll('a[href]');
	for (var i = 0; i < anchors.length; i++) {
		var href = anchors[i].href;
		if (!href || seen[href]) continue;
		if (href.indexOf('http') !== 0) continue;
		seen[href] = true;
		out.push(href);
	}
	return out;
})()
`

// LinkCollector drives a headless browser to read the links on a page.
type LinkCollector struct {
	chromeBin string
	logger    *utils.Logger
	retry     *utils.RetryConfig
}

// NewLinkCollector creates a LinkCollector. chromeBin may be empty, in which
// case the usual install locations are searched.
func NewLinkCollector(chromeBin string, maxRetries int, logger *utils.Logger) *LinkCollector {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	return &LinkCollector{
		chromeBin: chromeBin,
		logger:    logger,
		retry: &utils.RetryConfig{
			MaxAttempts: maxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Available reports whether a Chrome binary was found.
func (c *LinkCollector) Available() bool {
	return c.chromeBin != ""
}

// CollectLinks loads pageURL and returns the absolute links on it.
func (c *LinkCollector) CollectLinks(ctx context.Context, pageURL string) ([]string, error) {
	if !c.Available() {
		return nil, fmt.Errorf("browser: no chrome binary found")
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(c.chromeBin)...)
	defer cancelAlloc()

	var links []string
	err := c.retry.Do(ctx, "browser-links", func() error {
		// Suppress chromedp log noise
		tabCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, pageTimeout)
		defer cancelTimeout()

		var found []string
		err := chromedp.Run(tabCtx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(settleDelay),
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(time.Second),
			chromedp.Evaluate(collectLinksJS, &found),
		)
		if err != nil {
			return fmt.Errorf("chromedp collect links: %w", err)
		}
		links = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("[browser] %s: %d links", utils.TruncateURL(pageURL, 80), len(links))
	return links, nil
}

func allocatorOptions(chromeBin string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}
	return opts
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := strings.TrimSpace(os.Getenv("CHROME_BIN")); bin != "" {
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
