package scraper

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Ar7340/CS2-Player-States/config"
)

// AutoFetcher is the escalating fetch mode: every player is tried over
// plain HTTP first, and only pages that fail or come back as JavaScript
// shells are retried in the browser. The browser session starts lazily on
// the first escalation, so a run whose pages all render server-side never
// pays for a Chrome process.
type AutoFetcher struct {
	http       *HTTPFetcher
	browserCfg config.BrowserConfig
	scrapeCfg  config.ScrapeConfig

	mu      sync.Mutex
	browser *Scraper
}

// NewAutoFetcher creates the escalating client. Only the HTTP side exists
// until a fetch escalates.
func NewAutoFetcher(browserCfg config.BrowserConfig, scrapeCfg config.ScrapeConfig) *AutoFetcher {
	return &AutoFetcher{
		http:       NewHTTPFetcher(browserCfg, scrapeCfg),
		browserCfg: browserCfg,
		scrapeCfg:  scrapeCfg,
	}
}

// FetchPlayer tries HTTP, then escalates to the browser when the cheap
// fetch failed or returned a shell page. A cancelled context is never
// escalated: the second attempt would inherit the same dead context.
func (a *AutoFetcher) FetchPlayer(ctx context.Context, steamID string) (*PageResult, error) {
	page, err := a.http.FetchPlayer(ctx, steamID)
	if err == nil && !needsBrowser([]byte(page.HTML)) {
		return page, nil
	}
	if ctx.Err() != nil {
		if err == nil {
			return page, nil
		}
		return nil, err
	}

	reason := "shell page"
	if err != nil {
		reason = err.Error()
	}
	slog.Info("escalating to browser fetch",
		"steamID", steamID,
		"reason", reason)

	browser, berr := a.ensureBrowser()
	if berr != nil {
		// Keep the HTTP result when only the escalation failed: a shell
		// page with a few server-rendered fields beats nothing.
		if err == nil {
			slog.Warn("browser start failed, keeping http result", "error", berr)
			return page, nil
		}
		return nil, berr
	}

	return browser.FetchPlayer(ctx, steamID)
}

// ensureBrowser starts the browser session once.
func (a *AutoFetcher) ensureBrowser() (*Scraper, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.browser != nil {
		return a.browser, nil
	}

	browser, err := NewScraper(a.browserCfg, a.scrapeCfg)
	if err != nil {
		return nil, err
	}
	a.browser = browser
	return browser, nil
}

// Close shuts down the browser session if one was ever started.
func (a *AutoFetcher) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.browser == nil {
		return a.http.Close()
	}
	err := a.browser.Close()
	a.browser = nil
	if herr := a.http.Close(); err == nil {
		err = herr
	}
	return err
}
