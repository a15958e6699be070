package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/Ar7340/CS2-Player-States/models"
)

// FetchPlayer navigates the session page to the player's profile and returns
// the rendered document.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Timeout guard   – hard deadline on the entire fetch
//  2. DEFER: cleanup  – park on about:blank so the profile DOM never
//     outlives the fetch
//  3. Context binding – propagate the deadline to all Rod operations
//  4. Navigate        – triggers the page load
//  5. Wait            – DOM stable; the site renders its stats through JS
//  6. Status code     – read from the performance API, no CDP listeners
//  7. Extract         – page.HTML() + document.title + final URL
//
// Stealth injection and the hijack router are installed once on the session
// page at startup and apply to every navigation that follows. Step 2 uses
// the original page reference (without the fetch context), so cleanup
// succeeds even after the fetch context has expired.
//
// NOTE: WaitRequestIdle uses the Fetch domain which conflicts with
// HijackRequests on Chromium 145+, and NetworkResponseReceived listeners
// cause ERR_BLOCKED_BY_CLIENT for the same reason. Hence WaitDOMStable and
// the performance API instead of CDP events.
func (s *Scraper) FetchPlayer(ctx context.Context, steamID string) (*PageResult, error) {
	if steamID == "" {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "empty steam id", nil)
	}
	profileURL := fmt.Sprintf(s.scrapeCfg.ProfileURLPattern, url.PathEscape(steamID))
	start := time.Now()

	// ── 1. Timeout guard ──────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(ctx, s.scrapeCfg.FetchTimeout)
	defer cancel()

	// ── 2. DEFER: park the session page ───────────────────────────────
	defer func() {
		if navErr := s.page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to park session page",
				"error", navErr,
			)
		}
	}()

	// ── 3. Bind fetch context to the session page ─────────────────────
	p := s.page.Context(ctx)

	// ── 4. Navigate ───────────────────────────────────────────────────
	if navErr := p.Navigate(profileURL); navErr != nil {
		return nil, categorizeError(navErr, "navigation to profile page failed")
	}

	// ── 5. Wait for the stats to render ───────────────────────────────
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr,
		)
	}

	// ── 6. Status code via the performance API (best-effort) ──────────
	statusCode := 0
	if res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); err == nil {
		statusCode = res.Value.Int()
	}
	if statusCode != 0 && (statusCode < 200 || statusCode > 299) {
		return nil, models.NewScrapeError(
			models.ErrCodeTransport,
			fmt.Sprintf("profile request returned HTTP %d", statusCode),
			nil,
		)
	}

	// ── 7. Extract the rendered document ──────────────────────────────
	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeError(htmlErr, "failed to extract page HTML")
	}

	title := evalStringOrEmpty(p, `() => document.title`)
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = profileURL
	}

	return &PageResult{
		HTML:        rawHTML,
		Title:       title,
		StatusCode:  statusCode,
		FinalURL:    finalURL,
		FetchMethod: FetchMethodBrowser,
		Elapsed:     time.Since(start),
	}, nil
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so callers can
// map them to log codes and HTTP statuses.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "fetch canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeTransport, msg, err)
	}
}
