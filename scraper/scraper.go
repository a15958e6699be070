// Package scraper fetches player profile pages. The browser mode drives a
// headless Chromium through Rod and reuses one stealth session page for the
// whole run; the http mode trades rendering for speed and fetches with a
// Chrome TLS fingerprint instead.
package scraper

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/Ar7340/CS2-Player-States/config"
	"github.com/Ar7340/CS2-Player-States/models"
)

// Scraper manages the browser lifecycle and the single session page. The
// batch runner is sequential, so one reused tab is enough; reusing it keeps
// cookies and the stealth patches across every profile in a run.
type Scraper struct {
	browser    *rod.Browser
	page       *rod.Page
	router     *rod.HijackRouter
	browserCfg config.BrowserConfig
	scrapeCfg  config.ScrapeConfig
}

// NewScraper launches a headless browser and prepares the session page.
func NewScraper(browserCfg config.BrowserConfig, scrapeCfg config.ScrapeConfig) (*Scraper, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.Proxy != "" {
		l = l.Proxy(browserCfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	s := &Scraper{
		browser:    browser,
		browserCfg: browserCfg,
		scrapeCfg:  scrapeCfg,
	}
	if err := s.openSessionPage(); err != nil {
		browser.MustClose()
		return nil, err
	}

	slog.Info("session page ready",
		"stealth", browserCfg.Stealth,
		"blockedTypes", scrapeCfg.BlockedResourceTypes,
		"blockAds", scrapeCfg.BlockAds,
	)
	return s, nil
}

// openSessionPage creates the reused tab. Stealth injection and the hijack
// router must both be installed here, before the first navigation; they
// only take effect for navigations that happen after they are installed.
func (s *Scraper) openSessionPage() error {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to create session page",
			err,
		)
	}

	if s.browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	// Every navigation carries a search click-through Referer for the
	// profile host.
	if u, parseErr := url.Parse(fmt.Sprintf(s.scrapeCfg.ProfileURLPattern, "0")); parseErr == nil {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{
				"Referer":         "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname()),
				"Accept-Language": "en-US,en;q=0.9",
			}),
		}.Call(page)
	}

	s.page = page
	s.router = mountHijack(page, s.scrapeCfg.BlockedResourceTypes, s.scrapeCfg.BlockAds)
	return nil
}

// Close stops the hijack router, closes the session page and kills the
// browser process. Call this on shutdown to prevent zombie Chrome processes.
func (s *Scraper) Close() error {
	slog.Info("scraper shutting down: closing session page")
	if s.router != nil {
		_ = s.router.Stop()
	}
	if s.page != nil {
		_ = s.page.Close()
	}
	slog.Info("scraper shutting down: closing browser")
	err := s.browser.Close()
	slog.Info("scraper shutdown complete")
	return err
}
