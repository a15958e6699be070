package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	tls2 "github.com/refraction-networking/utls"
	"golang.org/x/net/html"
	xproxy "golang.org/x/net/proxy"

	"github.com/Ar7340/CS2-Player-States/config"
	"github.com/Ar7340/CS2-Player-States/models"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBodyBytes caps profile page downloads.
const maxBodyBytes = 10 * 1024 * 1024

// HTTPFetcher retrieves profile pages over plain HTTP with a Chrome TLS
// fingerprint (utls). It is the cheap fetch mode: no browser process, but a
// page that renders its stats through JavaScript comes back as a shell and
// yields few or no fields.
type HTTPFetcher struct {
	scrapeCfg config.ScrapeConfig
	proxy     string
}

// NewHTTPFetcher creates the HTTP fetch mode client.
func NewHTTPFetcher(browserCfg config.BrowserConfig, scrapeCfg config.ScrapeConfig) *HTTPFetcher {
	return &HTTPFetcher{scrapeCfg: scrapeCfg, proxy: browserCfg.Proxy}
}

// FetchPlayer retrieves the player's profile page. It satisfies the same
// contract as Scraper.FetchPlayer so the batch runner can use either mode.
func (f *HTTPFetcher) FetchPlayer(ctx context.Context, steamID string) (*PageResult, error) {
	if steamID == "" {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "empty steam id", nil)
	}
	profileURL := fmt.Sprintf(f.scrapeCfg.ProfileURLPattern, url.PathEscape(steamID))
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, f.scrapeCfg.FetchTimeout)
	defer cancel()

	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr, f.proxy)
		},
	}
	if f.proxy != "" {
		proxyURL, err := url.Parse(f.proxy)
		if err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	client := &http.Client{Transport: transport}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "failed to build profile request", err)
	}
	// No explicit Accept-Encoding: the transport negotiates gzip itself
	// and transparently decompresses.
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return nil, categorizeError(err, "profile request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, models.NewScrapeError(
			models.ErrCodeTransport,
			fmt.Sprintf("profile request returned HTTP %d", resp.StatusCode),
			nil,
		)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, categorizeError(err, "failed to read profile response")
	}

	if needsBrowser(body) {
		slog.Warn("profile page looks JavaScript-rendered; http mode may extract few fields",
			"steamID", steamID,
		)
	}

	return &PageResult{
		HTML:        string(body),
		Title:       extractTitle(body),
		StatusCode:  resp.StatusCode,
		FinalURL:    resp.Request.URL.String(),
		FetchMethod: FetchMethodHTTP,
		Elapsed:     time.Since(start),
	}, nil
}

// Close satisfies the fetcher contract; there is nothing persistent to
// release.
func (f *HTTPFetcher) Close() error { return nil }

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via
// utls. SOCKS5 proxies are dialed through x/net/proxy; HTTP proxies are
// handled by the transport.
func dialTLSChrome(ctx context.Context, network, addr, proxy string) (net.Conn, error) {
	var rawConn net.Conn
	var err error

	dialer := &net.Dialer{}

	if proxy != "" {
		if proxyURL, parseErr := url.Parse(proxy); parseErr == nil &&
			(proxyURL.Scheme == "socks5" || proxyURL.Scheme == "socks5h") {
			socksDialer, socksErr := xproxy.FromURL(proxyURL, dialer)
			if socksErr != nil {
				return nil, fmt.Errorf("socks5 dialer: %w", socksErr)
			}
			if cd, ok := socksDialer.(xproxy.ContextDialer); ok {
				rawConn, err = cd.DialContext(ctx, network, addr)
			} else {
				rawConn, err = socksDialer.Dial(network, addr)
			}
			if err != nil {
				return nil, fmt.Errorf("socks5 dial: %w", err)
			}
		}
	}

	if rawConn == nil {
		rawConn, err = dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName:         host,
		InsecureSkipVerify: false,
	}, tls2.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}

var reNoscript = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)

// needsBrowser reports whether the fetched HTML is likely a JavaScript
// shell the http mode cannot see through: near-empty body text, an empty
// SPA root container, a noscript warning, or many scripts with little text.
func needsBrowser(body []byte) bool {
	bodyText := extractVisibleText(body)
	if len(bodyText) < 200 {
		return true
	}

	lower := strings.ToLower(string(body))
	for _, root := range []string{`<div id="root"></div>`, `<div id="app"></div>`, `<div id="__next"></div>`} {
		if strings.Contains(lower, root) {
			return true
		}
	}
	if reNoscript.MatchString(lower) {
		return true
	}
	return strings.Count(lower, "<script") > 10 && len(bodyText) < 500
}

// extractTitle extracts the <title> content from raw HTML bytes.
func extractTitle(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				if tokenizer.Next() == html.TextToken {
					return strings.TrimSpace(string(tokenizer.Text()))
				}
				return ""
			}
		}
	}
}

// extractVisibleText extracts the visible text from within <body>, stripping
// all tags and <script>/<style> content. Used for heuristic analysis only.
func extractVisibleText(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var buf strings.Builder
	inBody := false
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "body" {
				inBody = true
			}
			if tag == "script" || tag == "style" || tag == "noscript" {
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "script" || tag == "style" || tag == "noscript" {
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				text := strings.TrimSpace(string(tokenizer.Text()))
				if text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
