// Package dump persists pages that failed extraction so selector and
// keyword rules can be tuned offline against the exact HTML the browser
// rendered. Each failure yields two files in the dump directory:
//
//   - <steamid>-<unixts>.html: the raw rendered page
//   - <steamid>-<unixts>.md:   a markdown rendition, much easier to skim
//     when deciding whether the site changed its layout
package dump

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/Ar7340/CS2-Player-States/scraper"
)

const (
	// similarThreshold is the maximum Hamming distance between structural
	// fingerprints at which two pages count as the same template.
	similarThreshold = 3

	// maxSeen bounds the fingerprints remembered per process.
	maxSeen = 64
)

// Writer dumps failed pages into a single flat directory.
type Writer struct {
	dir  string
	conv *converter.Converter

	mu   sync.Mutex
	seen []uint64
}

// NewWriter creates the dump directory if needed and builds the markdown
// converter:
//
//   - base plugin: strips script, style, iframe, noscript, head, meta and
//     HTML comments, which are noise when reviewing a stats page.
//   - commonmark plugin: standard Markdown rendering.
//   - table plugin: stat tables survive conversion; minimal cell padding
//     keeps wide leaderboard tables readable.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dump directory %s: %w", dir, err)
	}
	return &Writer{
		dir: dir,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		),
	}, nil
}

// DumpFailure writes the HTML and markdown files for one failed player.
// Best effort: a dump problem is logged and swallowed, it must never turn
// a scrape failure into a run failure. page is never nil.
//
// Near-duplicate pages are skipped. A batch that hits a block wall fails
// hundreds of players on the same interstitial, and one copy of it is
// enough to tune the rules against.
func (w *Writer) DumpFailure(steamID string, page *scraper.PageResult, cause error) {
	fp := pageFingerprint(page.HTML)
	if w.alreadyDumped(fp) {
		slog.Debug("failure dump skipped, similar page already dumped",
			"steamID", steamID)
		return
	}

	stem := filepath.Join(w.dir, fmt.Sprintf("%s-%d", safeName(steamID), time.Now().Unix()))

	if err := os.WriteFile(stem+".html", []byte(page.HTML), 0o644); err != nil {
		slog.Warn("failure dump: writing html failed",
			"steamID", steamID,
			"error", err)
		return
	}

	md, err := w.conv.ConvertString(page.HTML, converter.WithDomain(domainOf(page.FinalURL)))
	if err != nil {
		slog.Warn("failure dump: markdown conversion failed",
			"steamID", steamID,
			"error", err)
		return
	}
	header := fmt.Sprintf("<!-- steamID=%s url=%s status=%d cause: %v -->\n\n",
		steamID, page.FinalURL, page.StatusCode, cause)
	if err := os.WriteFile(stem+".md", []byte(header+md), 0o644); err != nil {
		slog.Warn("failure dump: writing markdown failed",
			"steamID", steamID,
			"error", err)
		return
	}

	w.remember(fp)
	slog.Info("failure dump written",
		"steamID", steamID,
		"file", stem+".md")
}

// alreadyDumped reports whether a structurally similar page was dumped
// earlier in this process.
func (w *Writer) alreadyDumped(fp uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.seen {
		if hammingDistance(s, fp) <= similarThreshold {
			return true
		}
	}
	return false
}

func (w *Writer) remember(fp uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.seen) >= maxSeen {
		w.seen = w.seen[1:]
	}
	w.seen = append(w.seen, fp)
}

// domainOf extracts the hostname used to absolutise relative links in the
// markdown output. Empty on unparsable URLs, which the converter accepts.
func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// safeName keeps dump file names flat even if an identifier carries path
// separators or other hostile characters.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}
