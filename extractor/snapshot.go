package extractor

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Snapshot is an immutable, fully materialised copy of a rendered page.
// The engine reads only this tree; it never touches the live browser, so
// extraction is a pure function of the snapshot.
type Snapshot struct {
	doc      *goquery.Document
	Title    string
	FinalURL string
}

// NewSnapshot parses rawHTML into a snapshot. A non-empty containerSelector
// scopes the tree to the matching page region before parsing; when the
// selector matches nothing, the full document is kept so extraction still
// has something to read.
func NewSnapshot(rawHTML, title, finalURL, containerSelector string) (*Snapshot, error) {
	if containerSelector != "" {
		scoped, err := scopeToContainer(rawHTML, containerSelector)
		if err != nil {
			return nil, err
		}
		rawHTML = scoped
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}

	return &Snapshot{doc: doc, Title: title, FinalURL: finalURL}, nil
}

// scopeToContainer matches elements against the CSS selector and returns the
// concatenated outer HTML of all matches. No matches returns the original
// HTML unchanged.
func scopeToContainer(rawHTML, selector string) (string, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return "", err
	}

	node, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	matches := cascadia.QueryAll(node, sel)
	if len(matches) == 0 {
		return rawHTML, nil
	}

	var buf bytes.Buffer
	for _, m := range matches {
		if err := html.Render(&buf, m); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
