package scraper

import "time"

// Fetch method names recorded on every PageResult.
const (
	FetchMethodBrowser = "browser"
	FetchMethodHTTP    = "http"
)

// PageResult is the unified return type for both fetch modes.
type PageResult struct {
	// HTML is the rendered page HTML.
	HTML string

	// Title is the document title.
	Title string

	// StatusCode is the HTTP status of the main document, 0 when unknown.
	StatusCode int

	// FinalURL is the address after redirects.
	FinalURL string

	// FetchMethod records how the page was fetched: "http" or "browser".
	FetchMethod string

	// Elapsed is the wall time the fetch took.
	Elapsed time.Duration
}
