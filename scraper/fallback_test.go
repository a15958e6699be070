package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Ar7340/CS2-Player-States/config"
)

func autoTestConfig(srvURL string) config.ScrapeConfig {
	return config.ScrapeConfig{
		ProfileURLPattern: srvURL + "/player/%s",
		FetchTimeout:      5 * time.Second,
	}
}

func TestAutoFetcherKeepsRenderedHTTPPage(t *testing.T) {
	page := `<html><head><title>s1mple | CS2 Stats</title></head><body><h1>s1mple</h1>` +
		strings.Repeat(`<div><span>Kills</span><span>4821</span></div>`, 20) +
		strings.Repeat(`<p>match history row with map name and score for padding</p>`, 10) +
		`</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	f := NewAutoFetcher(config.BrowserConfig{}, autoTestConfig(srv.URL))
	defer f.Close()

	got, err := f.FetchPlayer(context.Background(), "76561198000000001")
	if err != nil {
		t.Fatalf("FetchPlayer: %v", err)
	}
	if got.FetchMethod != FetchMethodHTTP {
		t.Errorf("FetchMethod = %q, want %q for a fully server-rendered page", got.FetchMethod, FetchMethodHTTP)
	}
	if got.Title != "s1mple | CS2 Stats" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", got.StatusCode)
	}
}

func TestAutoFetcherDoesNotEscalateCancelledFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Hold the response open until the client gives up, so the fetch
		// always fails with a cancellation rather than racing the body.
		cancel()
		<-r.Context().Done()
	}))
	defer srv.Close()

	f := NewAutoFetcher(config.BrowserConfig{}, autoTestConfig(srv.URL))
	defer f.Close()

	_, err := f.FetchPlayer(ctx, "76561198000000001")
	if err == nil {
		t.Fatal("expected an error for a cancelled fetch")
	}
	// A browser-start error here would mean the dead context escalated.
	if !strings.Contains(err.Error(), "cancel") {
		t.Errorf("error should reflect the cancellation, got %v", err)
	}
}

func TestAutoFetcherCloseBeforeAnyEscalation(t *testing.T) {
	f := NewAutoFetcher(config.BrowserConfig{}, config.ScrapeConfig{
		ProfileURLPattern: "https://stats.example/player/%s",
		FetchTimeout:      time.Second,
	})
	if err := f.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
