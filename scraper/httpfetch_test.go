package scraper

import (
	"strings"
	"testing"
)

func TestNeedsBrowser_EmptyShell(t *testing.T) {
	body := []byte(`<html><head><title>Stats</title></head><body><div id="root"></div></body></html>`)
	if !needsBrowser(body) {
		t.Error("empty SPA root should need a browser")
	}
}

func TestNeedsBrowser_NoscriptWarning(t *testing.T) {
	filler := strings.Repeat("profile statistics and match history for this player. ", 10)
	body := []byte(`<html><body><noscript>Please enable JavaScript to view this page</noscript><p>` + filler + `</p></body></html>`)
	if !needsBrowser(body) {
		t.Error("noscript JavaScript warning should need a browser")
	}
}

func TestNeedsBrowser_RenderedContent(t *testing.T) {
	filler := strings.Repeat("kills deaths assists rounds and damage for the player. ", 20)
	body := []byte(`<html><body><h1>player</h1><p>` + filler + `</p></body></html>`)
	if needsBrowser(body) {
		t.Error("server-rendered page should not need a browser")
	}
}

func TestExtractTitle_Basic(t *testing.T) {
	body := []byte(`<html><head><title> s1mple | CS2 Stats </title></head><body></body></html>`)
	if got := extractTitle(body); got != "s1mple | CS2 Stats" {
		t.Errorf("extractTitle returned %q", got)
	}
}

func TestExtractTitle_Missing(t *testing.T) {
	body := []byte(`<html><head></head><body><p>no title</p></body></html>`)
	if got := extractTitle(body); got != "" {
		t.Errorf("expected empty title, got %q", got)
	}
}

func TestExtractVisibleText_SkipsScripts(t *testing.T) {
	body := []byte(`<html><body><script>var hidden = 1;</script><p>visible</p><style>.x{}</style></body></html>`)
	text := extractVisibleText(body)
	if !strings.Contains(text, "visible") {
		t.Errorf("visible text missing: %q", text)
	}
	if strings.Contains(text, "hidden") {
		t.Errorf("script content leaked into visible text: %q", text)
	}
}

func TestIsAdDomain_ParentWalk(t *testing.T) {
	cases := []struct {
		host string
		want bool
	}{
		{"doubleclick.net", true},
		{"pagead2.googlesyndication.com", true},
		{"stats.g.doubleclick.net", true},
		{"csstats.gg", false},
		{"steamcommunity.com", false},
		{"notdoubleclick.example", false},
	}
	for _, tc := range cases {
		if got := isAdDomain(tc.host); got != tc.want {
			t.Errorf("isAdDomain(%q) = %v, want %v", tc.host, got, tc.want)
		}
	}
}
