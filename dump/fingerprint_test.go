package dump

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageFingerprintIgnoresText(t *testing.T) {
	a := pageFingerprint(`<html><body><div><h2>Checking your browser</h2><p>wait for s1mple</p></div></body></html>`)
	b := pageFingerprint(`<html><body><div><h2>Checking your browser</h2><p>wait for device</p></div></body></html>`)

	assert.Equal(t, a, b)
	assert.Equal(t, 0, hammingDistance(a, b))
}

func TestPageFingerprintSeparatesTemplates(t *testing.T) {
	wall := pageFingerprint(`<html><body><div class="challenge"><h2>Checking your browser</h2><p>wait</p></div></body></html>`)
	stats := pageFingerprint(`<html><head><title>t</title></head><body><h1>p</h1><table><tr><th>Metric</th></tr><tr><td>Kills</td></tr></table><ul><li>m</li></ul></body></html>`)

	assert.Greater(t, hammingDistance(wall, stats), similarThreshold)
}

func TestPageFingerprintEmptyInput(t *testing.T) {
	assert.Equal(t, uint64(0), pageFingerprint(""))
	assert.Equal(t, uint64(0), pageFingerprint("plain text without markup"))
}
