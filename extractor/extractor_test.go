package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ar7340/CS2-Player-States/models"
)

func mustSnapshot(t *testing.T, rawHTML, title string) *Snapshot {
	t.Helper()
	snap, err := NewSnapshot(rawHTML, title, "https://csstats.gg/player/76561198000000001", "")
	require.NoError(t, err)
	return snap
}

func TestExtractDisambiguatesKillsDeathsRounds(t *testing.T) {
	snap := mustSnapshot(t, `
		<html><head><title>s1mple | CS2 Stats</title></head><body>
		<h1>s1mple</h1>
		<div><span>Kills</span><span>4,821</span></div>
		<div><span>Deaths</span><span>3,190</span></div>
		<div><span>Rounds Played</span><span>18,452</span></div>
		</body></html>`, "s1mple | CS2 Stats")

	out, err := New().Extract(snap)
	require.NoError(t, err)

	assert.Equal(t, "s1mple", out.PlayerName)
	require.NotNil(t, out.Fields.Kills)
	assert.Equal(t, 4821, *out.Fields.Kills)
	require.NotNil(t, out.Fields.Deaths)
	assert.Equal(t, 3190, *out.Fields.Deaths)
	require.NotNil(t, out.Fields.RoundsPlayed)
	assert.Equal(t, 18452, *out.Fields.RoundsPlayed)

	// "Rounds Played" contains "played" but must never count as matches.
	assert.Nil(t, out.Fields.MatchesPlayed)
}

func TestExtractRatioAndPercentages(t *testing.T) {
	snap := mustSnapshot(t, `
		<html><body>
		<div class="cell"><span>K/D</span><div><span>1.34</span></div></div>
		<div class="cell"><span>Rating</span><div><span>1.21</span></div></div>
		<div><span>Win Rate</span><span>54%</span></div>
		<div><span>HS %</span><span>42%</span></div>
		<div><span>Clutch Success</span><span>31%</span></div>
		<div><span>Entry Success</span><span>38%</span></div>
		</body></html>`, "")

	out, err := New().Extract(snap)
	require.NoError(t, err)

	require.NotNil(t, out.Fields.KDRatio)
	assert.Equal(t, 1.34, *out.Fields.KDRatio)
	require.NotNil(t, out.Fields.HLTVRating)
	assert.Equal(t, 1.21, *out.Fields.HLTVRating)

	require.NotNil(t, out.Fields.WinRate)
	assert.Equal(t, "54%", *out.Fields.WinRate)
	require.NotNil(t, out.Fields.HeadshotPercent)
	assert.Equal(t, "42%", *out.Fields.HeadshotPercent)
	require.NotNil(t, out.Fields.ClutchSuccess)
	assert.Equal(t, "31%", *out.Fields.ClutchSuccess)
	require.NotNil(t, out.Fields.EntrySuccess)
	assert.Equal(t, "38%", *out.Fields.EntrySuccess)
}

func TestExtractADRAndDamage(t *testing.T) {
	snap := mustSnapshot(t, `
		<html><body>
		<div><span>ADR</span><span>85</span></div>
		<div><span>Total Damage</span><span>1,203,456</span></div>
		</body></html>`, "")

	out, err := New().Extract(snap)
	require.NoError(t, err)

	require.NotNil(t, out.Fields.ADR)
	assert.Equal(t, 85, *out.Fields.ADR)
	require.NotNil(t, out.Fields.TotalDamage)
	assert.Equal(t, 1203456, *out.Fields.TotalDamage)
}

func TestExtractMatchCounters(t *testing.T) {
	snap := mustSnapshot(t, `
		<html><body>
		<div><span>Matches Played</span><span>1,204</span></div>
		<div><span>Won</span><span>640</span></div>
		<div><span>Lost</span><span>512</span></div>
		<div><span>Tied</span><span>52</span></div>
		</body></html>`, "")

	out, err := New().Extract(snap)
	require.NoError(t, err)

	require.NotNil(t, out.Fields.MatchesPlayed)
	assert.Equal(t, 1204, *out.Fields.MatchesPlayed)
	require.NotNil(t, out.Fields.MatchesWon)
	assert.Equal(t, 640, *out.Fields.MatchesWon)
	require.NotNil(t, out.Fields.MatchesLost)
	assert.Equal(t, 512, *out.Fields.MatchesLost)
	require.NotNil(t, out.Fields.MatchesTied)
	assert.Equal(t, 52, *out.Fields.MatchesTied)
}

func TestExtractGuardsRejectOutOfRange(t *testing.T) {
	snap := mustSnapshot(t, `
		<html><body>
		<div><span>Kills</span><span>100</span></div>
		<div><span>Headshots</span><span>60000</span></div>
		<div><span>Rounds</span><span>800</span></div>
		</body></html>`, "")

	out, err := New().Extract(snap)
	require.NoError(t, err)

	require.NotNil(t, out.Fields.Kills)
	assert.Equal(t, 100, *out.Fields.Kills)

	// 60000 exceeds the headshot ceiling, 800 is below the round floor.
	assert.Nil(t, out.Fields.Headshots)
	assert.Nil(t, out.Fields.RoundsPlayed)
}

func TestExtractFallbackGrid(t *testing.T) {
	snap := mustSnapshot(t, `
		<html><body>
		<div class="row"><div>PLAYED</div><div><span>1,204</span></div></div>
		<div class="row"><div><span>4,821</span></div><div>KILLS</div></div>
		<div class="row"><div>WON</div><div class="spark"></div><div><span>640</span></div></div>
		</body></html>`, "")

	out, err := New().Extract(snap)
	require.NoError(t, err)

	// Value after the label, value before the label, and value two
	// siblings out past an empty spark element.
	require.NotNil(t, out.Fields.MatchesPlayed)
	assert.Equal(t, 1204, *out.Fields.MatchesPlayed)
	require.NotNil(t, out.Fields.Kills)
	assert.Equal(t, 4821, *out.Fields.Kills)
	require.NotNil(t, out.Fields.MatchesWon)
	assert.Equal(t, 640, *out.Fields.MatchesWon)
}

func TestExtractFallbackFillsOnlyUnsetFields(t *testing.T) {
	snap := mustSnapshot(t, `
		<html><body>
		<div><span>Kills</span><span>100</span></div>
		<div class="grid"><div>KILLS</div><div>999</div></div>
		</body></html>`, "")

	out, err := New().Extract(snap)
	require.NoError(t, err)

	require.NotNil(t, out.Fields.Kills)
	assert.Equal(t, 100, *out.Fields.Kills)
}

func TestExtractScopedToContainer(t *testing.T) {
	snap, err := NewSnapshot(`
		<html><body>
		<div id="stats"><div><span>Kills</span><span>500</span></div></div>
		<div id="sidebar"><div><span>Deaths</span><span>400</span></div></div>
		</body></html>`, "", "", "#stats")
	require.NoError(t, err)

	out, err := New().Extract(snap)
	require.NoError(t, err)

	require.NotNil(t, out.Fields.Kills)
	assert.Equal(t, 500, *out.Fields.Kills)
	assert.Nil(t, out.Fields.Deaths)
}

func TestExtractNoDataFound(t *testing.T) {
	snap := mustSnapshot(t, `
		<html><head><title>Error</title></head><body>
		<h1>Profile unavailable</h1>
		<p>This profile is private.</p>
		</body></html>`, "Error")

	out, err := New().Extract(snap)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, models.ErrCodeNoData, models.ErrorCode(err))
}

func TestExtractIsDeterministic(t *testing.T) {
	snap := mustSnapshot(t, `
		<html><body>
		<div class="cell"><span>K/D</span><div><span>1.34</span></div></div>
		<div><span>Kills</span><span>4,821</span></div>
		<div><span>HS %</span><span>42%</span></div>
		</body></html>`, "")

	ex := New()
	first, err := ex.Extract(snap)
	require.NoError(t, err)
	second, err := ex.Extract(snap)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestResolveName(t *testing.T) {
	cases := []struct {
		name  string
		html  string
		title string
		want  string
	}{
		{"heading wins", `<html><body><h1>device</h1></body></html>`, "other | CS2", "device"},
		{"heading whitespace collapsed", "<html><body><h1>\n  dupreeh  \n</h1></body></html>", "", "dupreeh"},
		{"pipe separator", `<html><body></body></html>`, "NiKo | CS2 Stats", "NiKo"},
		{"dash separator", `<html><body></body></html>`, "ropz - CS2 Stats", "ropz"},
		{"bare title", `<html><body></body></html>`, "karrigan", "karrigan"},
		{"nothing", `<html><body></body></html>`, "", "Unknown"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := mustSnapshot(t, tc.html, tc.title)
			assert.Equal(t, tc.want, resolveName(snap))
		})
	}
}
