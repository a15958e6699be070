package extractor

import "github.com/Ar7340/CS2-Player-States/models"

// Numeric guards for the integer rules. The page renders lifetime totals and
// per-match averages side by side with similar labels; the bounds keep a
// five-digit round total from landing in a match counter and a three-digit
// average from landing in a lifetime total.
const (
	maxHeadshotCount = 50000
	maxMatchCount    = 10000
	minRoundCount    = 1000
	minDamageTotal   = 100000
	minADR           = 10
	maxADR           = 999
)

// integerRule routes one bare-integer node to a stat field. A node's context
// is its own text plus its parent's text, lowercased. The first rule whose
// keywords, exclusions and guard all pass claims the node; a claimed node is
// consumed even when its target field is already set, so one node never
// feeds two fields.
type integerRule struct {
	name       string
	keywords   []string       // at least one must appear in the context
	exclusions []string       // none may appear in the context
	guard      func(int) bool // nil means any value
	target     func(*models.StatFields) **int
}

// integerRules is evaluated in order. rounds_played sits above
// matches_played and matches_played excludes "round": a "Rounds Played"
// label must never count as matches.
var integerRules = []integerRule{
	{
		name:       "kills",
		keywords:   []string{"kill"},
		exclusions: []string{"death"},
		target:     func(f *models.StatFields) **int { return &f.Kills },
	},
	{
		name:       "deaths",
		keywords:   []string{"death"},
		exclusions: []string{"kill"},
		target:     func(f *models.StatFields) **int { return &f.Deaths },
	},
	{
		name:     "assists",
		keywords: []string{"assist"},
		target:   func(f *models.StatFields) **int { return &f.Assists },
	},
	{
		name:     "headshots",
		keywords: []string{"headshot"},
		guard:    func(v int) bool { return v < maxHeadshotCount },
		target:   func(f *models.StatFields) **int { return &f.Headshots },
	},
	{
		name:     "adr",
		keywords: []string{"adr"},
		guard:    func(v int) bool { return v >= minADR && v <= maxADR },
		target:   func(f *models.StatFields) **int { return &f.ADR },
	},
	{
		name:     "rounds_played",
		keywords: []string{"round"},
		guard:    func(v int) bool { return v > minRoundCount },
		target:   func(f *models.StatFields) **int { return &f.RoundsPlayed },
	},
	{
		name:     "total_damage",
		keywords: []string{"damage"},
		guard:    func(v int) bool { return v > minDamageTotal },
		target:   func(f *models.StatFields) **int { return &f.TotalDamage },
	},
	{
		name:       "matches_played",
		keywords:   []string{"played", "match"},
		exclusions: []string{"round"},
		target:     func(f *models.StatFields) **int { return &f.MatchesPlayed },
	},
	{
		name:     "matches_won",
		keywords: []string{"won"},
		guard:    func(v int) bool { return v < maxMatchCount },
		target:   func(f *models.StatFields) **int { return &f.MatchesWon },
	},
	{
		name:     "matches_lost",
		keywords: []string{"lost"},
		guard:    func(v int) bool { return v < maxMatchCount },
		target:   func(f *models.StatFields) **int { return &f.MatchesLost },
	},
	{
		name:     "matches_tied",
		keywords: []string{"tied"},
		guard:    func(v int) bool { return v < maxMatchCount },
		target:   func(f *models.StatFields) **int { return &f.MatchesTied },
	},
}

// fallbackLabel maps an exact uppercase grid label to its field. The grid
// variant of the page renders the label and the value as adjacent siblings
// with no other context.
type fallbackLabel struct {
	label  string
	target func(*models.StatFields) **int
}

var fallbackLabels = []fallbackLabel{
	{"PLAYED", func(f *models.StatFields) **int { return &f.MatchesPlayed }},
	{"KILLS", func(f *models.StatFields) **int { return &f.Kills }},
	{"DAMAGE", func(f *models.StatFields) **int { return &f.TotalDamage }},
	{"WON", func(f *models.StatFields) **int { return &f.MatchesWon }},
	{"DEATHS", func(f *models.StatFields) **int { return &f.Deaths }},
	{"ROUNDS", func(f *models.StatFields) **int { return &f.RoundsPlayed }},
	{"LOST", func(f *models.StatFields) **int { return &f.MatchesLost }},
	{"ASSISTS", func(f *models.StatFields) **int { return &f.Assists }},
	{"TIED", func(f *models.StatFields) **int { return &f.MatchesTied }},
	{"HEADSHOTS", func(f *models.StatFields) **int { return &f.Headshots }},
}
