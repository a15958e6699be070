package models

import "time"

// StatFields is the fixed set of metrics the extraction engine can recognise.
// Every field is optional: nil means the page did not yield that metric.
// Percentage metrics keep the literal rendered text ("54%"), never a parsed
// number, so the stored value is exactly what the site displayed.
type StatFields struct {
	Kills         *int `json:"kills,omitempty"`
	Deaths        *int `json:"deaths,omitempty"`
	Assists       *int `json:"assists,omitempty"`
	Headshots     *int `json:"headshots,omitempty"`
	MatchesPlayed *int `json:"matches_played,omitempty"`
	MatchesWon    *int `json:"matches_won,omitempty"`
	MatchesLost   *int `json:"matches_lost,omitempty"`
	MatchesTied   *int `json:"matches_tied,omitempty"`
	RoundsPlayed  *int `json:"rounds_played,omitempty"`
	TotalDamage   *int `json:"total_damage,omitempty"`
	ADR           *int `json:"adr,omitempty"`

	KDRatio    *float64 `json:"kd_ratio,omitempty"`
	HLTVRating *float64 `json:"hltv_rating,omitempty"`

	WinRate         *string `json:"win_rate,omitempty"`
	HeadshotPercent *string `json:"headshot_percentage,omitempty"`
	ClutchSuccess   *string `json:"clutch_success,omitempty"`
	EntrySuccess    *string `json:"entry_success,omitempty"`
}

// Count returns the number of populated fields.
func (f *StatFields) Count() int {
	n := 0
	for _, p := range []*int{
		f.Kills, f.Deaths, f.Assists, f.Headshots,
		f.MatchesPlayed, f.MatchesWon, f.MatchesLost, f.MatchesTied,
		f.RoundsPlayed, f.TotalDamage, f.ADR,
	} {
		if p != nil {
			n++
		}
	}
	for _, p := range []*float64{f.KDRatio, f.HLTVRating} {
		if p != nil {
			n++
		}
	}
	for _, p := range []*string{f.WinRate, f.HeadshotPercent, f.ClutchSuccess, f.EntrySuccess} {
		if p != nil {
			n++
		}
	}
	return n
}

// StatRecord is the persisted scrape result for one player. At most one
// record exists per Steam ID.
type StatRecord struct {
	SteamID       string     `json:"steam_id"`
	PlayerName    string     `json:"player_name"`
	ProfileURL    string     `json:"profile_url"`
	Fields        StatFields `json:"fields"`
	LastAttemptAt time.Time  `json:"last_attempt_at"`
	Success       bool       `json:"success"`
	ErrorMessage  string     `json:"error_message,omitempty"`
}
