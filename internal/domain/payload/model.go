// Package payload defines the analytics document derived for a fixture
// and sent to the language model.
package payload

// Payload always carries every key; fields missing upstream hold defaults.
type Payload struct {
	MatchInfo   MatchInfo                     `json:"match_info"`
	TeamStats   TeamStatsPair                 `json:"team_stats"`
	PlayerStats []PlayerStat                  `json:"player_stats"`
	BettingOdds map[string]map[string]float64 `json:"betting_odds"`
}

type MatchInfo struct {
	Team1       string `json:"team1"`
	Team2       string `json:"team2"`
	Competition string `json:"competition"`
	MatchDate   string `json:"match_date"`
}

type TeamStatsPair struct {
	Team1 TeamStats `json:"team1"`
	Team2 TeamStats `json:"team2"`
}

// TeamStats carries HomeRecord for the home side and AwayRecord for the
// away side, never both.
type TeamStats struct {
	RecentForm           []string   `json:"recent_form"`
	GoalsScored          int        `json:"goals_scored"`
	GoalsConceded        int        `json:"goals_conceded"`
	MatchesPlayed        int        `json:"matches_played"`
	AverageGoalsPerMatch float64    `json:"average_goals_per_match"`
	HomeRecord           *Record    `json:"home_record,omitempty"`
	AwayRecord           *Record    `json:"away_record,omitempty"`
	HeadToHead           HeadToHead `json:"head_to_head"`
}

type Record struct {
	Wins   int `json:"wins"`
	Draws  int `json:"draws"`
	Losses int `json:"losses"`
}

type HeadToHead struct {
	Wins   int `json:"wins"`
	Draws  int `json:"draws"`
	Losses int `json:"losses"`
}

type PlayerStat struct {
	Name          string `json:"name"`
	RecentGoals   int    `json:"recent_goals"`
	Assists       int    `json:"assists"`
	MinutesPlayed int    `json:"minutes_played"`
}

type Side int

const (
	SideHome Side = iota + 1
	SideAway
)

// TeamObservation is what upstream statistics yielded for one team.
// Nil fields and an empty RecentForm mean "not observed".
type TeamObservation struct {
	RecentForm           []string
	GoalsScored          *int
	GoalsConceded        *int
	MatchesPlayed        *int
	AverageGoalsPerMatch *float64
	HomeRecord           *Record
	AwayRecord           *Record
}
