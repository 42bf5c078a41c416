package postgres

import (
	"database/sql"
	"time"
)

const fixtureColumns = "id, season_id, league_id, country_id, status, home_team_id, away_team_id, " +
	"home_score, away_score, match_date, data, payload, payload_updated_at, created_at, updated_at"

type fixtureTableModel struct {
	ID               int64         `db:"id"`
	SeasonID         int64         `db:"season_id"`
	LeagueID         int64         `db:"league_id"`
	CountryID        int64         `db:"country_id"`
	Status           string        `db:"status"`
	HomeTeamID       int64         `db:"home_team_id"`
	AwayTeamID       int64         `db:"away_team_id"`
	HomeScore        sql.NullInt64 `db:"home_score"`
	AwayScore        sql.NullInt64 `db:"away_score"`
	MatchDate        sql.NullTime  `db:"match_date"`
	Data             []byte        `db:"data"`
	Payload          []byte        `db:"payload"`
	PayloadUpdatedAt sql.NullTime  `db:"payload_updated_at"`
	CreatedAt        time.Time     `db:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at"`
}

// fixtureUpsertModel is the column set written on ingestion. The
// payload columns are absent so an upsert never touches them.
type fixtureUpsertModel struct {
	ID         int64         `db:"id"`
	SeasonID   int64         `db:"season_id"`
	LeagueID   int64         `db:"league_id"`
	CountryID  int64         `db:"country_id"`
	Status     string        `db:"status"`
	HomeTeamID int64         `db:"home_team_id"`
	AwayTeamID int64         `db:"away_team_id"`
	HomeScore  sql.NullInt64 `db:"home_score"`
	AwayScore  sql.NullInt64 `db:"away_score"`
	MatchDate  sql.NullTime  `db:"match_date"`
	Data       string        `db:"data"`
	CreatedAt  time.Time     `db:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at"`
}
