package usecase

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/fixture-insight/internal/domain/fixture"
)

// fixtureRecord is the typed view over a provider fixture body. Nested
// relations stay raw until a caller needs them so one malformed include
// does not hide the rest of the record.
type fixtureRecord struct {
	ID                  int64           `json:"id"`
	SeasonID            int64           `json:"season_id"`
	LeagueID            int64           `json:"league_id"`
	CountryID           int64           `json:"country_id"`
	StateID             int64           `json:"state_id"`
	ResultInfo          string          `json:"result_info"`
	StartingAt          string          `json:"starting_at"`
	StartingAtTimestamp int64           `json:"starting_at_timestamp"`
	HomeTeamID          int64           `json:"home_team_id"`
	AwayTeamID          int64           `json:"away_team_id"`
	HomeScore           *int            `json:"home_score"`
	AwayScore           *int            `json:"away_score"`
	Participants        json.RawMessage `json:"participants"`
	Scores              json.RawMessage `json:"scores"`
	Lineups             json.RawMessage `json:"lineups"`
	Odds                json.RawMessage `json:"odds"`
}

type participant struct {
	ID   int64           `json:"id"`
	Name string          `json:"name"`
	Meta participantMeta `json:"meta"`
}

type participantMeta struct {
	Location string `json:"location"`
	Winner   any    `json:"winner"`
}

type scoreItem struct {
	ParticipantID int64  `json:"participant_id"`
	Description   string `json:"description"`
	Score         struct {
		Goals       *int   `json:"goals"`
		Participant string `json:"participant"`
	} `json:"score"`
}

func decodeFixtureRecord(body []byte) (fixtureRecord, error) {
	var rec fixtureRecord
	if err := sonic.Unmarshal(body, &rec); err != nil {
		return fixtureRecord{}, err
	}
	return rec, nil
}

// participants returns the participant list and whether the field was
// a JSON array.
func (r fixtureRecord) participants() ([]participant, bool) {
	if !isJSONArray(r.Participants) {
		return nil, false
	}
	var out []participant
	if err := sonic.Unmarshal(r.Participants, &out); err != nil {
		return nil, false
	}
	return out, true
}

// homeAway orders a two-team list: the "home" entry first when marked,
// otherwise list order.
func homeAway(items []participant) (participant, participant) {
	home, away := items[0], items[1]
	if strings.EqualFold(strings.TrimSpace(away.Meta.Location), "home") ||
		strings.EqualFold(strings.TrimSpace(home.Meta.Location), "away") {
		home, away = away, home
	}
	return home, away
}

func (r fixtureRecord) matchDate() *time.Time {
	value := strings.TrimSpace(r.StartingAt)
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	if r.StartingAtTimestamp > 0 {
		v := time.Unix(r.StartingAtTimestamp, 0).UTC()
		return &v
	}
	return nil
}

// toFixture projects the well-known keys and embeds body verbatim.
func (r fixtureRecord) toFixture(body []byte) fixture.Fixture {
	out := fixture.Fixture{
		ID:         r.ID,
		SeasonID:   r.SeasonID,
		LeagueID:   r.LeagueID,
		CountryID:  r.CountryID,
		Status:     fixtureStatus(r.StateID, r.ResultInfo),
		HomeTeamID: r.HomeTeamID,
		AwayTeamID: r.AwayTeamID,
		HomeScore:  r.HomeScore,
		AwayScore:  r.AwayScore,
		MatchDate:  r.matchDate(),
		Data:       json.RawMessage(append([]byte(nil), body...)),
	}

	if items, ok := r.participants(); ok && len(items) == 2 {
		home, away := homeAway(items)
		if out.HomeTeamID == 0 {
			out.HomeTeamID = home.ID
		}
		if out.AwayTeamID == 0 {
			out.AwayTeamID = away.ID
		}
		if out.HomeScore == nil && out.AwayScore == nil {
			out.HomeScore, out.AwayScore = r.currentScores(home.ID, away.ID)
		}
	}
	return out
}

// currentScores reads the CURRENT score rows, the provider's running total.
func (r fixtureRecord) currentScores(homeID, awayID int64) (*int, *int) {
	if !isJSONArray(r.Scores) {
		return nil, nil
	}
	var items []scoreItem
	if err := sonic.Unmarshal(r.Scores, &items); err != nil {
		return nil, nil
	}

	var home, away *int
	for _, item := range items {
		if !strings.EqualFold(strings.TrimSpace(item.Description), "current") || item.Score.Goals == nil {
			continue
		}
		goals := *item.Score.Goals
		switch {
		case item.ParticipantID == homeID || strings.EqualFold(item.Score.Participant, "home"):
			home = &goals
		case item.ParticipantID == awayID || strings.EqualFold(item.Score.Participant, "away"):
			away = &goals
		}
	}
	return home, away
}

func fixtureStatus(stateID int64, resultInfo string) string {
	switch stateID {
	case 1:
		return fixture.StatusScheduled
	case 2, 3, 4, 6, 7, 8, 9:
		return fixture.StatusLive
	case 5, 13, 14:
		return fixture.StatusFinished
	case 10:
		return fixture.StatusPostponed
	case 11, 12:
		return fixture.StatusCancelled
	}

	info := strings.ToLower(resultInfo)
	switch {
	case strings.Contains(info, "postpon"):
		return fixture.StatusPostponed
	case strings.Contains(info, "cancel"), strings.Contains(info, "abandon"):
		return fixture.StatusCancelled
	case strings.Contains(info, "won"), strings.Contains(info, "draw"), strings.Contains(info, "finish"):
		return fixture.StatusFinished
	default:
		return fixture.StatusScheduled
	}
}

func isJSONArray(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
