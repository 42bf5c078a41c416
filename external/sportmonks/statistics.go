package sportmonks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/fixture-insight/internal/domain/payload"
	"github.com/riskibarqy/fixture-insight/internal/usecase"
)

const (
	includeTeamStatistics = "statistics.details.type;latest.participants"
	maxRecentForm         = 5
)

// Statistic type ids used by team season statistics.
const (
	typeGoals         = 52
	typeGoalsConceded = 88
	typeWins          = 214
	typeDraws         = 215
	typeLost          = 216
)

type teamDetails struct {
	ID         int64            `json:"id"`
	Name       string           `json:"name"`
	Statistics []seasonStats    `json:"statistics"`
	Latest     []fixtureSummary `json:"latest"`
}

type seasonStats struct {
	SeasonID int64        `json:"season_id"`
	Details  []statDetail `json:"details"`
}

type statDetail struct {
	TypeID int64 `json:"type_id"`
	Type   *struct {
		Code          string `json:"code"`
		DeveloperName string `json:"developer_name"`
	} `json:"type"`
	Value statValue `json:"value"`
}

type statValue struct {
	All  *statCount `json:"all"`
	Home *statCount `json:"home"`
	Away *statCount `json:"away"`
}

type statCount struct {
	Count   *int     `json:"count"`
	Average *float64 `json:"average"`
}

type fixtureSummary struct {
	ID           int64                `json:"id"`
	StartingAt   string               `json:"starting_at"`
	Timestamp    int64                `json:"starting_at_timestamp"`
	Participants []fixtureParticipant `json:"participants"`
}

type fixtureParticipant struct {
	ID   int64 `json:"id"`
	Meta struct {
		Location string `json:"location"`
		Winner   *bool  `json:"winner"`
	} `json:"meta"`
}

func (d statDetail) kind() int64 {
	if d.TypeID > 0 {
		return d.TypeID
	}
	if d.Type == nil {
		return 0
	}
	code := strings.ToLower(strings.TrimSpace(d.Type.Code))
	if code == "" {
		code = strings.ToLower(strings.TrimSpace(d.Type.DeveloperName))
	}
	switch strings.ReplaceAll(code, "_", "-") {
	case "goals":
		return typeGoals
	case "goals-conceded":
		return typeGoalsConceded
	case "wins", "team-wins":
		return typeWins
	case "draws", "team-draws":
		return typeDraws
	case "lost", "team-lost":
		return typeLost
	}
	return 0
}

// FetchTeamStatistics returns the observed season statistics and recent
// form for a team. Unknown teams fail with usecase.ErrNotFound.
func (c *Client) FetchTeamStatistics(ctx context.Context, teamID int64) (payload.TeamObservation, error) {
	const operation = "fetch_team_statistics"
	if teamID <= 0 {
		return payload.TeamObservation{}, fmt.Errorf("%w: team id must be greater than zero", usecase.ErrInvalidInput)
	}

	raw, err := c.fetch(ctx, operation, fmt.Sprintf("/football/teams/%d", teamID), url.Values{"include": {includeTeamStatistics}})
	if err != nil {
		if isNotFound(err) {
			return payload.TeamObservation{}, fmt.Errorf("%w: team id=%d: %w", usecase.ErrNotFound, teamID, err)
		}
		return payload.TeamObservation{}, err
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return payload.TeamObservation{}, usecase.NewUpstreamError(operation, fmt.Errorf("decode team: %w", err))
	}
	switch strings.TrimSpace(string(env.Data)) {
	case "", "null", "[]", "{}":
		return payload.TeamObservation{}, fmt.Errorf("%w: team id=%d has no data", usecase.ErrNotFound, teamID)
	}

	var team teamDetails
	if err := sonic.Unmarshal(env.Data, &team); err != nil {
		return payload.TeamObservation{}, usecase.NewUpstreamError(operation, fmt.Errorf("decode team: %w", err))
	}
	return observeTeam(teamID, team), nil
}

func observeTeam(teamID int64, team teamDetails) payload.TeamObservation {
	obs := payload.TeamObservation{RecentForm: recentForm(teamID, team.Latest)}

	season := latestSeason(team.Statistics)
	var wins, draws, lost *statValue
	for i := range season.Details {
		detail := &season.Details[i]
		switch detail.kind() {
		case typeGoals:
			if all := detail.Value.All; all != nil {
				obs.GoalsScored = all.Count
				obs.AverageGoalsPerMatch = all.Average
			}
		case typeGoalsConceded:
			if all := detail.Value.All; all != nil {
				obs.GoalsConceded = all.Count
			}
		case typeWins:
			wins = &detail.Value
		case typeDraws:
			draws = &detail.Value
		case typeLost:
			lost = &detail.Value
		}
	}

	if w, d, l, ok := split(wins, draws, lost, func(v *statValue) *statCount { return v.All }); ok {
		played := w + d + l
		obs.MatchesPlayed = &played
	}
	if w, d, l, ok := split(wins, draws, lost, func(v *statValue) *statCount { return v.Home }); ok {
		obs.HomeRecord = &payload.Record{Wins: w, Draws: d, Losses: l}
	}
	if w, d, l, ok := split(wins, draws, lost, func(v *statValue) *statCount { return v.Away }); ok {
		obs.AwayRecord = &payload.Record{Wins: w, Draws: d, Losses: l}
	}
	return obs
}

// split reads one scope of the win/draw/loss details. ok is false when
// none of them carries a count for that scope.
func split(wins, draws, lost *statValue, scope func(*statValue) *statCount) (int, int, int, bool) {
	var seen bool
	read := func(v *statValue) int {
		if v == nil {
			return 0
		}
		c := scope(v)
		if c == nil || c.Count == nil {
			return 0
		}
		seen = true
		return *c.Count
	}
	w, d, l := read(wins), read(draws), read(lost)
	return w, d, l, seen
}

func latestSeason(items []seasonStats) seasonStats {
	var out seasonStats
	for _, item := range items {
		if len(item.Details) == 0 {
			continue
		}
		if out.Details == nil || item.SeasonID > out.SeasonID {
			out = item
		}
	}
	return out
}

// recentForm lists W/D/L for the team's latest finished fixtures,
// newest first.
func recentForm(teamID int64, fixtures []fixtureSummary) []string {
	sorted := append([]fixtureSummary(nil), fixtures...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Timestamp != sorted[j].Timestamp {
			return sorted[i].Timestamp > sorted[j].Timestamp
		}
		return sorted[i].StartingAt > sorted[j].StartingAt
	})

	out := make([]string, 0, maxRecentForm)
	for _, item := range sorted {
		if len(out) == maxRecentForm {
			break
		}
		if symbol, ok := resultFor(teamID, item.Participants); ok {
			out = append(out, symbol)
		}
	}
	return out
}

// resultFor reads the outcome from teamID's side. ok is false for
// fixtures without a result.
func resultFor(teamID int64, participants []fixtureParticipant) (string, bool) {
	var self, other *fixtureParticipant
	for i := range participants {
		if participants[i].ID == teamID {
			self = &participants[i]
		} else {
			other = &participants[i]
		}
	}
	if self == nil || self.Meta.Winner == nil {
		return "", false
	}
	switch {
	case *self.Meta.Winner:
		return "W", true
	case other != nil && other.Meta.Winner != nil && *other.Meta.Winner:
		return "L", true
	default:
		return "D", true
	}
}

// FetchHeadToHead tallies the pair's past results from team1's side.
func (c *Client) FetchHeadToHead(ctx context.Context, team1ID, team2ID int64) (payload.HeadToHead, error) {
	const operation = "fetch_head_to_head"
	if team1ID <= 0 || team2ID <= 0 {
		return payload.HeadToHead{}, fmt.Errorf("%w: team ids must be greater than zero", usecase.ErrInvalidInput)
	}

	path := fmt.Sprintf("/football/fixtures/head-to-head/%d/%d", team1ID, team2ID)
	records, err := c.fetchList(ctx, operation, path, url.Values{"include": {"participants"}})
	if err != nil {
		return payload.HeadToHead{}, err
	}

	var out payload.HeadToHead
	for _, record := range records {
		var item fixtureSummary
		if err := sonic.Unmarshal(record.Body, &item); err != nil {
			continue
		}
		switch symbol, _ := resultFor(team1ID, item.Participants); symbol {
		case "W":
			out.Wins++
		case "D":
			out.Draws++
		case "L":
			out.Losses++
		}
	}
	return out, nil
}

// FetchCompetitionName resolves a league's display name, or
// payload.UnknownCompetition when it cannot.
func (c *Client) FetchCompetitionName(ctx context.Context, leagueID int64) string {
	if leagueID <= 0 {
		return payload.UnknownCompetition
	}
	raw, err := c.fetch(ctx, "fetch_competition_name", fmt.Sprintf("/football/leagues/%d", leagueID), nil)
	if err != nil {
		return payload.UnknownCompetition
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	var league struct {
		Name string `json:"name"`
	}
	if err := sonic.Unmarshal(raw, &env); err != nil || sonic.Unmarshal(env.Data, &league) != nil {
		c.logger.WarnContext(ctx, "decode competition name failed", "league_id", leagueID)
		return payload.UnknownCompetition
	}
	if name := strings.TrimSpace(league.Name); name != "" {
		return name
	}
	return payload.UnknownCompetition
}
