package payload

import "math"

const UnknownCompetition = "Unknown Competition"

// Placeholder values used when the provider has nothing for a field.
// They are not real analytics.

func DefaultTeamStats(side Side) TeamStats {
	if side == SideAway {
		return TeamStats{
			RecentForm:           []string{"L", "W", "D", "L", "W"},
			GoalsScored:          12,
			GoalsConceded:        10,
			MatchesPlayed:        10,
			AverageGoalsPerMatch: 1.2,
			AwayRecord:           &Record{Wins: 2, Draws: 2, Losses: 1},
			HeadToHead:           HeadToHead{Wins: 1, Draws: 1, Losses: 3},
		}
	}
	return TeamStats{
		RecentForm:           []string{"W", "W", "D", "L", "W"},
		GoalsScored:          15,
		GoalsConceded:        8,
		MatchesPlayed:        10,
		AverageGoalsPerMatch: 1.5,
		HomeRecord:           &Record{Wins: 4, Draws: 1, Losses: 0},
		HeadToHead:           HeadToHead{Wins: 3, Draws: 1, Losses: 1},
	}
}

func DefaultPlayerStats() []PlayerStat {
	return []PlayerStat{
		{Name: "Player A", RecentGoals: 5, Assists: 2, MinutesPlayed: 450},
		{Name: "Player B", RecentGoals: 3, Assists: 4, MinutesPlayed: 430},
	}
}

func DefaultBettingOdds() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"match_winner":   {"team1": 2.1, "draw": 3.4, "team2": 3.2},
		"over_under_2_5": {"over": 1.9, "under": 1.95},
	}
}

// BuildTeamStats fills every field of obs that is missing with the
// side's default. h2h nil also falls back.
func BuildTeamStats(side Side, obs *TeamObservation, h2h *HeadToHead) TeamStats {
	out := DefaultTeamStats(side)
	if h2h != nil {
		out.HeadToHead = *h2h
	}
	if obs == nil {
		return out
	}

	if len(obs.RecentForm) > 0 {
		out.RecentForm = append([]string(nil), obs.RecentForm...)
	}
	if obs.GoalsScored != nil {
		out.GoalsScored = *obs.GoalsScored
	}
	if obs.GoalsConceded != nil {
		out.GoalsConceded = *obs.GoalsConceded
	}
	if obs.MatchesPlayed != nil {
		out.MatchesPlayed = *obs.MatchesPlayed
	}

	switch {
	case obs.AverageGoalsPerMatch != nil:
		out.AverageGoalsPerMatch = *obs.AverageGoalsPerMatch
	case obs.GoalsScored != nil && obs.MatchesPlayed != nil && *obs.MatchesPlayed > 0:
		out.AverageGoalsPerMatch = round2(float64(*obs.GoalsScored) / float64(*obs.MatchesPlayed))
	}

	if side == SideAway && obs.AwayRecord != nil {
		record := *obs.AwayRecord
		out.AwayRecord = &record
	}
	if side == SideHome && obs.HomeRecord != nil {
		record := *obs.HomeRecord
		out.HomeRecord = &record
	}
	return out
}

// Mirror flips a head-to-head tally to the opponent's perspective.
func (h HeadToHead) Mirror() HeadToHead {
	return HeadToHead{Wins: h.Losses, Draws: h.Draws, Losses: h.Wins}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
