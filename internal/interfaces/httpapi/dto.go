package httpapi

import (
	"encoding/json"
	"time"

	"github.com/riskibarqy/fixture-insight/internal/domain/fixture"
	"github.com/riskibarqy/fixture-insight/internal/domain/payload"
	"github.com/riskibarqy/fixture-insight/internal/domain/reference"
	"github.com/riskibarqy/fixture-insight/internal/usecase"
)

type fixtureDTO struct {
	ID               int64            `json:"id"`
	SeasonID         int64            `json:"season_id,omitempty"`
	LeagueID         int64            `json:"league_id,omitempty"`
	CountryID        int64            `json:"country_id,omitempty"`
	Status           string           `json:"status"`
	HomeTeamID       int64            `json:"home_team_id,omitempty"`
	AwayTeamID       int64            `json:"away_team_id,omitempty"`
	HomeScore        *int             `json:"home_score"`
	AwayScore        *int             `json:"away_score"`
	MatchDate        *time.Time       `json:"match_date"`
	HasPayload       bool             `json:"has_payload"`
	Payload          *payload.Payload `json:"payload,omitempty"`
	PayloadUpdatedAt *time.Time       `json:"payload_updated_at,omitempty"`
	Data             json.RawMessage  `json:"data,omitempty"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

type reconcileDTO struct {
	Count    int          `json:"count"`
	Fixtures []fixtureDTO `json:"fixtures"`
}

type referenceDTO struct {
	Kind     reference.Kind  `json:"kind"`
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	ParentID int64           `json:"parent_id,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

type syncDTO struct {
	Kind     reference.Kind `json:"kind"`
	Upserted int            `json:"upserted"`
}

// fixtureToDTO includes the raw record and payload only when withData is set.
func fixtureToDTO(item fixture.Fixture, withData bool) fixtureDTO {
	out := fixtureDTO{
		ID:               item.ID,
		SeasonID:         item.SeasonID,
		LeagueID:         item.LeagueID,
		CountryID:        item.CountryID,
		Status:           item.Status,
		HomeTeamID:       item.HomeTeamID,
		AwayTeamID:       item.AwayTeamID,
		HomeScore:        item.HomeScore,
		AwayScore:        item.AwayScore,
		MatchDate:        item.MatchDate,
		HasPayload:       item.Payload != nil,
		PayloadUpdatedAt: item.PayloadUpdatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
	if withData {
		out.Payload = item.Payload
		out.Data = item.Data
	}
	return out
}

func fixturesToDTO(items []fixture.Fixture) []fixtureDTO {
	out := make([]fixtureDTO, 0, len(items))
	for _, item := range items {
		out = append(out, fixtureToDTO(item, false))
	}
	return out
}

func reconcileToDTO(result usecase.ReconcileResult) reconcileDTO {
	return reconcileDTO{Count: result.Count, Fixtures: fixturesToDTO(result.Fixtures)}
}

func referencesToDTO(items []reference.Entity, withData bool) []referenceDTO {
	out := make([]referenceDTO, 0, len(items))
	for _, item := range items {
		dto := referenceDTO{
			Kind:     item.Kind,
			ID:       item.ID,
			Name:     item.Name,
			ParentID: item.ParentID,
		}
		if withData {
			dto.Data = item.Data
		}
		out = append(out, dto)
	}
	return out
}
