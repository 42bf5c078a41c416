package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/riskibarqy/fixture-insight/internal/domain/payload"
	"github.com/riskibarqy/fixture-insight/internal/domain/reference"
)

// ExternalRecord is one element of a provider "data" array, kept verbatim.
type ExternalRecord struct {
	ID   int64
	Body json.RawMessage
}

type FixtureProvider interface {
	FetchFixturesInWindow(ctx context.Context, start, end time.Time) ([]ExternalRecord, error)
	FetchFixturesByLeague(ctx context.Context, leagueID int64) ([]ExternalRecord, error)
}

type StatisticsProvider interface {
	// FetchTeamStatistics fails with ErrNotFound for unknown teams.
	FetchTeamStatistics(ctx context.Context, teamID int64) (payload.TeamObservation, error)
	// FetchHeadToHead counts results from team1's perspective.
	FetchHeadToHead(ctx context.Context, team1ID, team2ID int64) (payload.HeadToHead, error)
	// FetchCompetitionName never fails; it returns payload.UnknownCompetition instead.
	FetchCompetitionName(ctx context.Context, leagueID int64) string
}

type ReferenceProvider interface {
	FetchReference(ctx context.Context, kind reference.Kind) ([]ExternalRecord, error)
	FetchLeaguesByCountry(ctx context.Context, countryID int64) ([]ExternalRecord, error)
}

// ReferenceReader reads synced reference entities.
type ReferenceReader interface {
	Get(ctx context.Context, kind reference.Kind, id int64) (reference.Entity, bool, error)
}

type AssistantProvider interface {
	// FetchInstructions reads the assistant's current system prompt.
	FetchInstructions(ctx context.Context) (string, error)
	StreamCompletion(ctx context.Context, systemPrompt, userMessage string) (CompletionStream, error)
}

// CompletionStream yields text deltas in order and io.EOF at the end.
type CompletionStream interface {
	Recv() (string, error)
	Close() error
}
