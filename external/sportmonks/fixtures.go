package sportmonks

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/riskibarqy/fixture-insight/internal/domain/reference"
	"github.com/riskibarqy/fixture-insight/internal/usecase"
)

const (
	includeFixture = "participants;scores;state;lineups.details.type;odds"
	dateLayout     = "2006-01-02"
)

// FetchFixturesInWindow returns the fixtures scheduled between the
// calendar days of start and end (UTC), inclusive.
func (c *Client) FetchFixturesInWindow(ctx context.Context, start, end time.Time) ([]usecase.ExternalRecord, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: window end before start", usecase.ErrInvalidInput)
	}
	path := fmt.Sprintf("/football/fixtures/between/%s/%s", start.UTC().Format(dateLayout), end.UTC().Format(dateLayout))
	return c.fetchList(ctx, "fetch_fixtures_in_window", path, url.Values{"include": {includeFixture}})
}

func (c *Client) FetchFixturesByLeague(ctx context.Context, leagueID int64) ([]usecase.ExternalRecord, error) {
	if leagueID <= 0 {
		return nil, fmt.Errorf("%w: league id must be greater than zero", usecase.ErrInvalidInput)
	}
	path := fmt.Sprintf("/football/fixtures/league/%d", leagueID)
	return c.fetchList(ctx, "fetch_fixtures_by_league", path, url.Values{"include": {includeFixture}})
}

func (c *Client) FetchContinents(ctx context.Context) ([]usecase.ExternalRecord, error) {
	return c.fetchList(ctx, "fetch_continents", "/core/continents", nil)
}

func (c *Client) FetchCountries(ctx context.Context) ([]usecase.ExternalRecord, error) {
	return c.fetchList(ctx, "fetch_countries", "/core/countries", nil)
}

func (c *Client) FetchLeagues(ctx context.Context) ([]usecase.ExternalRecord, error) {
	return c.fetchList(ctx, "fetch_leagues", "/football/leagues", nil)
}

func (c *Client) FetchTeams(ctx context.Context) ([]usecase.ExternalRecord, error) {
	return c.fetchList(ctx, "fetch_teams", "/football/teams", nil)
}

func (c *Client) FetchPlayers(ctx context.Context) ([]usecase.ExternalRecord, error) {
	return c.fetchList(ctx, "fetch_players", "/football/players", nil)
}

func (c *Client) FetchLeaguesByCountry(ctx context.Context, countryID int64) ([]usecase.ExternalRecord, error) {
	if countryID <= 0 {
		return nil, fmt.Errorf("%w: country id must be greater than zero", usecase.ErrInvalidInput)
	}
	return c.fetchList(ctx, "fetch_leagues_by_country", fmt.Sprintf("/football/leagues/countries/%d", countryID), nil)
}

// FetchReference dispatches to the list endpoint for kind.
func (c *Client) FetchReference(ctx context.Context, kind reference.Kind) ([]usecase.ExternalRecord, error) {
	switch kind {
	case reference.KindContinent:
		return c.FetchContinents(ctx)
	case reference.KindCountry:
		return c.FetchCountries(ctx)
	case reference.KindLeague:
		return c.FetchLeagues(ctx)
	case reference.KindTeam:
		return c.FetchTeams(ctx)
	case reference.KindPlayer:
		return c.FetchPlayers(ctx)
	}
	return nil, fmt.Errorf("%w: %w %q", usecase.ErrInvalidInput, reference.ErrUnknownKind, kind)
}
