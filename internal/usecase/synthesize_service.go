package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/sourcegraph/conc"

	"github.com/riskibarqy/fixture-insight/internal/domain/fixture"
	"github.com/riskibarqy/fixture-insight/internal/domain/payload"
	"github.com/riskibarqy/fixture-insight/internal/domain/reference"
	"github.com/riskibarqy/fixture-insight/internal/platform/cache"
	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
)

const (
	stageLoadFixture    = "load_fixture"
	stageParticipants   = "participants"
	stagePersistPayload = "persist_payload"
)

type SynthesizeService struct {
	repo   fixture.Repository
	stats  StatisticsProvider
	refs   ReferenceReader
	cache  *cache.Loader
	logger *logging.Logger
}

// refs may be nil; competition names then always come from stats.
func NewSynthesizeService(repo fixture.Repository, stats StatisticsProvider, refs ReferenceReader, statsCache *cache.Loader, logger *logging.Logger) *SynthesizeService {
	if logger == nil {
		logger = logging.Default()
	}
	if statsCache == nil {
		statsCache = cache.NewLoader(cache.NewMemoryStore(), 0, logger)
	}
	return &SynthesizeService{
		repo:   repo,
		stats:  stats,
		refs:   refs,
		cache:  statsCache,
		logger: logger,
	}
}

// SynthesizePayload derives the analytics payload for a stored fixture,
// saves it on the fixture and returns it. Statistics failures fall back
// to defaults; a missing fixture or malformed participants do not.
func (s *SynthesizeService) SynthesizePayload(ctx context.Context, fixtureID int64) (payload.Payload, error) {
	ctx, span := startUsecaseSpan(ctx, "SynthesizeService", "SynthesizePayload")
	defer span.End()

	if fixtureID <= 0 {
		return payload.Payload{}, fmt.Errorf("%w: fixture id must be greater than zero", ErrInvalidInput)
	}

	item, found, err := s.repo.GetByID(ctx, fixtureID)
	if err != nil {
		return payload.Payload{}, &SynthesisError{FixtureID: fixtureID, Stage: stageLoadFixture, Err: err}
	}
	if !found {
		return payload.Payload{}, &SynthesisError{FixtureID: fixtureID, Stage: stageLoadFixture, Err: ErrNotFound}
	}

	rec, err := decodeFixtureRecord(item.Data)
	if err != nil {
		return payload.Payload{}, &SynthesisError{FixtureID: fixtureID, Stage: stageParticipants, Err: fmt.Errorf("%w: decode raw data: %v", ErrIncompleteData, err)}
	}
	participants, ok := rec.participants()
	if !ok || len(participants) != 2 {
		return payload.Payload{}, &SynthesisError{FixtureID: fixtureID, Stage: stageParticipants, Err: fmt.Errorf("%w: expected exactly two participants", ErrIncompleteData)}
	}
	team1, team2 := homeAway(participants)
	if team1.ID <= 0 || team2.ID <= 0 {
		return payload.Payload{}, &SynthesisError{FixtureID: fixtureID, Stage: stageParticipants, Err: fmt.Errorf("%w: participant without team id", ErrIncompleteData)}
	}

	leagueID := item.LeagueID
	if leagueID == 0 {
		leagueID = rec.LeagueID
	}

	var (
		obs1, obs2  *payload.TeamObservation
		h2h         *payload.HeadToHead
		competition = payload.UnknownCompetition
		wg          conc.WaitGroup
	)
	wg.Go(func() { obs1 = s.teamStatistics(ctx, team1.ID) })
	wg.Go(func() { obs2 = s.teamStatistics(ctx, team2.ID) })
	wg.Go(func() { h2h = s.headToHead(ctx, team1.ID, team2.ID) })
	wg.Go(func() { competition = s.competitionName(ctx, leagueID) })
	wg.Wait()

	var team2H2H *payload.HeadToHead
	if h2h != nil {
		mirrored := h2h.Mirror()
		team2H2H = &mirrored
	}

	out := payload.Payload{
		MatchInfo: payload.MatchInfo{
			Team1:       participantName(team1),
			Team2:       participantName(team2),
			Competition: competition,
			MatchDate:   matchDateText(item, rec),
		},
		TeamStats: payload.TeamStatsPair{
			Team1: payload.BuildTeamStats(payload.SideHome, obs1, h2h),
			Team2: payload.BuildTeamStats(payload.SideAway, obs2, team2H2H),
		},
		PlayerStats: playerStatsFromLineups(rec.Lineups),
		BettingOdds: bettingOddsFromRecord(rec.Odds),
	}

	if err := s.repo.SavePayload(ctx, fixtureID, out); err != nil {
		return payload.Payload{}, &SynthesisError{FixtureID: fixtureID, Stage: stagePersistPayload, Err: err}
	}

	s.logger.InfoContext(ctx, "fixture payload synthesized",
		"fixture_id", fixtureID,
		"team1_stats_observed", obs1 != nil,
		"team2_stats_observed", obs2 != nil,
		"competition", competition,
	)
	return out, nil
}

func (s *SynthesizeService) teamStatistics(ctx context.Context, teamID int64) *payload.TeamObservation {
	var obs payload.TeamObservation
	err := s.cached(ctx, fmt.Sprintf("team-stats:%d", teamID), &obs, func(ctx context.Context) (any, error) {
		return s.stats.FetchTeamStatistics(ctx, teamID)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "team statistics unavailable, using defaults", "team_id", teamID, "error", err)
		return nil
	}
	return &obs
}

func (s *SynthesizeService) headToHead(ctx context.Context, team1ID, team2ID int64) *payload.HeadToHead {
	var h2h payload.HeadToHead
	err := s.cached(ctx, fmt.Sprintf("h2h:%d:%d", team1ID, team2ID), &h2h, func(ctx context.Context) (any, error) {
		return s.stats.FetchHeadToHead(ctx, team1ID, team2ID)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "head-to-head unavailable, using defaults", "team1_id", team1ID, "team2_id", team2ID, "error", err)
		return nil
	}
	return &h2h
}

func (s *SynthesizeService) competitionName(ctx context.Context, leagueID int64) string {
	if leagueID <= 0 {
		return payload.UnknownCompetition
	}
	if name := s.storedLeagueName(ctx, leagueID); name != "" {
		return name
	}
	var name string
	err := s.cached(ctx, fmt.Sprintf("competition:%d", leagueID), &name, func(ctx context.Context) (any, error) {
		resolved := s.stats.FetchCompetitionName(ctx, leagueID)
		if resolved == "" || resolved == payload.UnknownCompetition {
			return nil, fmt.Errorf("%w: league %d has no name", ErrNotFound, leagueID)
		}
		return resolved, nil
	})
	if err != nil {
		return payload.UnknownCompetition
	}
	return name
}

// storedLeagueName returns "" when the league was never synced.
func (s *SynthesizeService) storedLeagueName(ctx context.Context, leagueID int64) string {
	if s.refs == nil {
		return ""
	}
	entity, found, err := s.refs.Get(ctx, reference.KindLeague, leagueID)
	if err != nil {
		s.logger.WarnContext(ctx, "stored league lookup failed, asking upstream", "league_id", leagueID, "error", err)
		return ""
	}
	if !found {
		return ""
	}
	return strings.TrimSpace(entity.Name)
}

// cached reads key into target, loading and encoding it on a miss.
func (s *SynthesizeService) cached(ctx context.Context, key string, target any, load func(context.Context) (any, error)) error {
	raw, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) ([]byte, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return sonic.Marshal(value)
	})
	if err != nil {
		return err
	}
	return sonic.Unmarshal(raw, target)
}

func participantName(p participant) string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return fmt.Sprintf("Team %d", p.ID)
}

func matchDateText(item fixture.Fixture, rec fixtureRecord) string {
	if item.MatchDate != nil {
		return item.MatchDate.UTC().Format(time.RFC3339)
	}
	if parsed := rec.matchDate(); parsed != nil {
		return parsed.Format(time.RFC3339)
	}
	return strings.TrimSpace(rec.StartingAt)
}
