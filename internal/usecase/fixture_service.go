package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/fixture-insight/internal/domain/fixture"
)

const defaultFixtureListLimit = 200

// FixtureService reads stored fixtures.
type FixtureService struct {
	repo fixture.Repository
}

func NewFixtureService(repo fixture.Repository) *FixtureService {
	return &FixtureService{repo: repo}
}

func (s *FixtureService) List(ctx context.Context, limit int) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "FixtureService", "List")
	defer span.End()

	if limit <= 0 || limit > 1000 {
		limit = defaultFixtureListLimit
	}
	items, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}
	return items, nil
}

// ListByLeague reads the stored fixtures of one league, kickoff ascending.
// It never calls upstream.
func (s *FixtureService) ListByLeague(ctx context.Context, leagueID int64) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "FixtureService", "ListByLeague")
	defer span.End()

	if leagueID <= 0 {
		return nil, fmt.Errorf("%w: league id must be greater than zero", ErrInvalidInput)
	}
	items, err := s.repo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list fixtures league_id=%d: %w", leagueID, err)
	}
	return items, nil
}

func (s *FixtureService) Get(ctx context.Context, id int64) (fixture.Fixture, error) {
	if id <= 0 {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture id must be greater than zero", ErrInvalidInput)
	}
	item, found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("get fixture id=%d: %w", id, err)
	}
	if !found {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture id=%d", ErrNotFound, id)
	}
	return item, nil
}
