package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fixture-insight/internal/domain/fixture"
	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
)

const (
	defaultReconcileWindow  = 24 * time.Hour
	defaultReconcileWorkers = 8
)

type ReconcileConfig struct {
	Window  time.Duration
	Workers int
}

// ReconcileResult lists the fixtures stored by one run, ordered by kickoff.
type ReconcileResult struct {
	Count    int               `json:"count"`
	Fixtures []fixture.Fixture `json:"-"`
}

type ReconcileService struct {
	provider FixtureProvider
	repo     fixture.Repository
	logger   *logging.Logger
	window   time.Duration
	workers  int
	now      func() time.Time
}

func NewReconcileService(provider FixtureProvider, repo fixture.Repository, logger *logging.Logger, cfg ReconcileConfig) *ReconcileService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultReconcileWindow
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultReconcileWorkers
	}
	return &ReconcileService{
		provider: provider,
		repo:     repo,
		logger:   logger,
		window:   cfg.Window,
		workers:  cfg.Workers,
		now:      time.Now,
	}
}

// ReconcileFixtures upserts every fixture kicking off within the window
// starting now. Per-fixture store failures do not stop the others; they
// are returned together as a *ReconciliationError after all upserts finish.
func (s *ReconcileService) ReconcileFixtures(ctx context.Context) (ReconcileResult, error) {
	ctx, span := startUsecaseSpan(ctx, "ReconcileService", "ReconcileFixtures")
	defer span.End()

	start := s.now().UTC()
	end := start.Add(s.window)
	records, err := s.provider.FetchFixturesInWindow(ctx, start, end)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("fetch fixtures %s..%s: %w", start.Format(time.DateOnly), end.Format(time.DateOnly), err)
	}

	result, err := s.upsertAll(ctx, records)
	span.SetAttributes(attribute.Int("fixtures.fetched", len(records)), attribute.Int("fixtures.upserted", result.Count))
	if err != nil {
		s.logger.WarnContext(ctx, "fixture reconciliation finished with failures", "fetched", len(records), "upserted", result.Count, "error", err)
		return result, err
	}

	s.logger.InfoContext(ctx, "fixture reconciliation finished", "fetched", len(records), "upserted", result.Count)
	return result, nil
}

// ReconcileLeague fetches one league's fixtures and stores them the same way.
func (s *ReconcileService) ReconcileLeague(ctx context.Context, leagueID int64) (ReconcileResult, error) {
	ctx, span := startUsecaseSpan(ctx, "ReconcileService", "ReconcileLeague")
	defer span.End()

	if leagueID <= 0 {
		return ReconcileResult{}, fmt.Errorf("%w: league id must be greater than zero", ErrInvalidInput)
	}

	records, err := s.provider.FetchFixturesByLeague(ctx, leagueID)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("fetch fixtures league_id=%d: %w", leagueID, err)
	}
	return s.upsertAll(ctx, records)
}

func (s *ReconcileService) upsertAll(ctx context.Context, records []ExternalRecord) (ReconcileResult, error) {
	items, failures := s.prepare(records)
	attempted := len(items) + len(failures)
	if len(items) == 0 {
		return finishReconcile(nil, attempted, failures)
	}

	pool, err := ants.NewPool(min(s.workers, len(items)))
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu      sync.Mutex
		stored  = make([]fixture.Fixture, 0, len(items))
		workers sync.WaitGroup
	)
	fail := func(id int64, err error) {
		mu.Lock()
		failures = append(failures, FixtureFailure{FixtureID: id, Err: err})
		mu.Unlock()
	}

	for _, item := range items {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			if err := s.repo.Upsert(ctx, item); err != nil {
				fail(item.ID, err)
				return
			}
			mu.Lock()
			stored = append(stored, item)
			mu.Unlock()
		}); err != nil {
			workers.Done()
			fail(item.ID, fmt.Errorf("submit upsert: %w", err))
		}
	}
	workers.Wait()

	return finishReconcile(stored, attempted, failures)
}

// prepare projects records into fixtures, keeping the last record per id.
func (s *ReconcileService) prepare(records []ExternalRecord) ([]fixture.Fixture, []FixtureFailure) {
	byID := make(map[int64]fixture.Fixture, len(records))
	var failures []FixtureFailure
	for i, record := range records {
		rec, err := decodeFixtureRecord(record.Body)
		if err != nil {
			failures = append(failures, FixtureFailure{FixtureID: record.ID, Err: fmt.Errorf("%w: decode record %d: %v", ErrIncompleteData, i, err)})
			continue
		}
		if rec.ID <= 0 {
			failures = append(failures, FixtureFailure{FixtureID: record.ID, Err: fmt.Errorf("%w: record %d has no fixture id", ErrIncompleteData, i)})
			continue
		}
		byID[rec.ID] = rec.toFixture(record.Body)
	}

	out := make([]fixture.Fixture, 0, len(byID))
	for _, item := range byID {
		out = append(out, item)
	}
	return out, failures
}

func finishReconcile(stored []fixture.Fixture, attempted int, failures []FixtureFailure) (ReconcileResult, error) {
	sortFixtures(stored)
	result := ReconcileResult{Count: len(stored), Fixtures: stored}
	if len(failures) == 0 {
		return result, nil
	}
	sort.Slice(failures, func(i, j int) bool { return failures[i].FixtureID < failures[j].FixtureID })
	return result, &ReconciliationError{Attempted: attempted, Failures: failures}
}

func sortFixtures(items []fixture.Fixture) {
	sort.SliceStable(items, func(i, j int) bool {
		left, right := items[i].MatchDate, items[j].MatchDate
		switch {
		case left != nil && right != nil && !left.Equal(*right):
			return left.Before(*right)
		case left != nil && right == nil:
			return true
		case left == nil && right != nil:
			return false
		}
		return items[i].ID < items[j].ID
	})
}
