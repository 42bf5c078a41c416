package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/fixture-insight/internal/domain/fixture"
	"github.com/riskibarqy/fixture-insight/internal/domain/payload"
	"github.com/riskibarqy/fixture-insight/internal/domain/reference"
)

type fakeFixtureProvider struct {
	records     []ExternalRecord
	err         error
	windowStart time.Time
	windowEnd   time.Time
	leagueID    int64
}

func (f *fakeFixtureProvider) FetchFixturesInWindow(_ context.Context, start, end time.Time) ([]ExternalRecord, error) {
	f.windowStart, f.windowEnd = start, end
	return f.records, f.err
}

func (f *fakeFixtureProvider) FetchFixturesByLeague(_ context.Context, leagueID int64) ([]ExternalRecord, error) {
	f.leagueID = leagueID
	return f.records, f.err
}

// fixtureStore is a map-backed fixture.Repository with failure injection.
type fixtureStore struct {
	mu       sync.Mutex
	items    map[int64]fixture.Fixture
	failIDs  map[int64]error
	upserts  atomic.Int32
	payloads atomic.Int32
}

func newFixtureStore() *fixtureStore {
	return &fixtureStore{items: map[int64]fixture.Fixture{}, failIDs: map[int64]error{}}
}

func (s *fixtureStore) Upsert(_ context.Context, f fixture.Fixture) error {
	s.upserts.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failIDs[f.ID]; err != nil {
		return err
	}
	if existing, ok := s.items[f.ID]; ok {
		f.Payload = existing.Payload
	}
	s.items[f.ID] = f
	return nil
}

func (s *fixtureStore) GetByID(_ context.Context, id int64) (fixture.Fixture, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	return item, ok, nil
}

func (s *fixtureStore) SavePayload(_ context.Context, id int64, p payload.Payload) error {
	s.payloads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("%w: fixture id=%d", ErrNotFound, id)
	}
	item.Payload = &p
	s.items[id] = item
	return nil
}

func (s *fixtureStore) List(context.Context, int) ([]fixture.Fixture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]fixture.Fixture, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	return out, nil
}

func (s *fixtureStore) ListByLeague(ctx context.Context, leagueID int64) ([]fixture.Fixture, error) {
	all, _ := s.List(ctx, 0)
	out := all[:0]
	for _, item := range all {
		if item.LeagueID == leagueID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *fixtureStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

type fakeStats struct {
	mu          sync.Mutex
	teams       map[int64]payload.TeamObservation
	teamErr     map[int64]error
	h2h         *payload.HeadToHead
	competition string
	teamCalls   map[int64]int
	compCalls   int
}

func (f *fakeStats) FetchTeamStatistics(_ context.Context, teamID int64) (payload.TeamObservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.teamCalls == nil {
		f.teamCalls = map[int64]int{}
	}
	f.teamCalls[teamID]++
	if err := f.teamErr[teamID]; err != nil {
		return payload.TeamObservation{}, err
	}
	obs, ok := f.teams[teamID]
	if !ok {
		return payload.TeamObservation{}, fmt.Errorf("%w: team %d", ErrNotFound, teamID)
	}
	return obs, nil
}

func (f *fakeStats) FetchHeadToHead(context.Context, int64, int64) (payload.HeadToHead, error) {
	if f.h2h == nil {
		return payload.HeadToHead{}, NewUpstreamError("fetch_head_to_head", fmt.Errorf("status 500"))
	}
	return *f.h2h, nil
}

func (f *fakeStats) FetchCompetitionName(context.Context, int64) string {
	f.mu.Lock()
	f.compCalls++
	f.mu.Unlock()
	if f.competition == "" {
		return payload.UnknownCompetition
	}
	return f.competition
}

func (f *fakeStats) calls(teamID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.teamCalls[teamID]
}

func (f *fakeStats) competitionLookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.compCalls
}

type fakeReferences struct {
	entities map[int64]reference.Entity
	err      error
}

func (f *fakeReferences) Get(_ context.Context, kind reference.Kind, id int64) (reference.Entity, bool, error) {
	if f.err != nil {
		return reference.Entity{}, false, f.err
	}
	entity, ok := f.entities[id]
	if !ok || entity.Kind != kind {
		return reference.Entity{}, false, nil
	}
	return entity, true, nil
}

func rec(id int64, body string) ExternalRecord {
	return ExternalRecord{ID: id, Body: []byte(body)}
}
