package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/fixture-insight/internal/domain/fixture"
	"github.com/riskibarqy/fixture-insight/internal/domain/payload"
	"github.com/riskibarqy/fixture-insight/internal/usecase"
)

type FixtureRepository struct {
	mu    sync.RWMutex
	items map[int64]fixture.Fixture
	now   func() time.Time
}

func NewFixtureRepository(seed ...fixture.Fixture) *FixtureRepository {
	r := &FixtureRepository{items: make(map[int64]fixture.Fixture, len(seed)), now: time.Now}
	for _, item := range seed {
		r.items[item.ID] = clone(item)
	}
	return r
}

func (r *FixtureRepository) Upsert(_ context.Context, item fixture.Fixture) error {
	now := r.now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	item = clone(item)
	item.Status = fixture.NormalizeStatus(item.Status)
	item.CreatedAt, item.UpdatedAt = now, now
	item.Payload, item.PayloadUpdatedAt = nil, nil
	if existing, ok := r.items[item.ID]; ok {
		item.CreatedAt = existing.CreatedAt
		item.Payload = existing.Payload
		item.PayloadUpdatedAt = existing.PayloadUpdatedAt
	}
	r.items[item.ID] = item
	return nil
}

func (r *FixtureRepository) GetByID(_ context.Context, id int64) (fixture.Fixture, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return fixture.Fixture{}, false, nil
	}
	return clone(item), true, nil
}

func (r *FixtureRepository) SavePayload(_ context.Context, id int64, value payload.Payload) error {
	now := r.now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return fmt.Errorf("%w: fixture id=%d", usecase.ErrNotFound, id)
	}
	item.Payload = &value
	item.PayloadUpdatedAt = &now
	item.UpdatedAt = now
	r.items[id] = item
	return nil
}

// List orders by match date, newest first, undated last.
func (r *FixtureRepository) List(_ context.Context, limit int) ([]fixture.Fixture, error) {
	r.mu.RLock()
	out := make([]fixture.Fixture, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, clone(item))
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		left, right := out[i].MatchDate, out[j].MatchDate
		switch {
		case left == nil && right == nil:
			return out[i].ID < out[j].ID
		case left == nil:
			return false
		case right == nil:
			return true
		case !left.Equal(*right):
			return left.After(*right)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *FixtureRepository) ListByLeague(_ context.Context, leagueID int64) ([]fixture.Fixture, error) {
	r.mu.RLock()
	out := make([]fixture.Fixture, 0)
	for _, item := range r.items {
		if item.LeagueID == leagueID {
			out = append(out, clone(item))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func clone(item fixture.Fixture) fixture.Fixture {
	item.Data = append(json.RawMessage(nil), item.Data...)
	return item
}
