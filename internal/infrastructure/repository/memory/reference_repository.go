package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/fixture-insight/internal/domain/reference"
)

type referenceKey struct {
	kind reference.Kind
	id   int64
}

type ReferenceRepository struct {
	mu    sync.RWMutex
	items map[referenceKey]reference.Entity
	now   func() time.Time
}

func NewReferenceRepository() *ReferenceRepository {
	return &ReferenceRepository{items: make(map[referenceKey]reference.Entity), now: time.Now}
}

func (r *ReferenceRepository) UpsertMany(_ context.Context, items []reference.Entity) (int, error) {
	now := r.now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[referenceKey]struct{}, len(items))
	for _, item := range items {
		item.Data = append(json.RawMessage(nil), item.Data...)
		item.UpdatedAt = now
		key := referenceKey{kind: item.Kind, id: item.ID}
		r.items[key] = item
		seen[key] = struct{}{}
	}
	return len(seen), nil
}

func (r *ReferenceRepository) List(_ context.Context, kind reference.Kind, parentID int64) ([]reference.Entity, error) {
	r.mu.RLock()
	out := make([]reference.Entity, 0)
	for key, item := range r.items {
		if key.kind != kind || (parentID > 0 && item.ParentID != parentID) {
			continue
		}
		out = append(out, item)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ReferenceRepository) Get(_ context.Context, kind reference.Kind, id int64) (reference.Entity, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[referenceKey{kind: kind, id: id}]
	return item, ok, nil
}
