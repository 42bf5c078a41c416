package cache

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/fixture-insight/internal/domain/reference"
	basecache "github.com/riskibarqy/fixture-insight/internal/platform/cache"
	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
)

// ReferenceRepository caches unfiltered lists and single lookups of a
// reference.Repository. Writes drop the affected keys.
type ReferenceRepository struct {
	next   reference.Repository
	store  basecache.Store
	loader *basecache.Loader
	logger *logging.Logger
}

func NewReferenceRepository(next reference.Repository, store basecache.Store, loader *basecache.Loader, logger *logging.Logger) *ReferenceRepository {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReferenceRepository{next: next, store: store, loader: loader, logger: logger}
}

func (r *ReferenceRepository) UpsertMany(ctx context.Context, items []reference.Entity) (int, error) {
	stored, err := r.next.UpsertMany(ctx, items)

	keys := make(map[string]struct{}, len(items)+1)
	for _, item := range items {
		keys[listKey(item.Kind)] = struct{}{}
		keys[entityKey(item.Kind, item.ID)] = struct{}{}
	}
	for key := range keys {
		if delErr := r.store.Delete(ctx, key); delErr != nil {
			r.logger.WarnContext(ctx, "drop reference cache key failed", "key", key, "error", delErr)
		}
	}
	return stored, err
}

func (r *ReferenceRepository) List(ctx context.Context, kind reference.Kind, parentID int64) ([]reference.Entity, error) {
	if parentID > 0 {
		return r.next.List(ctx, kind, parentID)
	}

	raw, err := r.loader.GetOrLoad(ctx, listKey(kind), func(ctx context.Context) ([]byte, error) {
		items, err := r.next.List(ctx, kind, 0)
		if err != nil {
			return nil, err
		}
		return sonic.Marshal(items)
	})
	if err != nil {
		return nil, err
	}

	var items []reference.Entity
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode cached %s list: %w", kind, err)
	}
	return items, nil
}

func (r *ReferenceRepository) Get(ctx context.Context, kind reference.Kind, id int64) (reference.Entity, bool, error) {
	raw, err := r.loader.GetOrLoad(ctx, entityKey(kind, id), func(ctx context.Context) ([]byte, error) {
		item, exists, err := r.next.Get(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		return sonic.Marshal(cachedEntity{Value: item, Exists: exists})
	})
	if err != nil {
		return reference.Entity{}, false, err
	}

	var cached cachedEntity
	if err := sonic.Unmarshal(raw, &cached); err != nil {
		return reference.Entity{}, false, fmt.Errorf("decode cached %s id=%d: %w", kind, id, err)
	}
	return cached.Value, cached.Exists, nil
}

type cachedEntity struct {
	Value  reference.Entity `json:"value"`
	Exists bool             `json:"exists"`
}

func listKey(kind reference.Kind) string {
	return "reference:list:" + string(kind)
}

func entityKey(kind reference.Kind, id int64) string {
	return fmt.Sprintf("reference:%s:%d", kind, id)
}
