package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
)

const defaultLoadTimeout = 30 * time.Second

// Loader is a read-through cache in front of a Store. Concurrent misses
// on one key share a single load; failed loads are not cached. The shared
// load runs detached from the caller that started it and is bounded by
// loadTimeout instead.
type Loader struct {
	store       Store
	ttl         time.Duration
	loadTimeout time.Duration
	logger      *logging.Logger
	flight      singleflight.Group
}

func NewLoader(store Store, ttl time.Duration, logger *logging.Logger) *Loader {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Loader{store: store, ttl: ttl, loadTimeout: defaultLoadTimeout, logger: logger}
}

func (l *Loader) GetOrLoad(ctx context.Context, key string, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if value, ok := l.lookup(ctx, key); ok {
		return value, nil
	}

	flight := l.flight.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.loadTimeout)
		defer cancel()

		if value, ok := l.lookup(shared, key); ok {
			return value, nil
		}
		value, err := load(shared)
		if err != nil {
			return nil, err
		}
		if err := l.store.Set(shared, key, value, l.ttl); err != nil {
			l.logger.WarnContext(shared, "cache write failed", "key", key, "error", err)
		}
		return value, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (l *Loader) lookup(ctx context.Context, key string) ([]byte, bool) {
	value, ok, err := l.store.Get(ctx, key)
	if err != nil {
		l.logger.WarnContext(ctx, "cache read failed, loading from source", "key", key, "error", err)
		return nil, false
	}
	return value, ok
}
