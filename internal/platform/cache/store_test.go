package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryStore_ExpiresEntries(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	_ = store.Set(ctx, "team-stats:10", []byte(`{"id":10}`), time.Minute)

	if got, ok, _ := store.Get(ctx, "team-stats:10"); !ok || string(got) != `{"id":10}` {
		t.Fatalf("expected cached value, got=%q ok=%v", got, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "team-stats:10"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestMemoryStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.Set(ctx, "team-stats:1", []byte("a"), 0)
	_ = store.Set(ctx, "team-stats:2", []byte("b"), 0)
	_ = store.Set(ctx, "competition:1", []byte("c"), 0)

	store.DeletePrefix("team-stats:")

	if _, ok, _ := store.Get(ctx, "team-stats:1"); ok {
		t.Fatalf("expected team-stats:1 to be deleted")
	}
	if _, ok, _ := store.Get(ctx, "competition:1"); !ok {
		t.Fatalf("expected competition:1 to survive")
	}
}

func TestLoader_SharesConcurrentMisses(t *testing.T) {
	t.Parallel()

	loader := NewLoader(NewMemoryStore(), time.Minute, nil)
	var calls atomic.Int32
	load := func(context.Context) ([]byte, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return []byte("value"), nil
	}

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			got, err := loader.GetOrLoad(context.Background(), "same", load)
			if err != nil || string(got) != "value" {
				t.Errorf("unexpected result got=%q err=%v", got, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Fatalf("expected one load, got=%d", n)
	}
}

func TestLoader_DoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	loader := NewLoader(NewMemoryStore(), time.Minute, nil)
	var calls atomic.Int32
	failing := func(context.Context) ([]byte, error) {
		calls.Add(1)
		return nil, errors.New("upstream down")
	}

	for i := 0; i < 2; i++ {
		if _, err := loader.GetOrLoad(context.Background(), "k", failing); err == nil {
			t.Fatalf("expected load error")
		}
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("expected failed loads to retry the source, got=%d calls", n)
	}
}

type brokenStore struct{ *MemoryStore }

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func TestLoader_FallsBackToSourceWhenStoreFails(t *testing.T) {
	t.Parallel()

	loader := NewLoader(brokenStore{MemoryStore: NewMemoryStore()}, time.Minute, nil)
	got, err := loader.GetOrLoad(context.Background(), "k", func(context.Context) ([]byte, error) {
		return []byte("fresh"), nil
	})
	if err != nil || string(got) != "fresh" {
		t.Fatalf("expected source value, got=%q err=%v", got, err)
	}
}

func TestLoader_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	t.Parallel()

	loader := NewLoader(NewMemoryStore(), time.Minute, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	var loadCtxErr atomic.Value
	load := func(ctx context.Context) ([]byte, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			loadCtxErr.Store(err)
		}
		return []byte("team-10-stats"), nil
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := loader.GetOrLoad(ctxA, "team-stats:10", load)
		errA <- err
	}()
	<-started

	type result struct {
		value []byte
		err   error
	}
	resB := make(chan result, 1)
	go func() {
		value, err := loader.GetOrLoad(context.Background(), "team-stats:10", load)
		resB <- result{value: value, err: err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled caller to get context.Canceled, got=%v", err)
	}

	close(release)
	got := <-resB
	if got.err != nil || string(got.value) != "team-10-stats" {
		t.Fatalf("expected second caller to receive the value, got=%q err=%v", got.value, got.err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected one shared load, got=%d", n)
	}
	if err := loadCtxErr.Load(); err != nil {
		t.Fatalf("expected shared load context to survive the first caller, got=%v", err)
	}
}
