package options_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/options"
)

func TestCache_WaitFetchesOncePerKey(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	source := options.SourceFunc(func(ctx context.Context, key string) (model.OptionList, error) {
		calls.Add(1)
		<-release
		return model.OptionList{"Red", "Blue"}, nil
	})
	cache := options.NewCache(source)

	var wg sync.WaitGroup
	results := make([]model.OptionList, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			list, err := cache.Wait(context.Background(), "colors")
			if err != nil {
				t.Errorf("wait: %v", err)
			}
			results[i] = list
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one fetch, got %d", got)
	}
	for i, list := range results {
		if diff := cmp.Diff(model.OptionList{"Red", "Blue"}, list); diff != "" {
			t.Fatalf("waiter %d mismatch (-want +got):\n%s", i, diff)
		}
	}

	if _, err := cache.Wait(context.Background(), "colors"); err != nil {
		t.Fatalf("cached wait: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("cached key refetched, calls=%d", got)
	}
}

func TestCache_LookupDeliversToEveryWaiter(t *testing.T) {
	release := make(chan struct{})
	source := options.SourceFunc(func(ctx context.Context, key string) (model.OptionList, error) {
		<-release
		return model.OptionList{"A"}, nil
	})
	cache := options.NewCache(source)

	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		list, ok := cache.Lookup(context.Background(), "letters", func(list model.OptionList) {
			defer wg.Done()
			if diff := cmp.Diff(model.OptionList{"A"}, list); diff != "" {
				t.Errorf("callback mismatch (-want +got):\n%s", diff)
			}
		})
		if ok || list != nil {
			t.Fatalf("expected pending lookup, got %v %v", list, ok)
		}
	}
	close(release)
	wg.Wait()

	list, ok := cache.Lookup(context.Background(), "letters", func(model.OptionList) {
		t.Error("callback must not fire for cached lists")
	})
	if !ok || len(list) != 1 {
		t.Fatalf("expected cached list, got %v %v", list, ok)
	}
	if got := cache.Fetches("letters"); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
}

func TestCache_FailureCachedAsEmpty(t *testing.T) {
	var calls atomic.Int32
	source := options.SourceFunc(func(ctx context.Context, key string) (model.OptionList, error) {
		calls.Add(1)
		return nil, errors.New("boom")
	})
	cache := options.NewCache(source)

	list, err := cache.Wait(context.Background(), "broken")
	if err != nil {
		t.Fatalf("failures must not surface: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %v", list)
	}
	if _, err := cache.Wait(context.Background(), "broken"); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("failed key refetched, calls=%d", got)
	}

	cache.Invalidate("broken")
	if _, err := cache.Wait(context.Background(), "broken"); err != nil {
		t.Fatalf("wait after invalidate: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected retry after invalidate, calls=%d", got)
	}
}

func TestCache_WaitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	source := options.SourceFunc(func(ctx context.Context, key string) (model.OptionList, error) {
		<-release
		return nil, nil
	})
	cache := options.NewCache(source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := cache.Wait(ctx, "slow"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCache_AbandonedWaitDoesNotPoisonKey(t *testing.T) {
	source := options.SourceFunc(func(ctx context.Context, key string) (model.OptionList, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
			return model.OptionList{"AI", "Web"}, nil
		}
	})
	cache := options.NewCache(source)

	short, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := cache.Wait(short, "tracks"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	list, err := cache.Wait(context.Background(), "tracks")
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if diff := cmp.Diff(model.OptionList{"AI", "Web"}, list); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if got := cache.Fetches("tracks"); got != 1 {
		t.Fatalf("expected the abandoned fetch to be joined, got %d fetches", got)
	}
}

func TestStatic_UnknownKey(t *testing.T) {
	src := options.Static{"a": {"x"}}
	if _, err := src.Options(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown key")
	}
	cache := options.NewCache(src)
	list, _ := cache.Wait(context.Background(), "missing")
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %v", list)
	}
}
