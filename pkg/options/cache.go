package options

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-formengine/pkg/model"
)

// Cache memoises option lists by source key. Fetch failures are cached as an
// empty list so subsequent renders do not re-issue the request; call
// Invalidate to allow a retry.
type Cache struct {
	source  Source
	logger  *slog.Logger
	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]model.OptionList
	fetches map[string]int
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLogger routes fetch diagnostics to logger.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCache constructs a cache in front of source. A nil source yields empty
// lists for every key.
func NewCache(source Source, opts ...CacheOption) *Cache {
	c := &Cache{
		source:  source,
		logger:  slog.Default(),
		entries: make(map[string]model.OptionList),
		fetches: make(map[string]int),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the cached list for key.
func (c *Cache) Get(key string) (model.OptionList, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	list, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return append(model.OptionList(nil), list...), true
}

// Lookup returns the cached list when present. Otherwise it starts (or joins)
// a background fetch and returns immediately; onReady receives the list once
// the fetch resolves. onReady is not called when the list was already cached.
func (c *Cache) Lookup(ctx context.Context, key string, onReady func(model.OptionList)) (model.OptionList, bool) {
	if list, ok := c.Get(key); ok {
		return list, true
	}
	ch := c.flight(ctx, key)
	go func() {
		res := <-ch
		list, _ := res.Val.(model.OptionList)
		if onReady != nil {
			onReady(append(model.OptionList(nil), list...))
		}
	}()
	return nil, false
}

// Wait blocks until the list for key is available or ctx is done. A caller
// giving up does not cancel the shared fetch.
func (c *Cache) Wait(ctx context.Context, key string) (model.OptionList, error) {
	if list, ok := c.Get(key); ok {
		return list, nil
	}
	ch := c.flight(ctx, key)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		list, _ := res.Val.(model.OptionList)
		return append(model.OptionList(nil), list...), nil
	}
}

// flight starts or joins the fetch for key. The fetch outlives the caller's
// cancellation since its result is cached for every later caller.
func (c *Cache) flight(ctx context.Context, key string) <-chan singleflight.Result {
	shared := context.WithoutCancel(ctx)
	return c.group.DoChan(key, func() (any, error) {
		return c.fetch(shared, key), nil
	})
}

// Invalidate drops the cached entry for key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Fetches reports how many source requests were issued for key.
func (c *Cache) Fetches(key string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetches[key]
}

// fetch runs inside the singleflight group. It re-checks the cache so a call
// that raced a just-finished flight does not issue a second request.
func (c *Cache) fetch(ctx context.Context, key string) model.OptionList {
	if list, ok := c.Get(key); ok {
		return list
	}

	c.mu.Lock()
	c.fetches[key]++
	c.mu.Unlock()

	var (
		list model.OptionList
		err  error
	)
	if c.source == nil {
		err = errors.New("no option source configured")
	} else {
		list, err = c.source.Options(ctx, key)
	}
	if err != nil {
		fetchErr := &FetchError{Key: key, Err: err}
		c.logger.Warn("remote options unavailable", "source", key, "error", fetchErr)
		list = model.OptionList{}
	}

	c.mu.Lock()
	c.entries[key] = append(model.OptionList(nil), list...)
	c.mu.Unlock()
	return list
}
