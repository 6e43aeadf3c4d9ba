package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// RenderFunc executes a page with script evaluation and returns its
// content once waitSelector has materialized. The concrete engine is
// injected so the cache never depends on one.
type RenderFunc func(ctx context.Context, url, waitSelector string, headers map[string]string) (string, error)

// Error reports a failed render. Failures are never cached.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config holds the cache tunables. Zero values fall back to defaults.
type Config struct {
	TTL           time.Duration
	MaxConcurrent int
	MinInterval   time.Duration
	WaitTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = 15 * time.Minute
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 2
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = 30 * time.Second
	}
	return c
}

type cacheEntry struct {
	content  string
	cachedAt time.Time
}

// Cache de-duplicates and rate-limits dynamic page renders. Renders for
// the same (url, waitSelector) key are serialized behind a per-key gate
// with a double-checked cache read; render starts across all keys are
// spaced by MinInterval and bounded to MaxConcurrent in flight.
type Cache struct {
	cfg     Config
	render  RenderFunc
	limiter *rate.Limiter
	sem     *semaphore.Weighted
	now     func() time.Time

	mu       sync.Mutex
	entries  map[string]cacheEntry
	keyLocks map[string]*sync.Mutex
}

// NewCache creates a render cache backed by the given engine.
func NewCache(cfg Config, fn RenderFunc) *Cache {
	cfg = cfg.withDefaults()
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	return &Cache{
		cfg:      cfg,
		render:   fn,
		limiter:  rate.NewLimiter(limit, 1),
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		now:      time.Now,
		entries:  make(map[string]cacheEntry),
		keyLocks: make(map[string]*sync.Mutex),
	}
}

// Fetch returns rendered content for the URL. With useCache, a live cache
// entry short-circuits all coordination; otherwise the caller serializes
// on the key gate, re-checks the cache, and renders under the global rate
// and concurrency limits. Failed renders propagate without writing the
// cache and release the key gate so a later call can retry.
func (c *Cache) Fetch(ctx context.Context, url, waitSelector string, headers map[string]string, useCache bool) (string, error) {
	key := cacheKey(url, waitSelector)

	if useCache {
		if content, ok := c.lookup(key); ok {
			log.WithField("url", url).Debug("Render cache hit")
			return content, nil
		}
	}

	gate := c.lockFor(key)
	gate.Lock()
	defer gate.Unlock()

	// Another caller may have rendered while we waited on the gate.
	if useCache {
		if content, ok := c.lookup(key); ok {
			log.WithField("url", url).Debug("Render cache hit after gate")
			return content, nil
		}
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", &Error{URL: url, Err: err}
	}
	defer c.sem.Release(1)

	if err := c.limiter.Wait(ctx); err != nil {
		return "", &Error{URL: url, Err: err}
	}

	renderCtx := ctx
	if c.cfg.WaitTimeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, c.cfg.WaitTimeout)
		defer cancel()
	}

	log.WithFields(log.Fields{"url": url, "selector": waitSelector}).Debug("Rendering page")
	content, err := c.render(renderCtx, url, waitSelector, headers)
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}

	if useCache {
		c.store(key, content)
	}
	return content, nil
}

// Invalidate drops any cached entry for the key.
func (c *Cache) Invalidate(url, waitSelector string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(url, waitSelector))
}

func (c *Cache) lookup(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(entry.cachedAt) > c.cfg.TTL {
		delete(c.entries, key)
		return "", false
	}
	return entry.content, true
}

func (c *Cache) store(key, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{content: content, cachedAt: c.now()}
}

func (c *Cache) lockFor(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	gate, ok := c.keyLocks[key]
	if !ok {
		gate = &sync.Mutex{}
		c.keyLocks[key] = gate
	}
	return gate
}

func cacheKey(url, waitSelector string) string {
	digest := sha256.Sum256([]byte(url + "|" + waitSelector))
	return hex.EncodeToString(digest[:])
}
