package render

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine records render invocations and their start times.
type stubEngine struct {
	mu     sync.Mutex
	calls  int
	starts []time.Time
	delay  time.Duration
	err    error
}

func (s *stubEngine) render(ctx context.Context, url, waitSelector string, headers map[string]string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.starts = append(s.starts, time.Now())
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return "", s.err
	}
	return "<html>" + url + "</html>", nil
}

func (s *stubEngine) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestCache_HitSkipsRender(t *testing.T) {
	engine := &stubEngine{}
	cache := NewCache(Config{TTL: time.Minute}, engine.render)
	ctx := context.Background()

	first, err := cache.Fetch(ctx, "https://example.com/a", ".card", nil, true)
	require.NoError(t, err)

	second, err := cache.Fetch(ctx, "https://example.com/a", ".card", nil, true)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, engine.callCount())
}

func TestCache_KeyIncludesSelector(t *testing.T) {
	engine := &stubEngine{}
	cache := NewCache(Config{TTL: time.Minute}, engine.render)
	ctx := context.Background()

	_, err := cache.Fetch(ctx, "https://example.com/a", ".card", nil, true)
	require.NoError(t, err)
	_, err = cache.Fetch(ctx, "https://example.com/a", ".other", nil, true)
	require.NoError(t, err)

	assert.Equal(t, 2, engine.callCount())
}

func TestCache_ExpiredEntryRerenders(t *testing.T) {
	engine := &stubEngine{}
	cache := NewCache(Config{TTL: time.Minute}, engine.render)
	ctx := context.Background()

	_, err := cache.Fetch(ctx, "https://example.com/a", "", nil, true)
	require.NoError(t, err)

	// Move the clock past the TTL.
	cache.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err = cache.Fetch(ctx, "https://example.com/a", "", nil, true)
	require.NoError(t, err)
	assert.Equal(t, 2, engine.callCount())
}

func TestCache_BypassNeverWrites(t *testing.T) {
	engine := &stubEngine{}
	cache := NewCache(Config{TTL: time.Minute}, engine.render)
	ctx := context.Background()

	_, err := cache.Fetch(ctx, "https://example.com/a", "", nil, false)
	require.NoError(t, err)
	_, err = cache.Fetch(ctx, "https://example.com/a", "", nil, false)
	require.NoError(t, err)

	assert.Equal(t, 2, engine.callCount())
}

func TestCache_MinIntervalBetweenStarts(t *testing.T) {
	engine := &stubEngine{}
	cache := NewCache(Config{TTL: time.Minute, MinInterval: 200 * time.Millisecond, MaxConcurrent: 1}, engine.render)
	ctx := context.Background()

	_, err := cache.Fetch(ctx, "https://example.com/a", "", nil, true)
	require.NoError(t, err)
	_, err = cache.Fetch(ctx, "https://example.com/b", "", nil, true)
	require.NoError(t, err)

	require.Len(t, engine.starts, 2)
	gap := engine.starts[1].Sub(engine.starts[0])
	assert.GreaterOrEqual(t, gap, 190*time.Millisecond, "render starts %v apart", gap)
}

func TestCache_ConcurrentSameKeyRendersOnce(t *testing.T) {
	engine := &stubEngine{delay: 50 * time.Millisecond}
	cache := NewCache(Config{TTL: time.Minute, MaxConcurrent: 4}, engine.render)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			content, err := cache.Fetch(ctx, "https://example.com/hot", ".card", nil, true)
			assert.NoError(t, err)
			results[i] = content
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, engine.callCount())
	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestCache_FailureNotCachedAndRetryable(t *testing.T) {
	engine := &stubEngine{err: errors.New("boom")}
	cache := NewCache(Config{TTL: time.Minute}, engine.render)
	ctx := context.Background()

	_, err := cache.Fetch(ctx, "https://example.com/a", "", nil, true)
	require.Error(t, err)

	var renderErr *Error
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, "https://example.com/a", renderErr.URL)

	// The gate must be released and no poisoned entry left behind.
	engine.err = nil
	content, err := cache.Fetch(ctx, "https://example.com/a", "", nil, true)
	require.NoError(t, err)
	assert.NotEmpty(t, content)
	assert.Equal(t, 2, engine.callCount())
}

func TestCache_MaxConcurrentBoundsInflightRenders(t *testing.T) {
	var mu sync.Mutex
	inflight, peak := 0, 0

	slow := func(ctx context.Context, url, sel string, headers map[string]string) (string, error) {
		mu.Lock()
		inflight++
		if inflight > peak {
			peak = inflight
		}
		mu.Unlock()
		time.Sleep(30 * time.Millisecond)
		mu.Lock()
		inflight--
		mu.Unlock()
		return "ok", nil
	}

	cache := NewCache(Config{TTL: time.Minute, MaxConcurrent: 2}, slow)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := cache.Fetch(ctx, "https://example.com/"+string(rune('a'+i)), "", nil, true)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, 2)
}
