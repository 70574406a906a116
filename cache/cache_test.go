package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"buywise/internal/product"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func sample() product.ResultSet {
	return product.ResultSet{
		{Name: "Acme Phone", Price: 1299, Rating: 4.2, URL: "https://www.amazon.in/dp/B0C1234567", Store: "Amazon", Currency: "INR"},
	}
}

func exerciseBackend(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := NewResultCache(backend, 30*time.Minute, nil, WithClock(clock.Now))

	_, ok := c.Get(ctx, "phone", "")
	require.False(t, ok)

	c.Set(ctx, "phone", sample(), "")
	got, ok := c.Get(ctx, "  PHONE ", "")
	require.True(t, ok)
	require.Equal(t, sample(), got)

	_, ok = c.Get(ctx, "phone", "amazon")
	require.False(t, ok, "store-scoped key is distinct")

	clock.Advance(30 * time.Minute)
	_, ok = c.Get(ctx, "phone", "")
	require.True(t, ok, "entry exactly at ttl is still fresh")

	clock.Advance(time.Second)
	_, ok = c.Get(ctx, "phone", "")
	require.False(t, ok)

	_, found, err := backend.Load(ctx, Key("phone", ""))
	require.NoError(t, err)
	require.False(t, found, "expired entry is deleted on read")

	c.Set(ctx, "empty", nil, "")
	got, ok = c.Get(ctx, "empty", "")
	require.True(t, ok)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestResultCache_Memory(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend())
}

func TestResultCache_File(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	require.NoError(t, err)

	exerciseBackend(t, backend)

	c := NewResultCache(backend, time.Hour, nil)
	c.Set(context.Background(), "laptop", sample(), "flipkart")

	b, err := os.ReadFile(filepath.Join(dir, Key("laptop", "flipkart")+".json"))
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	require.Contains(t, raw, "timestamp")
	require.Contains(t, raw, "query")
	require.Contains(t, raw, "store")
	require.Contains(t, raw, "results")

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	require.Empty(t, leftovers)
}

func TestResultCache_CorruptFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, Key("phone", "")+".json"), []byte("{not json"), 0o644))

	c := NewResultCache(backend, time.Hour, nil)
	_, ok := c.Get(context.Background(), "phone", "")
	require.False(t, ok)
}

type failingBackend struct{}

func (failingBackend) Load(context.Context, string) (Entry, bool, error) {
	return Entry{}, false, errors.New("disk on fire")
}

func (failingBackend) Store(context.Context, string, Entry, time.Duration) error {
	return errors.New("disk on fire")
}

func (failingBackend) Delete(context.Context, string) error { return nil }

func TestResultCache_BackendErrorsAreSwallowed(t *testing.T) {
	c := NewResultCache(failingBackend{}, time.Hour, nil)
	c.Set(context.Background(), "phone", sample(), "")
	_, ok := c.Get(context.Background(), "phone", "")
	require.False(t, ok)
}

func TestKey(t *testing.T) {
	require.Equal(t, Key("Phone  Case", ""), Key(" phone case", ""))
	require.NotEqual(t, Key("phone", ""), Key("phone", "amazon"))
	// md5("phone")
	require.Equal(t, "f7a42fe7211f98ac7a60a285ac3a9e87", Key("phone", ""))
}

func TestResultCache_Redis(t *testing.T) {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		t.Skip("REDIS_HOST not set")
	}
	client := redis.NewClient(&redis.Options{Addr: host + ":6379"})
	defer client.Close()
	require.NoError(t, client.Ping(context.Background()).Err())

	exerciseBackend(t, NewRedisBackend(client))
}
