package executive

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestFetchJSONCachesLoaderResult(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	loads := 0
	loader := func(context.Context) (interface{}, error) {
		loads++
		return OverviewKPIs{TotalRevenue: 500}, nil
	}

	key, err := cache.BuildKey(ctx, keyOverview("2025-06-14")...)
	require.NoError(t, err)

	var first OverviewKPIs
	require.NoError(t, cache.FetchJSON(ctx, key, &first, loader))
	var second OverviewKPIs
	require.NoError(t, cache.FetchJSON(ctx, key, &second, loader))

	assert.Equal(t, 1, loads)
	assert.Equal(t, first, second)
	assert.InDelta(t, 500, second.TotalRevenue, 1e-9)
}

func TestBumpInvalidatesDerivedKeys(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	before, err := cache.BuildKey(ctx, "executive", "overview", "2025-06-14")
	require.NoError(t, err)

	require.NoError(t, cache.Bump(ctx))

	after, err := cache.BuildKey(ctx, "executive", "overview", "2025-06-14")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestNilCacheDegradesToDirectLoad(t *testing.T) {
	ctx := context.Background()
	var cache *Cache

	key, err := cache.BuildKey(ctx, "executive", "overview", "2025-06-14")
	require.NoError(t, err)

	loads := 0
	var out OverviewKPIs
	loader := func(context.Context) (interface{}, error) {
		loads++
		return OverviewKPIs{TotalOrders: 7}, nil
	}
	require.NoError(t, cache.FetchJSON(ctx, key, &out, loader))
	require.NoError(t, cache.FetchJSON(ctx, key, &out, loader))

	assert.Equal(t, 2, loads)
	assert.Equal(t, int64(7), out.TotalOrders)
	assert.NoError(t, cache.Bump(ctx))
}
