package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"astrotalk/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestStatusKey(t *testing.T) {
	id := uuid.MustParse("7d8c0a4e-3f7b-4c1d-9a55-2c1f0e6b9a10")
	assert.Equal(t, "astrologer:status:7d8c0a4e-3f7b-4c1d-9a55-2c1f0e6b9a10", statusKey(id))
}

func TestNewRedisStatusCache_DefaultTTL(t *testing.T) {
	c := NewRedisStatusCache(nil, 0)
	assert.Equal(t, DefaultTTL, c.ttl)
}

func TestEncode_CarriesVersion(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC)
	raw, err := encode(entity.ProfileStatus{IsOnline: true, UpdatedAt: at})
	require.NoError(t, err)

	var cached cachedStatus
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.True(t, cached.IsOnline)
	assert.Equal(t, at.UnixMicro(), cached.Version)
}

// startRedis runs a throwaway Redis through testcontainers-go and returns a
// cache bound to it. Skipped with -short.
func startRedis(t *testing.T) *RedisStatusCache {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, fmt.Sprintf("%s:%s", host, port.Port()), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStatusCache(client, time.Minute)
}

func TestRedisStatusCache_Integration(t *testing.T) {
	c := startRedis(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("get miss and delete", func(t *testing.T) {
		id := uuid.New()
		miss, err := c.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, miss)

		_, err = c.SetIfAbsent(ctx, id, entity.ProfileStatus{IsOnline: true, UpdatedAt: base})
		require.NoError(t, err)
		require.NoError(t, c.Delete(ctx, id))

		gone, err := c.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("set if absent keeps existing entry", func(t *testing.T) {
		id := uuid.New()
		first := entity.ProfileStatus{IsOnline: true, IsBusy: true, UpdatedAt: base}

		stored, err := c.SetIfAbsent(ctx, id, first)
		require.NoError(t, err)
		assert.True(t, stored)

		stored, err = c.SetIfAbsent(ctx, id, entity.ProfileStatus{UpdatedAt: base.Add(-time.Second)})
		require.NoError(t, err)
		assert.False(t, stored)

		got, err := c.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, first, *got)
	})

	t.Run("set if newer orders by version", func(t *testing.T) {
		id := uuid.New()
		newer := entity.ProfileStatus{IsOnline: true, UpdatedAt: base.Add(time.Microsecond)}

		stored, err := c.SetIfNewer(ctx, id, newer)
		require.NoError(t, err)
		assert.True(t, stored, "empty key accepts any version")

		for _, stale := range []time.Time{base, newer.UpdatedAt} {
			stored, err = c.SetIfNewer(ctx, id, entity.ProfileStatus{UpdatedAt: stale})
			require.NoError(t, err)
			assert.False(t, stored)
		}

		got, err := c.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.IsOnline)

		latest := entity.ProfileStatus{IsBusy: true, Approved: true, UpdatedAt: base.Add(time.Second)}
		stored, err = c.SetIfNewer(ctx, id, latest)
		require.NoError(t, err)
		assert.True(t, stored)

		got, err = c.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, latest, *got)

		ttl, err := c.client.PTTL(ctx, statusKey(id)).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("set if newer replaces unreadable entry", func(t *testing.T) {
		id := uuid.New()
		require.NoError(t, c.client.Set(ctx, statusKey(id), "not json", time.Minute).Err())

		stored, err := c.SetIfNewer(ctx, id, entity.ProfileStatus{IsOnline: true, UpdatedAt: base})
		require.NoError(t, err)
		assert.True(t, stored)
	})
}
