// Package cache holds the Redis-backed cache for astrologer status polling.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"astrotalk/internal/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "astrologer:status:"
	DefaultTTL = 30 * time.Second
)

// Entries carry the profile's updated_at in microseconds so that a slower
// writer cannot replace a newer status. Microseconds keep the value exact in
// Lua's doubles.
type cachedStatus struct {
	IsOnline bool  `json:"isOnline"`
	IsBusy   bool  `json:"isBusy"`
	Approved bool  `json:"approved"`
	Version  int64 `json:"version"`
}

// setIfNewer stores ARGV[1] unless the current entry has a version at or
// above ARGV[2].
var setIfNewer = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current then
	local ok, decoded = pcall(cjson.decode, current)
	if ok and type(decoded) == "table" then
		local version = tonumber(decoded["version"])
		if version and version >= tonumber(ARGV[2]) then
			return 0
		end
	end
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

type RedisStatusCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisClient dials addr and pings it before returning.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return client, nil
}

func NewRedisStatusCache(client redis.Cmdable, ttl time.Duration) *RedisStatusCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStatusCache{client: client, ttl: ttl}
}

// Get returns nil, nil on a cache miss.
func (c *RedisStatusCache) Get(ctx context.Context, profileID uuid.UUID) (*entity.ProfileStatus, error) {
	raw, err := c.client.Get(ctx, statusKey(profileID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("status cache get: %w", err)
	}
	var cached cachedStatus
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, fmt.Errorf("status cache decode: %w", err)
	}
	return &entity.ProfileStatus{
		IsOnline:  cached.IsOnline,
		IsBusy:    cached.IsBusy,
		Approved:  cached.Approved,
		UpdatedAt: time.UnixMicro(cached.Version).UTC(),
	}, nil
}

// SetIfAbsent fills a missing entry. Read paths use it so that a poll never
// overwrites what a write stored.
func (c *RedisStatusCache) SetIfAbsent(ctx context.Context, profileID uuid.UUID, status entity.ProfileStatus) (bool, error) {
	raw, err := encode(status)
	if err != nil {
		return false, err
	}
	stored, err := c.client.SetNX(ctx, statusKey(profileID), raw, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("status cache setnx: %w", err)
	}
	return stored, nil
}

// SetIfNewer replaces the entry unless it already holds a status at least as
// recent as this one.
func (c *RedisStatusCache) SetIfNewer(ctx context.Context, profileID uuid.UUID, status entity.ProfileStatus) (bool, error) {
	raw, err := encode(status)
	if err != nil {
		return false, err
	}
	stored, err := setIfNewer.Run(ctx, c.client, []string{statusKey(profileID)},
		raw, status.UpdatedAt.UnixMicro(), c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("status cache set: %w", err)
	}
	return stored == 1, nil
}

func (c *RedisStatusCache) Delete(ctx context.Context, profileID uuid.UUID) error {
	if err := c.client.Del(ctx, statusKey(profileID)).Err(); err != nil {
		return fmt.Errorf("status cache delete: %w", err)
	}
	return nil
}

func encode(status entity.ProfileStatus) ([]byte, error) {
	return json.Marshal(cachedStatus{
		IsOnline: status.IsOnline,
		IsBusy:   status.IsBusy,
		Approved: status.Approved,
		Version:  status.UpdatedAt.UnixMicro(),
	})
}

func statusKey(profileID uuid.UUID) string {
	return keyPrefix + profileID.String()
}
