package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iamasit07/4-in-a-row/client/internal/domain"
	"github.com/iamasit07/4-in-a-row/client/internal/logger"
)

// DefaultLeaderboardKey is shared by every client pointed at the same Redis,
// so one fetch per interval serves all of them.
const DefaultLeaderboardKey = "connect4:leaderboard"

// Connect opens a client for addr and pings it. addr is either host:port or
// a redis:// URL. A failed ping closes the client and returns the error; the
// caller decides whether to run without a cache.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	opts, err := parseOptions(addr, password)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	lg := logger.For("redis")
	lg.Info().Str("addr", opts.Addr).Msg("connected")
	return client, nil
}

func parseOptions(addr, password string) (*redis.Options, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		if password != "" {
			opts.Password = password
		}
		return opts, nil
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	return &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	}, nil
}

// LeaderboardCache stores the last fetched leaderboard as one JSON value.
type LeaderboardCache struct {
	client *redis.Client
	key    string
}

func NewLeaderboardCache(client *redis.Client, key string) *LeaderboardCache {
	if key == "" {
		key = DefaultLeaderboardKey
	}
	return &LeaderboardCache{client: client, key: key}
}

// Get returns the cached entries. found is false on a miss.
func (c *LeaderboardCache) Get(ctx context.Context) (entries []domain.LeaderboardEntry, found bool, err error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, fmt.Errorf("corrupt leaderboard cache entry: %w", err)
	}
	return entries, true, nil
}

// Set stores entries with expiration.
func (c *LeaderboardCache) Set(ctx context.Context, entries []domain.LeaderboardEntry, expiration time.Duration) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, raw, expiration).Err()
}

func (c *LeaderboardCache) Del(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
