package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"tonotes/search"

	"github.com/redis/go-redis/v9"
)

const (
	CheckpointKey = "search:resync:checkpoint"
	StaleSetKey   = "search:stale"
)

// RedisCheckpoint stores the resync checkpoint in Redis so that a resync
// interrupted in one process can be resumed from another.
type RedisCheckpoint struct {
	client *redis.Client
	key    string
}

var _ search.Checkpoint = (*RedisCheckpoint)(nil)

func NewRedisCheckpoint(client *redis.Client) *RedisCheckpoint {
	return &RedisCheckpoint{client: client, key: CheckpointKey}
}

func (c *RedisCheckpoint) Load(ctx context.Context) (string, error) {
	lastID, err := c.client.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load resync checkpoint: %w", err)
	}
	return lastID, nil
}

func (c *RedisCheckpoint) Save(ctx context.Context, lastID string) error {
	if err := c.client.Set(ctx, c.key, lastID, 0).Err(); err != nil {
		return fmt.Errorf("failed to save resync checkpoint: %w", err)
	}
	return nil
}

func (c *RedisCheckpoint) Clear(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("failed to clear resync checkpoint: %w", err)
	}
	return nil
}

// RedisStaleTracker keeps the ids of notes whose index write failed in a
// Redis set shared by every API instance.
type RedisStaleTracker struct {
	client *redis.Client
	key    string
}

var _ search.StaleTracker = (*RedisStaleTracker)(nil)

func NewRedisStaleTracker(client *redis.Client) *RedisStaleTracker {
	return &RedisStaleTracker{client: client, key: StaleSetKey}
}

func (t *RedisStaleTracker) MarkStale(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := t.client.SAdd(ctx, t.key, toAny(ids)...).Err(); err != nil {
		return fmt.Errorf("failed to mark notes stale: %w", err)
	}
	return nil
}

// StaleIDs returns the tracked ids in ascending order.
func (t *RedisStaleTracker) StaleIDs(ctx context.Context) ([]string, error) {
	ids, err := t.client.SMembers(ctx, t.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stale notes: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (t *RedisStaleTracker) ClearStale(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := t.client.SRem(ctx, t.key, toAny(ids)...).Err(); err != nil {
		return fmt.Errorf("failed to clear stale notes: %w", err)
	}
	return nil
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
