package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tweeter/internal/follow"

	"github.com/redis/go-redis/v9"
)

// Deduper claims event ids so each event is handled once
type Deduper interface {
	// Reserve claims ev.ID and returns false when it was already claimed
	Reserve(ctx context.Context, ev follow.FollowEvent) (bool, error)
	// Release drops a claim so the event can be handled again
	Release(ctx context.Context, eventID string) error
}

// IdempotencyStore is a Deduper on Redis
type IdempotencyStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewIdempotencyStore keeps claims for ttl, 24h when ttl is not positive
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{redis: client, ttl: ttl}
}

func processedKey(eventID string) string {
	return fmt.Sprintf("follow:event:processed:%s", eventID)
}

// Reserve uses SET NX so only one consumer wins
func (s *IdempotencyStore) Reserve(ctx context.Context, ev follow.FollowEvent) (bool, error) {
	data, err := json.Marshal(ProcessedRecord{
		ProcessedAt: time.Now().UTC(),
		Type:        ev.Type,
		Followee:    ev.Followee,
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal record: %w", err)
	}

	ok, err := s.redis.SetNX(ctx, processedKey(ev.ID), data, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve event: %w", err)
	}
	return ok, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, eventID string) error {
	if err := s.redis.Del(ctx, processedKey(eventID)).Err(); err != nil {
		return fmt.Errorf("failed to release event: %w", err)
	}
	return nil
}

// Count scans the processed records still alive
func (s *IdempotencyStore) Count(ctx context.Context) (int64, error) {
	var (
		cursor uint64
		count  int64
	)
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, processedKey("*"), 100).Result()
		if err != nil {
			return count, fmt.Errorf("failed to scan keys: %w", err)
		}
		count += int64(len(keys))
		if next == 0 {
			return count, nil
		}
		cursor = next
	}
}
