package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Inbox stores notifications per recipient, newest first
type Inbox interface {
	Deliver(ctx context.Context, n Notification) error
	Recent(ctx context.Context, alias string, limit int) ([]Notification, error)
}

type redisInbox struct {
	client *redis.Client
	size   int64
	ttl    time.Duration
}

// NewRedisInbox keeps the newest size entries per user, expiring idle inboxes
// after ttl
func NewRedisInbox(client *redis.Client, size int, ttl time.Duration) Inbox {
	if size <= 0 {
		size = 50
	}
	return &redisInbox{client: client, size: int64(size), ttl: ttl}
}

func inboxKey(alias string) string {
	return fmt.Sprintf("notifications:%s", alias)
}

func (b *redisInbox) Deliver(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	key := inboxKey(n.Recipient)
	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, b.size-1)
		if b.ttl > 0 {
			pipe.Expire(ctx, key, b.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	return nil
}

func (b *redisInbox) Recent(ctx context.Context, alias string, limit int) ([]Notification, error) {
	if limit <= 0 || int64(limit) > b.size {
		limit = int(b.size)
	}

	raw, err := b.client.LRange(ctx, inboxKey(alias), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox: %w", err)
	}

	out := make([]Notification, 0, len(raw))
	for _, r := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(r), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
