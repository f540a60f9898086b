package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"tweeter/internal/follow"
)

// Outcome tells the consumer what to do with the message offset
type Outcome int

const (
	// Delivered: notification stored, commit
	Delivered Outcome = iota
	// Ignored: valid event with nothing to deliver, commit
	Ignored
	// Duplicate: already handled, commit
	Duplicate
	// Malformed: undecodable or missing id, commit
	Malformed
	// Failed: delivery kept failing, dead letter then commit
	Failed
	// Retry: the event could not be claimed, redeliver
	Retry
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Ignored:
		return "ignored"
	case Duplicate:
		return "duplicate"
	case Malformed:
		return "malformed"
	case Failed:
		return "failed"
	default:
		return "retry"
	}
}

// Processor turns raw follow events into inbox entries
type Processor struct {
	dedupe     Deduper
	inbox      Inbox
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
}

// NewProcessor creates a processor retrying delivery maxRetries times with a
// linear backoff step
func NewProcessor(dedupe Deduper, inbox Inbox, maxRetries int, backoff time.Duration, logger *slog.Logger) *Processor {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Processor{
		dedupe:     dedupe,
		inbox:      inbox,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
	}
}

// Handle processes one message value. The event is returned whenever it
// decoded, so failures can be dead-lettered with it.
func (p *Processor) Handle(ctx context.Context, value []byte) (Outcome, *follow.FollowEvent, error) {
	var ev follow.FollowEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		p.logger.Error("Failed to parse follow event", "error", err, "raw_value", string(value))
		return Malformed, nil, err
	}
	if ev.ID == "" || ev.Follower == "" || ev.Followee == "" {
		p.logger.Error("Follow event incomplete", "type", ev.Type, "followee", ev.Followee)
		return Malformed, &ev, fmt.Errorf("follow event incomplete")
	}

	won, err := p.dedupe.Reserve(ctx, ev)
	if err != nil {
		return Retry, &ev, err
	}
	if !won {
		p.logger.Warn("Duplicate follow event, skipping", "event_id", ev.ID)
		return Duplicate, &ev, nil
	}

	outcome := Ignored
	if ev.Type == follow.EventFollowed {
		if err := p.deliverWithRetry(ctx, FromEvent(ev)); err != nil {
			if rerr := p.dedupe.Release(context.WithoutCancel(ctx), ev.ID); rerr != nil {
				p.logger.Error("Failed to release follow event", "event_id", ev.ID, "error", rerr)
			}
			return Failed, &ev, err
		}
		outcome = Delivered
	}

	p.logger.Info("Follow event processed",
		"event_id", ev.ID,
		"type", ev.Type,
		"followee", ev.Followee,
		"outcome", outcome.String())

	return outcome, &ev, nil
}

func (p *Processor) deliverWithRetry(ctx context.Context, n Notification) error {
	var lastErr error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		if lastErr = p.inbox.Deliver(ctx, n); lastErr == nil {
			return nil
		}

		p.logger.Warn("Failed to deliver notification, will retry",
			"event_id", n.EventID,
			"attempt", attempt,
			"max_retries", p.maxRetries,
			"error", lastErr)

		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * p.backoff):
			}
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
