// Package notify consumes follow events and keeps a short inbox of "new
// follower" notifications per user.
package notify

import (
	"fmt"
	"time"

	"tweeter/internal/follow"
)

// Notification is one inbox entry
type Notification struct {
	EventID    string    `json:"event_id"`
	Recipient  string    `json:"recipient"`
	Follower   string    `json:"follower"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// FromEvent builds the recipient's notification for a followed event
func FromEvent(ev follow.FollowEvent) Notification {
	return Notification{
		EventID:    ev.ID,
		Recipient:  ev.Followee,
		Follower:   ev.Follower,
		Message:    fmt.Sprintf("%s started following you", ev.Follower),
		OccurredAt: ev.OccurredAt,
	}
}

// ProcessedRecord is stored for each event id that has been handled
type ProcessedRecord struct {
	ProcessedAt time.Time `json:"processed_at"`
	Type        string    `json:"type"`
	Followee    string    `json:"followee"`
}
