package follow

import "time"

// UserRecord is a row of the users table
type UserRecord struct {
	Alias     string    `json:"alias"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	ImageKey  string    `json:"image_key"`
	CreatedAt time.Time `json:"created_at"`
}

// FollowResult carries the subject's counts after a follow or unfollow
type FollowResult struct {
	FollowerCount int64 `json:"follower_count"`
	FolloweeCount int64 `json:"followee_count"`
}

// CountResponse is returned by the count endpoints
type CountResponse struct {
	Alias string `json:"alias"`
	Count int64  `json:"count"`
}

// FollowerStatusResponse tells whether Follower follows Alias
type FollowerStatusResponse struct {
	Alias      string `json:"alias"`
	Follower   string `json:"follower"`
	IsFollower bool   `json:"is_follower"`
}

// FollowEvent is published whenever a follow edge is created or removed
type FollowEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Follower   string    `json:"follower"`
	Followee   string    `json:"followee"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Follow event types
const (
	EventFollowed   = "followed"
	EventUnfollowed = "unfollowed"
)
