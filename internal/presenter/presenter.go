// Package presenter implements the client-side presenters that sit between a
// profile view and the follow data source.
package presenter

import (
	"context"
	"fmt"
	"time"

	"tweeter/internal/tweeter"
)

// MessageView is the toast surface presenters report through. Calls are
// fire-and-forget.
type MessageView interface {
	DisplayErrorMessage(message string)
	DisplayInfoMessage(message string, duration time.Duration)
	ClearLastInfoMessage()
}

// UserFinder resolves aliases to users. A nil user with a nil error means no
// user has that alias.
type UserFinder interface {
	FindUserByAlias(ctx context.Context, token tweeter.AuthToken, alias string) (*tweeter.User, error)
}

// Server is the data-access collaborator behind the presenters
type Server interface {
	UserFinder
	IsFollower(ctx context.Context, token tweeter.AuthToken, user, selectedUser *tweeter.User) (bool, error)
	GetFolloweeCount(ctx context.Context, token tweeter.AuthToken, user *tweeter.User) (int64, error)
	GetFollowerCount(ctx context.Context, token tweeter.AuthToken, user *tweeter.User) (int64, error)
	// Follow and Unfollow return the subject's follower and followee counts
	Follow(ctx context.Context, token tweeter.AuthToken, userToFollow *tweeter.User) (int64, int64, error)
	Unfollow(ctx context.Context, token tweeter.AuthToken, userToUnfollow *tweeter.User) (int64, int64, error)
}

// base carries the shared error reporting for presenters
type base struct {
	view MessageView
}

// report converts err into an error toast prefixed with what failed
func (b base) report(what string, err error) {
	b.view.DisplayErrorMessage(fmt.Sprintf("Failed to %s because of exception: %v", what, err))
}
