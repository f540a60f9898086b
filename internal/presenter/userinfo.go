package presenter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tweeter/internal/tweeter"

	"golang.org/x/sync/errgroup"
)

// ErrActionInFlight is returned when a follow or unfollow is requested while
// another one has not completed yet
var ErrActionInFlight = errors.New("a follow action is already in progress")

// ErrNoSubject is returned when follow or unfollow is requested with no user
// displayed, e.g. after logout
var ErrNoSubject = errors.New("no user to follow")

// UserInfoState is a snapshot of the follow relationship shown on a profile
type UserInfoState struct {
	Subject       *tweeter.User
	IsFollower    bool
	FollowerCount Count
	FolloweeCount Count
	IsLoading     bool
}

// CountsLoaded reports whether both counts can be rendered
func (s UserInfoState) CountsLoaded() bool {
	return s.FollowerCount.IsLoaded() && s.FolloweeCount.IsLoaded()
}

// UserInfoPresenter drives follow status, counts and follow/unfollow for the
// displayed user. It is safe for concurrent use; every action returns the
// resulting state instead of exposing fields.
type UserInfoPresenter struct {
	base
	server Server

	mu    sync.Mutex
	state UserInfoState
}

// NewUserInfoPresenter creates a presenter reporting through view
func NewUserInfoPresenter(view MessageView, server Server) *UserInfoPresenter {
	return &UserInfoPresenter{
		base:   base{view: view},
		server: server,
	}
}

// State returns the current snapshot
func (p *UserInfoPresenter) State() UserInfoState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Refresh recomputes follow status and both counts for subject. The three
// fetches run concurrently and each failure is reported on its own.
func (p *UserInfoPresenter) Refresh(ctx context.Context, token tweeter.AuthToken, viewer, subject *tweeter.User) UserInfoState {
	p.mu.Lock()
	p.state = UserInfoState{Subject: subject, IsLoading: p.state.IsLoading}
	p.mu.Unlock()

	// Errors are reported to the view by each loader, never returned to the group.
	var g errgroup.Group
	g.Go(func() error {
		_, _ = p.LoadFollowStatus(ctx, token, viewer, subject)
		return nil
	})
	g.Go(func() error {
		_, _ = p.LoadFolloweeCount(ctx, token, subject)
		return nil
	})
	g.Go(func() error {
		_, _ = p.LoadFollowerCount(ctx, token, subject)
		return nil
	})
	_ = g.Wait()

	return p.State()
}

// LoadFollowStatus determines whether viewer follows subject. Viewing your own
// profile is never a follow.
func (p *UserInfoPresenter) LoadFollowStatus(ctx context.Context, token tweeter.AuthToken, viewer, subject *tweeter.User) (bool, error) {
	isFollower := false
	if !viewer.Equals(subject) {
		var err error
		isFollower, err = p.server.IsFollower(ctx, token, viewer, subject)
		if err != nil {
			p.report("determine follower status", err)
			return false, err
		}
	}

	p.apply(subject, func(s *UserInfoState) { s.IsFollower = isFollower })
	return isFollower, nil
}

// LoadFolloweeCount fetches how many users subject follows
func (p *UserInfoPresenter) LoadFolloweeCount(ctx context.Context, token tweeter.AuthToken, subject *tweeter.User) (Count, error) {
	n, err := p.server.GetFolloweeCount(ctx, token, subject)
	if err != nil {
		p.report("get followees count", err)
		return NotLoaded(), err
	}

	c := Loaded(n)
	p.apply(subject, func(s *UserInfoState) { s.FolloweeCount = c })
	return c, nil
}

// LoadFollowerCount fetches how many users follow subject
func (p *UserInfoPresenter) LoadFollowerCount(ctx context.Context, token tweeter.AuthToken, subject *tweeter.User) (Count, error) {
	n, err := p.server.GetFollowerCount(ctx, token, subject)
	if err != nil {
		p.report("get followers count", err)
		return NotLoaded(), err
	}

	c := Loaded(n)
	p.apply(subject, func(s *UserInfoState) { s.FollowerCount = c })
	return c, nil
}

// Follow makes the token's user follow subject. On success the follow flag is
// set and both counts take the server's values; on failure the flag is left
// alone and an error toast is shown.
func (p *UserInfoPresenter) Follow(ctx context.Context, token tweeter.AuthToken, subject *tweeter.User) (UserInfoState, error) {
	return p.change(subject, true, func() (int64, int64, error) {
		return p.server.Follow(ctx, token, subject)
	})
}

// Unfollow mirrors Follow
func (p *UserInfoPresenter) Unfollow(ctx context.Context, token tweeter.AuthToken, subject *tweeter.User) (UserInfoState, error) {
	return p.change(subject, false, func() (int64, int64, error) {
		return p.server.Unfollow(ctx, token, subject)
	})
}

func (p *UserInfoPresenter) change(subject *tweeter.User, follow bool, call func() (int64, int64, error)) (st UserInfoState, err error) {
	if subject == nil {
		return p.State(), ErrNoSubject
	}
	if err := p.beginAction(); err != nil {
		return p.State(), err
	}
	defer func() { st = p.endAction() }()

	verb, what := "Following", "follow user"
	if !follow {
		verb, what = "Unfollowing", "unfollow user"
	}

	p.view.DisplayInfoMessage(fmt.Sprintf("%s %s...", verb, subject.Name()), 0)
	defer p.view.ClearLastInfoMessage()

	followerCount, followeeCount, err := call()
	if err != nil {
		p.report(what, err)
		return st, err
	}

	p.apply(subject, func(s *UserInfoState) {
		s.IsFollower = follow
		s.FollowerCount = Loaded(followerCount)
		s.FolloweeCount = Loaded(followeeCount)
	})
	return st, nil
}

func (p *UserInfoPresenter) beginAction() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.IsLoading {
		return ErrActionInFlight
	}
	p.state.IsLoading = true
	return nil
}

// endAction drops the loading flag and returns the final snapshot
func (p *UserInfoPresenter) endAction() UserInfoState {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.IsLoading = false
	return p.state
}

// apply mutates the state only while it still describes subject, so results
// for a profile the user already navigated away from are dropped.
func (p *UserInfoPresenter) apply(subject *tweeter.User, fn func(s *UserInfoState)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Subject == nil {
		p.state.Subject = subject
	}
	if !p.state.Subject.Equals(subject) {
		return
	}
	fn(&p.state)
}
