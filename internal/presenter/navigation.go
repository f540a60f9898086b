package presenter

import (
	"context"
	"strings"
	"sync"

	"tweeter/internal/tweeter"
)

// DisplayMode tells whether the logged-in user is looking at their own profile
type DisplayMode int

const (
	ShowingCurrentUser DisplayMode = iota
	ShowingOtherUser
)

func (m DisplayMode) String() string {
	if m == ShowingOtherUser {
		return "showing other user"
	}
	return "showing current user"
}

// Session holds the logged-in user, the profile being displayed and the auth
// token. Login and logout happen elsewhere; Establish and Clear record them.
type Session struct {
	mu        sync.RWMutex
	current   *tweeter.User
	displayed *tweeter.User
	token     tweeter.AuthToken
}

// NewSession returns a session for an already authenticated user
func NewSession(current *tweeter.User, token tweeter.AuthToken) *Session {
	s := &Session{}
	s.Establish(current, token)
	return s
}

// Establish records a login
func (s *Session) Establish(current *tweeter.User, token tweeter.AuthToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = current
	s.displayed = nil
	s.token = token
}

// Clear records a logout
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.displayed = nil
	s.token = ""
}

// CurrentUser returns the logged-in user, or nil after logout
func (s *Session) CurrentUser() *tweeter.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token returns the auth token
func (s *Session) Token() tweeter.AuthToken {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// DisplayedUser returns the profile being shown. It falls back to the current
// user when nothing else has been selected.
func (s *Session) DisplayedUser() *tweeter.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.displayed == nil {
		return s.current
	}
	return s.displayed
}

// SetDisplayedUser switches the displayed profile
func (s *Session) SetDisplayedUser(u *tweeter.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.displayed = u
}

// ReturnToLoggedInUser switches back to the current user's own profile
func (s *Session) ReturnToLoggedInUser() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.displayed = s.current
}

// Mode reports which state of the displayed-user machine the session is in
func (s *Session) Mode() DisplayMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.displayed == nil || s.displayed == s.current {
		return ShowingCurrentUser
	}
	return ShowingOtherUser
}

// ExtractAlias returns the part of value starting at the first '@'. A value
// without '@' is returned unchanged.
func ExtractAlias(value string) string {
	i := strings.Index(value, "@")
	if i < 0 {
		return value
	}
	return value[i:]
}

// UserNavigator resolves an alias picked from the UI into the displayed user
type UserNavigator struct {
	base
	session *Session
	finder  UserFinder
}

// NewUserNavigator creates a navigator updating session
func NewUserNavigator(view MessageView, session *Session, finder UserFinder) *UserNavigator {
	return &UserNavigator{
		base:    base{view: view},
		session: session,
		finder:  finder,
	}
}

// NavigateToUser looks up the alias contained in eventTarget and displays that
// user. Resolving to the logged-in user shows the session's own user record.
// An alias with no match changes nothing and shows no message.
func (n *UserNavigator) NavigateToUser(ctx context.Context, eventTarget string) error {
	alias := ExtractAlias(eventTarget)

	user, err := n.finder.FindUserByAlias(ctx, n.session.Token(), alias)
	if err != nil {
		n.report("get user", err)
		return err
	}
	if user == nil {
		return nil
	}

	current := n.session.CurrentUser()
	if current.Equals(user) {
		n.session.SetDisplayedUser(current)
	} else {
		n.session.SetDisplayedUser(user)
	}
	return nil
}
