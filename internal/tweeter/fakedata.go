package tweeter

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	// ErrInvalidToken is returned when a token has no session in the fake data set
	ErrInvalidToken = errors.New("invalid auth token")
	// ErrUnknownUser is returned when a mutation names an alias that does not exist
	ErrUnknownUser = errors.New("unknown user")
)

const fakeImageBase = "https://faculty.cs.byu.edu/~jwilkerson/cs340/tweeter/images/"

// FakeData is an in-memory data source with a fixed set of users and follow
// edges. It stands in for the follow service in demos and tests.
type FakeData struct {
	mu       sync.RWMutex
	users    map[string]*User
	follows  map[string]map[string]struct{} // follower alias -> followee aliases
	sessions map[AuthToken]string
}

// NewFakeData returns a FakeData seeded with the default fixture users
func NewFakeData() *FakeData {
	f := &FakeData{
		users:    make(map[string]*User),
		follows:  make(map[string]map[string]struct{}),
		sessions: make(map[AuthToken]string),
	}

	for _, u := range fixtureUsers() {
		f.AddUser(u)
	}

	// Everyone follows @allen, @allen follows the first half of the list.
	aliases := f.Aliases()
	for i, alias := range aliases {
		if alias != "@allen" {
			f.addEdge(alias, "@allen")
		}
		if alias != "@allen" && i < len(aliases)/2 {
			f.addEdge("@allen", alias)
		}
	}

	return f
}

func fixtureUsers() []*User {
	return []*User{
		NewUser("Allen", "Anderson", "@allen", fakeImageBase+"donald_duck.png"),
		NewUser("Amy", "Ames", "@amy", fakeImageBase+"daisy_duck.png"),
		NewUser("Bob", "Bobson", "@bob", fakeImageBase+"donald_duck.png"),
		NewUser("Bonnie", "Beatty", "@bonnie", fakeImageBase+"daisy_duck.png"),
		NewUser("Chris", "Colston", "@chris", fakeImageBase+"donald_duck.png"),
		NewUser("Cindy", "Coats", "@cindy", fakeImageBase+"daisy_duck.png"),
		NewUser("Dan", "Donaldson", "@dan", fakeImageBase+"donald_duck.png"),
		NewUser("Dee", "Dempsey", "@dee", fakeImageBase+"daisy_duck.png"),
		NewUser("Elliott", "Enderson", "@elliott", fakeImageBase+"donald_duck.png"),
		NewUser("Elizabeth", "Engle", "@elizabeth", fakeImageBase+"daisy_duck.png"),
	}
}

// AddUser inserts or replaces a user
func (f *FakeData) AddUser(u *User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.Alias] = u
}

// AddSession binds a token to an alias, as a login would
func (f *FakeData) AddSession(token AuthToken, alias string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[token] = alias
}

// Aliases returns every known alias in sorted order
func (f *FakeData) Aliases() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	aliases := make([]string, 0, len(f.users))
	for alias := range f.users {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// FindUserByAlias returns the user with the given alias, or nil when none exists
func (f *FakeData) FindUserByAlias(ctx context.Context, token AuthToken, alias string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.users[alias], nil
}

// IsFollower reports whether user follows selectedUser
func (f *FakeData) IsFollower(ctx context.Context, token AuthToken, user, selectedUser *User) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.follows[user.Alias][selectedUser.Alias]
	return ok, nil
}

// GetFolloweeCount returns how many users the given user follows
func (f *FakeData) GetFolloweeCount(ctx context.Context, token AuthToken, user *User) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	return int64(len(f.follows[user.Alias])), nil
}

// GetFollowerCount returns how many users follow the given user
func (f *FakeData) GetFollowerCount(ctx context.Context, token AuthToken, user *User) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.followerCountLocked(user.Alias), nil
}

// Follow makes the token's user follow userToFollow and returns the refreshed
// follower and followee counts of userToFollow.
func (f *FakeData) Follow(ctx context.Context, token AuthToken, userToFollow *User) (int64, int64, error) {
	return f.mutate(ctx, token, userToFollow, true)
}

// Unfollow removes the follow edge and returns the refreshed counts
func (f *FakeData) Unfollow(ctx context.Context, token AuthToken, userToUnfollow *User) (int64, int64, error) {
	return f.mutate(ctx, token, userToUnfollow, false)
}

func (f *FakeData) mutate(ctx context.Context, token AuthToken, subject *User, follow bool) (int64, int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	viewer, ok := f.sessions[token]
	if !ok {
		return 0, 0, ErrInvalidToken
	}
	if _, ok := f.users[subject.Alias]; !ok {
		return 0, 0, ErrUnknownUser
	}

	if follow {
		f.addEdgeLocked(viewer, subject.Alias)
	} else {
		delete(f.follows[viewer], subject.Alias)
	}

	return f.followerCountLocked(subject.Alias), int64(len(f.follows[subject.Alias])), nil
}

func (f *FakeData) addEdge(follower, followee string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addEdgeLocked(follower, followee)
}

func (f *FakeData) addEdgeLocked(follower, followee string) {
	set, ok := f.follows[follower]
	if !ok {
		set = make(map[string]struct{})
		f.follows[follower] = set
	}
	set[followee] = struct{}{}
}

func (f *FakeData) followerCountLocked(alias string) int64 {
	var n int64
	for _, followees := range f.follows {
		if _, ok := followees[alias]; ok {
			n++
		}
	}
	return n
}
