package follow

import (
	"context"
	"errors"
	"sync"
	"time"
)

// memoryRepository is a Repository backed by maps
type memoryRepository struct {
	mu      sync.Mutex
	users   map[string]*UserRecord
	follows map[[2]string]bool
	err     error
	// afterCount runs once, after a count is computed and before it returns
	afterCount func()
}

func newMemoryRepository(aliases ...string) *memoryRepository {
	r := &memoryRepository{
		users:   make(map[string]*UserRecord),
		follows: make(map[[2]string]bool),
	}
	for _, a := range aliases {
		r.users[a] = &UserRecord{Alias: a, FirstName: "First" + a, LastName: "Last", ImageKey: "avatars/" + a + ".png"}
	}
	return r
}

func (r *memoryRepository) GetUser(ctx context.Context, alias string) (*UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[alias]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memoryRepository) UpsertUser(ctx context.Context, u *UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.Alias] = &cp
	return r.err
}

func (r *memoryRepository) IsFollower(ctx context.Context, follower, followee string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.follows[[2]string{follower, followee}], r.err
}

func (r *memoryRepository) CountFollowers(ctx context.Context, alias string) (int64, error) {
	r.mu.Lock()
	var n int64
	for edge := range r.follows {
		if edge[1] == alias {
			n++
		}
	}
	err, hook := r.err, r.afterCount
	r.afterCount = nil
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return n, err
}

func (r *memoryRepository) CountFollowees(ctx context.Context, alias string) (int64, error) {
	r.mu.Lock()
	var n int64
	for edge := range r.follows {
		if edge[0] == alias {
			n++
		}
	}
	err, hook := r.err, r.afterCount
	r.afterCount = nil
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return n, err
}

func (r *memoryRepository) Follow(ctx context.Context, follower, followee string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	key := [2]string{follower, followee}
	if r.follows[key] {
		return false, nil
	}
	r.follows[key] = true
	return true, nil
}

func (r *memoryRepository) Unfollow(ctx context.Context, follower, followee string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	key := [2]string{follower, followee}
	if !r.follows[key] {
		return false, nil
	}
	delete(r.follows, key)
	return true, nil
}

// memoryCache is a CountCache backed by maps, versioned like the Redis one
type memoryCache struct {
	mu          sync.Mutex
	counts      map[string]int64
	gens        map[string]int64
	hits        int
	invalidated []string
	getErr      error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{counts: make(map[string]int64), gens: make(map[string]int64)}
}

func (c *memoryCache) Get(ctx context.Context, kind CountKind, alias string) (int64, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return 0, 0, false, c.getErr
	}
	gen := c.gens[alias]
	n, ok := c.counts[countKey(kind, alias, gen)]
	if ok {
		c.hits++
	}
	return n, gen, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, kind CountKind, alias string, gen, n int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[countKey(kind, alias, gen)] = n
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, aliases ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range aliases {
		c.gens[a]++
		c.invalidated = append(c.invalidated, a)
	}
	return nil
}

type publishedEvent struct {
	topic string
	key   string
	event FollowEvent
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(topic, key string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	ev, ok := event.(FollowEvent)
	if !ok {
		return errors.New("unexpected event type")
	}
	p.events = append(p.events, publishedEvent{topic: topic, key: key, event: ev})
	return nil
}

// fakeSigner presigns by prefixing a host
type fakeSigner struct{}

func (fakeSigner) GeneratePresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://cdn.example/" + key + "?ttl=" + ttl.String(), nil
}

// countingObserver records follow action outcomes
type countingObserver struct {
	mu    sync.Mutex
	calls map[string]int
}

func (o *countingObserver) ObserveFollowAction(action string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.calls == nil {
		o.calls = make(map[string]int)
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	o.calls[action+":"+result]++
}
