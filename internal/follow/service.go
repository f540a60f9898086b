package follow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tweeter/internal/tweeter"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUserNotFound = errors.New("user not found")
	ErrSelfFollow   = errors.New("cannot follow yourself")
)

// Service defines the follow operations exposed over HTTP
type Service interface {
	GetUser(ctx context.Context, alias string) (*tweeter.User, error)
	IsFollower(ctx context.Context, follower, followee string) (bool, error)
	FollowerCount(ctx context.Context, alias string) (int64, error)
	FolloweeCount(ctx context.Context, alias string) (int64, error)
	Follow(ctx context.Context, follower, followee string) (*FollowResult, error)
	Unfollow(ctx context.Context, follower, followee string) (*FollowResult, error)
}

// EventPublisher sends follow events to a topic
type EventPublisher interface {
	Publish(topic, key string, event interface{}) error
}

// AvatarSigner turns stored avatar keys into download URLs
type AvatarSigner interface {
	GeneratePresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ActionObserver records follow action outcomes
type ActionObserver interface {
	ObserveFollowAction(action string, err error)
}

// Dependencies wires a Service. Only Repository is required.
type Dependencies struct {
	Repository  Repository
	Cache       CountCache
	Events      EventPublisher
	EventsTopic string
	Avatars     AvatarSigner
	AvatarTTL   time.Duration
	Observer    ActionObserver
	Logger      *slog.Logger
}

type service struct {
	repo        Repository
	cache       CountCache
	events      EventPublisher
	eventsTopic string
	avatars     AvatarSigner
	avatarTTL   time.Duration
	observer    ActionObserver
	logger      *slog.Logger
}

// NewService creates a follow service
func NewService(deps Dependencies) Service {
	s := &service{
		repo:        deps.Repository,
		cache:       deps.Cache,
		events:      deps.Events,
		eventsTopic: deps.EventsTopic,
		avatars:     deps.Avatars,
		avatarTTL:   deps.AvatarTTL,
		observer:    deps.Observer,
		logger:      deps.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.avatarTTL <= 0 {
		s.avatarTTL = time.Hour
	}
	if s.eventsTopic == "" {
		s.eventsTopic = "follow-events"
	}
	return s
}

func (s *service) GetUser(ctx context.Context, alias string) (*tweeter.User, error) {
	if alias == "" {
		return nil, ErrInvalidInput
	}

	rec, err := s.repo.GetUser(ctx, alias)
	if err != nil {
		return nil, err
	}

	return tweeter.NewUser(rec.FirstName, rec.LastName, rec.Alias, s.avatarURL(ctx, rec.ImageKey)), nil
}

// avatarURL presigns object keys; absolute URLs and unsigned setups pass through
func (s *service) avatarURL(ctx context.Context, key string) string {
	if key == "" || s.avatars == nil || strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}

	url, err := s.avatars.GeneratePresignedDownloadURL(ctx, key, s.avatarTTL)
	if err != nil {
		s.logger.Warn("Failed to presign avatar", "key", key, "error", err)
		return key
	}
	return url
}

func (s *service) IsFollower(ctx context.Context, follower, followee string) (bool, error) {
	if follower == "" || followee == "" {
		return false, ErrInvalidInput
	}
	if follower == followee {
		return false, nil
	}
	return s.repo.IsFollower(ctx, follower, followee)
}

func (s *service) FollowerCount(ctx context.Context, alias string) (int64, error) {
	return s.count(ctx, Followers, alias)
}

func (s *service) FolloweeCount(ctx context.Context, alias string) (int64, error) {
	return s.count(ctx, Followees, alias)
}

// count reads through the cache. Cache failures fall back to the repository.
func (s *service) count(ctx context.Context, kind CountKind, alias string) (int64, error) {
	if alias == "" {
		return 0, ErrInvalidInput
	}

	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		n, g, ok, err := s.cache.Get(ctx, kind, alias)
		if err != nil {
			s.logger.Warn("Count cache read failed", "kind", kind, "alias", alias, "error", err)
		} else if ok {
			return n, nil
		} else {
			gen, cacheable = g, true
		}
	}

	var (
		n   int64
		err error
	)
	if kind == Followers {
		n, err = s.repo.CountFollowers(ctx, alias)
	} else {
		n, err = s.repo.CountFollowees(ctx, alias)
	}
	if err != nil {
		return 0, err
	}

	// written under the generation seen before the read
	if cacheable {
		if err := s.cache.Set(ctx, kind, alias, gen, n); err != nil {
			s.logger.Warn("Count cache write failed", "kind", kind, "alias", alias, "error", err)
		}
	}
	return n, nil
}

func (s *service) Follow(ctx context.Context, follower, followee string) (*FollowResult, error) {
	res, err := s.change(ctx, follower, followee, EventFollowed)
	s.observe("follow", err)
	return res, err
}

func (s *service) Unfollow(ctx context.Context, follower, followee string) (*FollowResult, error) {
	res, err := s.change(ctx, follower, followee, EventUnfollowed)
	s.observe("unfollow", err)
	return res, err
}

func (s *service) change(ctx context.Context, follower, followee, eventType string) (*FollowResult, error) {
	if follower == "" || followee == "" {
		return nil, ErrInvalidInput
	}
	if follower == followee {
		return nil, ErrSelfFollow
	}
	if _, err := s.repo.GetUser(ctx, followee); err != nil {
		return nil, err
	}

	var (
		changed bool
		err     error
	)
	if eventType == EventFollowed {
		changed, err = s.repo.Follow(ctx, follower, followee)
	} else {
		changed, err = s.repo.Unfollow(ctx, follower, followee)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", eventType, err)
	}

	if changed {
		if s.cache != nil {
			if err := s.cache.Invalidate(ctx, follower, followee); err != nil {
				s.logger.Warn("Count cache invalidation failed", "error", err)
			}
		}
		s.publish(eventType, follower, followee)
	}

	followers, err := s.FollowerCount(ctx, followee)
	if err != nil {
		return nil, err
	}
	followees, err := s.FolloweeCount(ctx, followee)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Follow relationship updated",
		"type", eventType,
		"follower", follower,
		"followee", followee,
		"changed", changed)

	return &FollowResult{FollowerCount: followers, FolloweeCount: followees}, nil
}

func (s *service) publish(eventType, follower, followee string) {
	if s.events == nil {
		return
	}

	ev := FollowEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Follower:   follower,
		Followee:   followee,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.Publish(s.eventsTopic, followee, ev); err != nil {
		s.logger.Error("Failed to publish follow event", "type", eventType, "error", err)
	}
}

func (s *service) observe(action string, err error) {
	if s.observer != nil {
		s.observer.ObserveFollowAction(action, err)
	}
}
