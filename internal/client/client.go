// Package client talks to the follow service over HTTP. It is the data source
// the profile presenters use outside of tests.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tweeter/internal/tweeter"
)

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("follow service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("follow service returned %d: %s", e.StatusCode, e.Message)
}

// ErrNoUser is returned when a nil user is passed where one is required
var ErrNoUser = errors.New("user is required")

type countResponse struct {
	Count int64 `json:"count"`
}

type followerStatusResponse struct {
	IsFollower bool `json:"is_follower"`
}

type followResult struct {
	FollowerCount int64 `json:"follower_count"`
	FolloweeCount int64 `json:"followee_count"`
}

// Client is a follow service client. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client for the service rooted at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method string, token tweeter.AuthToken, out interface{}, segments ...string) error {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.Join(escaped, "/"), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.String())

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &body) == nil {
			apiErr.Message = body.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// FindUserByAlias returns nil without an error when no user has the alias
func (c *Client) FindUserByAlias(ctx context.Context, token tweeter.AuthToken, alias string) (*tweeter.User, error) {
	var u tweeter.User
	err := c.do(ctx, http.MethodGet, token, &u, "users", alias)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// IsFollower reports whether user follows selectedUser
func (c *Client) IsFollower(ctx context.Context, token tweeter.AuthToken, user, selectedUser *tweeter.User) (bool, error) {
	if user == nil || selectedUser == nil {
		return false, ErrNoUser
	}

	var st followerStatusResponse
	if err := c.do(ctx, http.MethodGet, token, &st, "users", selectedUser.Alias, "followed-by", user.Alias); err != nil {
		return false, err
	}
	return st.IsFollower, nil
}

func (c *Client) GetFolloweeCount(ctx context.Context, token tweeter.AuthToken, user *tweeter.User) (int64, error) {
	return c.count(ctx, token, user, "followees")
}

func (c *Client) GetFollowerCount(ctx context.Context, token tweeter.AuthToken, user *tweeter.User) (int64, error) {
	return c.count(ctx, token, user, "followers")
}

func (c *Client) count(ctx context.Context, token tweeter.AuthToken, user *tweeter.User, kind string) (int64, error) {
	if user == nil {
		return 0, ErrNoUser
	}

	var cnt countResponse
	if err := c.do(ctx, http.MethodGet, token, &cnt, "users", user.Alias, kind, "count"); err != nil {
		return 0, err
	}
	return cnt.Count, nil
}

// Follow makes the token's user follow userToFollow and returns that user's
// follower and followee counts
func (c *Client) Follow(ctx context.Context, token tweeter.AuthToken, userToFollow *tweeter.User) (int64, int64, error) {
	return c.change(ctx, http.MethodPost, token, userToFollow)
}

// Unfollow is the inverse of Follow
func (c *Client) Unfollow(ctx context.Context, token tweeter.AuthToken, userToUnfollow *tweeter.User) (int64, int64, error) {
	return c.change(ctx, http.MethodDelete, token, userToUnfollow)
}

func (c *Client) change(ctx context.Context, method string, token tweeter.AuthToken, user *tweeter.User) (int64, int64, error) {
	if user == nil {
		return 0, 0, ErrNoUser
	}

	var res followResult
	if err := c.do(ctx, method, token, &res, "follow", user.Alias); err != nil {
		return 0, 0, err
	}
	return res.FollowerCount, res.FolloweeCount, nil
}
