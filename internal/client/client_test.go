package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tweeter/internal/presenter"
	"tweeter/internal/tweeter"
)

var _ presenter.Server = (*Client)(nil)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized: invalid auth token"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			h(w, r)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/{alias}", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("alias") != "@amy" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"user not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"first_name":"Amy","last_name":"Ames","alias":"@amy","image_url":"https://img/amy.png"}`))
	}))
	mux.HandleFunc("GET /users/{alias}/followers/count", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"alias":"@amy","count":7}`))
	}))
	mux.HandleFunc("GET /users/{alias}/followees/count", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"alias":"@amy","count":3}`))
	}))
	mux.HandleFunc("GET /users/{alias}/followed-by/{follower}", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("alias") == "@amy" && r.PathValue("follower") == "@bob" {
			_, _ = w.Write([]byte(`{"is_follower":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"is_follower":false}`))
	}))
	mux.HandleFunc("POST /follow/{alias}", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"follower_count":8,"followee_count":3}`))
	}))
	mux.HandleFunc("DELETE /follow/{alias}", authed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed"}`))
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_FindUserByAlias(t *testing.T) {
	c := New(newTestServer(t).URL + "/")
	ctx := context.Background()

	u, err := c.FindUserByAlias(ctx, "tok", "@amy")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if u.Name() != "Amy Ames" || u.ImageURL != "https://img/amy.png" {
		t.Errorf("Unexpected user %+v", u)
	}

	u, err = c.FindUserByAlias(ctx, "tok", "@nobody")
	if err != nil || u != nil {
		t.Errorf("Expected nil user for unknown alias, got %+v (%v)", u, err)
	}
}

func TestClient_Unauthorized(t *testing.T) {
	c := New(newTestServer(t).URL)

	_, err := c.FindUserByAlias(context.Background(), "wrong", "@amy")

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401 APIError, got %v", err)
	}
	if apiErr.Error() != "follow service returned 401: unauthorized: invalid auth token" {
		t.Errorf("Unexpected message %q", apiErr.Error())
	}
}

func TestClient_CountsAndStatus(t *testing.T) {
	c := New(newTestServer(t).URL)
	ctx := context.Background()
	amy := tweeter.NewUser("Amy", "Ames", "@amy", "")
	bob := tweeter.NewUser("Bob", "Burns", "@bob", "")

	if n, err := c.GetFollowerCount(ctx, "tok", amy); err != nil || n != 7 {
		t.Errorf("Expected 7 followers, got %d (%v)", n, err)
	}
	if n, err := c.GetFolloweeCount(ctx, "tok", amy); err != nil || n != 3 {
		t.Errorf("Expected 3 followees, got %d (%v)", n, err)
	}

	if ok, err := c.IsFollower(ctx, "tok", bob, amy); err != nil || !ok {
		t.Errorf("Expected @bob to follow @amy, got %v (%v)", ok, err)
	}
	if ok, _ := c.IsFollower(ctx, "tok", amy, bob); ok {
		t.Error("Expected @amy not to follow @bob")
	}

	if _, err := c.GetFollowerCount(ctx, "tok", nil); !errors.Is(err, ErrNoUser) {
		t.Errorf("Expected ErrNoUser, got %v", err)
	}
}

func TestClient_FollowUnfollow(t *testing.T) {
	c := New(newTestServer(t).URL)
	ctx := context.Background()
	amy := tweeter.NewUser("Amy", "Ames", "@amy", "")

	followers, followees, err := c.Follow(ctx, "tok", amy)
	if err != nil || followers != 8 || followees != 3 {
		t.Errorf("Expected (8, 3), got (%d, %d) %v", followers, followees, err)
	}

	_, _, err = c.Unfollow(ctx, "tok", amy)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError || apiErr.Message != "failed" {
		t.Errorf("Expected 500 APIError, got %v", err)
	}
}
