package follow

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tweeter/internal/tweeter"

	"github.com/gin-gonic/gin"
)

func testRouter(t *testing.T, repo *memoryRepository, health map[string]HealthChecker) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := NewService(Dependencies{Repository: repo, Logger: quietLogger()})
	return SetupRouter(svc, RouterConfig{
		Sessions: tokenSessions(map[string]string{"tok-amy": "@amy"}),
		Logger:   quietLogger(),
		Health:   health,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	})
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer tok-amy")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_GetUser(t *testing.T) {
	r := testRouter(t, newMemoryRepository("@amy", "@bob"), nil)

	w := do(r, http.MethodGet, "/users/@bob")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var u tweeter.User
	if err := json.NewDecoder(w.Body).Decode(&u); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if u.Alias != "@bob" || u.ImageURL != "avatars/@bob.png" {
		t.Errorf("Unexpected user %+v", u)
	}

	if w := do(r, http.MethodGet, "/users/@ghost"); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown alias, got %d", w.Code)
	}
}

func TestHandler_RequiresToken(t *testing.T) {
	r := testRouter(t, newMemoryRepository("@amy"), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/@amy", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestHandler_FollowFlow(t *testing.T) {
	repo := newMemoryRepository("@amy", "@bob")
	r := testRouter(t, repo, nil)

	w := do(r, http.MethodGet, "/users/@bob/followed-by/@amy")
	var status FollowerStatusResponse
	_ = json.NewDecoder(w.Body).Decode(&status)
	if w.Code != http.StatusOK || status.IsFollower {
		t.Fatalf("Expected not following yet, got %d %+v", w.Code, status)
	}

	w = do(r, http.MethodPost, "/follow/@bob")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var res FollowResult
	_ = json.NewDecoder(w.Body).Decode(&res)
	if res.FollowerCount != 1 || res.FolloweeCount != 0 {
		t.Errorf("Expected counts (1, 0), got %+v", res)
	}

	w = do(r, http.MethodGet, "/users/@bob/followed-by/@amy")
	_ = json.NewDecoder(w.Body).Decode(&status)
	if !status.IsFollower || status.Alias != "@bob" || status.Follower != "@amy" {
		t.Errorf("Expected @amy to follow @bob, got %+v", status)
	}

	w = do(r, http.MethodGet, "/users/@amy/followees/count")
	var cnt CountResponse
	_ = json.NewDecoder(w.Body).Decode(&cnt)
	if cnt.Count != 1 || cnt.Alias != "@amy" {
		t.Errorf("Expected @amy followee count 1, got %+v", cnt)
	}

	w = do(r, http.MethodDelete, "/follow/@bob")
	_ = json.NewDecoder(w.Body).Decode(&res)
	if w.Code != http.StatusOK || res.FollowerCount != 0 {
		t.Errorf("Expected unfollow to drop count to 0, got %d %+v", w.Code, res)
	}

	w = do(r, http.MethodGet, "/users/@bob/followers/count")
	_ = json.NewDecoder(w.Body).Decode(&cnt)
	if cnt.Count != 0 {
		t.Errorf("Expected 0 followers, got %d", cnt.Count)
	}
}

func TestHandler_FollowErrors(t *testing.T) {
	r := testRouter(t, newMemoryRepository("@amy"), nil)

	tests := []struct {
		name string
		path string
		code int
	}{
		{"self", "/follow/@amy", http.StatusBadRequest},
		{"unknown", "/follow/@ghost", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(r, http.MethodPost, tt.path); w.Code != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, w.Code)
			}
		})
	}
}

func TestHandler_Health(t *testing.T) {
	up := func() map[string]string { return map[string]string{"status": "up"} }
	down := func() map[string]string { return map[string]string{"status": "down", "error": "refused"} }

	r := testRouter(t, newMemoryRepository(), map[string]HealthChecker{"database": up})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"healthy"`) {
		t.Errorf("Expected healthy, got %d %s", w.Code, w.Body.String())
	}

	r = testRouter(t, newMemoryRepository(), map[string]HealthChecker{"database": up, "redis": down})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), `"degraded"`) {
		t.Errorf("Expected degraded, got %d %s", w.Code, w.Body.String())
	}
}

func TestHandler_Metrics(t *testing.T) {
	r := testRouter(t, newMemoryRepository(), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK || w.Body.String() != "# metrics" {
		t.Errorf("Expected metrics passthrough, got %d %q", w.Code, w.Body.String())
	}
}
