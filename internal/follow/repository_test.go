package follow

import (
	"context"
	"errors"
	"testing"
	"time"

	"tweeter/internal/database"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func setupRepository(t *testing.T) Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("tweeter"),
		postgres.WithUsername("tweeter"),
		postgres.WithPassword("tweeter"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres: %v", err)
	}
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(ctr)
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	db, err := database.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	repo := NewRepository(db)
	for _, a := range []string{"@amy", "@bob", "@cid"} {
		if err := repo.UpsertUser(ctx, &UserRecord{Alias: a, FirstName: "User", LastName: a, ImageKey: "avatars/" + a}); err != nil {
			t.Fatalf("Failed to seed %s: %v", a, err)
		}
	}
	return repo
}

func TestRepository_FollowLifecycle(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	created, err := repo.Follow(ctx, "@amy", "@bob")
	if err != nil || !created {
		t.Fatalf("Expected new edge, got %v (%v)", created, err)
	}
	created, err = repo.Follow(ctx, "@amy", "@bob")
	if err != nil || created {
		t.Errorf("Expected duplicate follow to be a no-op, got %v (%v)", created, err)
	}
	if _, err := repo.Follow(ctx, "@cid", "@bob"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if ok, _ := repo.IsFollower(ctx, "@amy", "@bob"); !ok {
		t.Error("Expected @amy to follow @bob")
	}
	if ok, _ := repo.IsFollower(ctx, "@bob", "@amy"); ok {
		t.Error("Expected follow edges to be directed")
	}

	if n, _ := repo.CountFollowers(ctx, "@bob"); n != 2 {
		t.Errorf("Expected 2 followers, got %d", n)
	}
	if n, _ := repo.CountFollowees(ctx, "@amy"); n != 1 {
		t.Errorf("Expected 1 followee, got %d", n)
	}

	removed, err := repo.Unfollow(ctx, "@amy", "@bob")
	if err != nil || !removed {
		t.Errorf("Expected edge removed, got %v (%v)", removed, err)
	}
	removed, _ = repo.Unfollow(ctx, "@amy", "@bob")
	if removed {
		t.Error("Expected second unfollow to be a no-op")
	}
	if n, _ := repo.CountFollowers(ctx, "@bob"); n != 1 {
		t.Errorf("Expected 1 follower, got %d", n)
	}
}

func TestRepository_GetUser(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	u, err := repo.GetUser(ctx, "@cid")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if u.LastName != "@cid" || u.ImageKey != "avatars/@cid" || u.CreatedAt.IsZero() {
		t.Errorf("Unexpected record %+v", u)
	}

	if _, err := repo.GetUser(ctx, "@ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestRepository_RejectsSelfFollow(t *testing.T) {
	repo := setupRepository(t)

	if _, err := repo.Follow(context.Background(), "@amy", "@amy"); err == nil {
		t.Error("Expected check constraint violation for self follow")
	}
}
