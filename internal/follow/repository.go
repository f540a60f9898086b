package follow

import (
	"context"
	"errors"
	"fmt"

	"tweeter/internal/database"

	"github.com/jackc/pgx/v5"
)

// Repository is the persistence behind the follow service
type Repository interface {
	GetUser(ctx context.Context, alias string) (*UserRecord, error)
	UpsertUser(ctx context.Context, u *UserRecord) error
	IsFollower(ctx context.Context, follower, followee string) (bool, error)
	CountFollowers(ctx context.Context, alias string) (int64, error)
	CountFollowees(ctx context.Context, alias string) (int64, error)
	// Follow reports whether a new edge was created
	Follow(ctx context.Context, follower, followee string) (bool, error)
	// Unfollow reports whether an edge was removed
	Unfollow(ctx context.Context, follower, followee string) (bool, error)
}

type pgRepository struct {
	db database.Service
}

// NewRepository creates a Postgres-backed repository
func NewRepository(db database.Service) Repository {
	return &pgRepository{db: db}
}

func (r *pgRepository) GetUser(ctx context.Context, alias string) (*UserRecord, error) {
	const q = `
		SELECT alias, first_name, last_name, image_key, created_at
		FROM users
		WHERE alias = $1
	`

	u := &UserRecord{}
	err := r.db.QueryRow(ctx, q, alias).Scan(&u.Alias, &u.FirstName, &u.LastName, &u.ImageKey, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return u, nil
}

func (r *pgRepository) UpsertUser(ctx context.Context, u *UserRecord) error {
	const q = `
		INSERT INTO users (alias, first_name, last_name, image_key)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (alias) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    last_name  = EXCLUDED.last_name,
		    image_key  = EXCLUDED.image_key
	`

	if _, err := r.db.Exec(ctx, q, u.Alias, u.FirstName, u.LastName, u.ImageKey); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *pgRepository) IsFollower(ctx context.Context, follower, followee string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM follows
			WHERE follower_alias = $1 AND followee_alias = $2
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, q, follower, followee).Scan(&exists); err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return exists, nil
}

func (r *pgRepository) CountFollowers(ctx context.Context, alias string) (int64, error) {
	const q = `SELECT COUNT(*) FROM follows WHERE followee_alias = $1`

	var cnt int64
	if err := r.db.QueryRow(ctx, q, alias).Scan(&cnt); err != nil {
		return 0, fmt.Errorf("count followers: %w", err)
	}
	return cnt, nil
}

func (r *pgRepository) CountFollowees(ctx context.Context, alias string) (int64, error) {
	const q = `SELECT COUNT(*) FROM follows WHERE follower_alias = $1`

	var cnt int64
	if err := r.db.QueryRow(ctx, q, alias).Scan(&cnt); err != nil {
		return 0, fmt.Errorf("count followees: %w", err)
	}
	return cnt, nil
}

func (r *pgRepository) Follow(ctx context.Context, follower, followee string) (bool, error) {
	const q = `
		INSERT INTO follows (follower_alias, followee_alias)
		VALUES ($1, $2)
		ON CONFLICT (follower_alias, followee_alias) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, q, follower, followee)
	if err != nil {
		return false, fmt.Errorf("insert follow: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgRepository) Unfollow(ctx context.Context, follower, followee string) (bool, error) {
	const q = `DELETE FROM follows WHERE follower_alias = $1 AND followee_alias = $2`

	tag, err := r.db.Exec(ctx, q, follower, followee)
	if err != nil {
		return false, fmt.Errorf("delete follow: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
