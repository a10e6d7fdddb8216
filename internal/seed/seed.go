package seed

import (
	"context"
	"fmt"
	"log/slog"

	"shelfswap/internal/models"
	"shelfswap/internal/repository"
)

// Options configures Run.
type Options struct {
	// Demo inserts the embedded catalog (johndoe, janedoe).
	Demo bool
	// NumUsers generated community members; 0 skips the community.
	NumUsers int
	// CollectiblesPerUser and PostsPerUser default to 3 and 2.
	CollectiblesPerUser int
	PostsPerUser        int
	// Seed makes generated content reproducible; 0 is random.
	Seed int64
}

// Result counts what Run created.
type Result struct {
	DemoUsers    int
	Users        int
	Collectibles int
	Posts        int
	Comments     int
	Likes        int
	Follows      int
}

// Run seeds the store with the demo catalog and an optional fake community.
func Run(ctx context.Context, store *repository.Store, opts Options) (*Result, error) {
	res := &Result{}

	if opts.Demo {
		cat, err := LoadCatalog()
		if err != nil {
			return nil, err
		}
		if res.DemoUsers, err = Demo(ctx, store, cat); err != nil {
			return res, err
		}
	}

	if opts.NumUsers > 0 {
		if err := community(ctx, store, opts, res); err != nil {
			return res, err
		}
	}

	slog.InfoContext(ctx, "seeding complete",
		slog.Int("demo_users", res.DemoUsers),
		slog.Int("users", res.Users),
		slog.Int("collectibles", res.Collectibles),
		slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments),
		slog.Int("likes", res.Likes),
		slog.Int("follows", res.Follows))
	return res, nil
}

func community(ctx context.Context, store *repository.Store, opts Options, res *Result) error {
	if opts.CollectiblesPerUser <= 0 {
		opts.CollectiblesPerUser = 3
	}
	if opts.PostsPerUser <= 0 {
		opts.PostsPerUser = 2
	}

	f, err := NewFactory(store, opts.Seed)
	if err != nil {
		return err
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			if models.IsCode(err, models.CodeConflict) {
				continue
			}
			return fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	res.Users = len(users)

	var posts []*models.Post
	for _, u := range users {
		for i := 0; i < opts.CollectiblesPerUser; i++ {
			if _, err := f.CreateCollectible(ctx, u); err != nil {
				return fmt.Errorf("create collectible: %w", err)
			}
			res.Collectibles++
		}
		for i := 0; i < opts.PostsPerUser; i++ {
			p, err := f.CreatePost(ctx, u)
			if err != nil {
				return fmt.Errorf("create post: %w", err)
			}
			posts = append(posts, p)
		}
	}
	res.Posts = len(posts)

	if len(users) < 2 {
		return nil
	}

	// Each member follows a few others and reacts to a few posts.
	for _, u := range users {
		for i := 0; i < 3; i++ {
			other := users[f.Intn(len(users))]
			if other.ID == u.ID {
				continue
			}
			followed, err := f.CreateFollow(ctx, u, other)
			if err != nil {
				return fmt.Errorf("create follow: %w", err)
			}
			if followed {
				res.Follows++
			}
		}
		for i := 0; i < 3 && len(posts) > 0; i++ {
			p := posts[f.Intn(len(posts))]
			liked, err := f.CreateLike(ctx, u, p)
			if err != nil {
				return fmt.Errorf("create like: %w", err)
			}
			if liked {
				res.Likes++
			}
			if f.Intn(2) == 0 {
				if _, err := f.CreateComment(ctx, u, p); err != nil {
					return fmt.Errorf("create comment: %w", err)
				}
				res.Comments++
			}
		}
	}
	return nil
}
