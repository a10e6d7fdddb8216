package service

import (
	"context"
	"log/slog"

	"shelfswap/internal/models"
	"shelfswap/internal/observability"
	"shelfswap/internal/repository"
	"shelfswap/internal/validation"
)

const (
	DefaultFeedLimit = 50
	MaxFeedLimit     = 100
)

// PostService serves the community feed, likes and post lifecycle.
type PostService struct {
	posts         repository.PostRepository
	users         repository.UserRepository
	notifications *NotificationService
}

type CreatePostInput struct {
	UserID  uint     `json:"-"`
	Content string   `json:"content" validate:"notblank,max=5000"`
	Images  []string `json:"images" validate:"max=4,dive,notblank,max=2048"`
}

type ListPostsInput struct {
	Limit    int
	Offset   int
	ViewerID uint
	AuthorID uint
}

func NewPostService(posts repository.PostRepository, users repository.UserRepository, notifications *NotificationService) *PostService {
	return &PostService{posts: posts, users: users, notifications: notifications}
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	post := &models.Post{
		UserID:  in.UserID,
		Content: in.Content,
		Images:  in.Images,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, post.ID, in.UserID)
}

func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, id, viewerID)
}

// ListPosts returns the feed newest first, or one author's posts when AuthorID is set.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	limit := clampLimit(in.Limit, DefaultFeedLimit, MaxFeedLimit)
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}
	if in.AuthorID == 0 {
		return s.posts.List(ctx, limit, offset, in.ViewerID)
	}
	if _, err := s.users.GetByID(ctx, in.AuthorID); err != nil {
		return nil, err
	}
	return s.posts.ListByUser(ctx, in.AuthorID, limit, offset, in.ViewerID)
}

// DeletePost removes the author's post with its likes and comments.
func (s *PostService) DeletePost(ctx context.Context, postID, userID uint) error {
	post, err := s.posts.GetByID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	return s.posts.Delete(ctx, postID)
}

// LikePost returns the live like count.
func (s *PostService) LikePost(ctx context.Context, postID, userID uint) (int, error) {
	post, err := s.posts.GetByID(ctx, postID, userID)
	if err != nil {
		return 0, err
	}
	created, err := s.posts.Like(ctx, userID, postID)
	if err != nil {
		return 0, err
	}
	if !created {
		return 0, models.NewConflictError("You already liked this post")
	}

	if post.UserID != userID && s.notifications != nil {
		if _, err := s.notifications.Notify(ctx, NotifyInput{
			RecipientID: post.UserID,
			ActorID:     userID,
			Type:        models.NotificationLike,
			Source:      models.PostSource{ID: post.ID},
		}); err != nil {
			softFail(ctx, observability.SideEffectNotification, "failed to create like notification", err,
				slog.Uint64("post_id", uint64(post.ID)))
		}
	}

	return s.posts.CountLikes(ctx, postID)
}

// UnlikePost returns the live like count.
func (s *PostService) UnlikePost(ctx context.Context, postID, userID uint) (int, error) {
	if _, err := s.posts.GetByID(ctx, postID, userID); err != nil {
		return 0, err
	}
	removed, err := s.posts.Unlike(ctx, userID, postID)
	if err != nil {
		return 0, err
	}
	if !removed {
		return 0, models.NewValidationError("You haven't liked this post")
	}
	return s.posts.CountLikes(ctx, postID)
}
