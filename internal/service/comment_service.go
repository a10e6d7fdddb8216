package service

import (
	"context"
	"log/slog"

	"shelfswap/internal/models"
	"shelfswap/internal/observability"
	"shelfswap/internal/repository"
	"shelfswap/internal/validation"
)

type CommentService struct {
	comments      repository.CommentRepository
	posts         repository.PostRepository
	notifications *NotificationService
}

type CreateCommentInput struct {
	UserID  uint   `json:"-"`
	PostID  uint   `json:"-"`
	Content string `json:"content" validate:"notblank,max=2000"`
}

func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, notifications *NotificationService) *CommentService {
	return &CommentService{comments: comments, posts: posts, notifications: notifications}
}

func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID)
}

// CreateComment adds a comment and notifies the post author unless they wrote it.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, in.PostID, 0)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		UserID:  in.UserID,
		PostID:  in.PostID,
		Content: in.Content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	if post.UserID != in.UserID && s.notifications != nil {
		if _, err := s.notifications.Notify(ctx, NotifyInput{
			RecipientID: post.UserID,
			ActorID:     in.UserID,
			Type:        models.NotificationComment,
			Source:      models.PostSource{ID: post.ID},
		}); err != nil {
			softFail(ctx, observability.SideEffectNotification, "failed to create comment notification", err,
				slog.Uint64("post_id", uint64(post.ID)))
		}
	}

	return comment, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, commentID, userID uint) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	return s.comments.Delete(ctx, commentID)
}
