package repository

import (
	"context"

	"shelfswap/internal/models"

	"gorm.io/gorm"
)

// FollowRepository defines persistence operations for the follow graph.
type FollowRepository interface {
	// Create fails with Conflict when the pair already exists.
	Create(ctx context.Context, follow *models.Follow) error
	Exists(ctx context.Context, followerID, followingID uint) (bool, error)
	// Delete reports false when there was no such edge.
	Delete(ctx context.Context, followerID, followingID uint) (bool, error)
	ListFollowers(ctx context.Context, userID uint) ([]models.UserSummary, error)
	ListFollowing(ctx context.Context, userID uint) ([]models.UserSummary, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository returns a GORM-backed FollowRepository.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, follow *models.Follow) error {
	follow.ID = 0
	follow.CreatedAt = models.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, uid := range []uint{follow.FollowerID, follow.FollowingID} {
			if err := requireRow(tx, &models.User{}, "User", uid); err != nil {
				return err
			}
		}
		if err := tx.Create(follow).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.NewConflictError("You are already following this user")
			}
			return translate(err, "User", follow.FollowingID)
		}
		return nil
	})
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) ListFollowers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	return r.listEdges(ctx, "following_id = ?", "follower_id", userID)
}

func (r *followRepository) ListFollowing(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	return r.listEdges(ctx, "follower_id = ?", "following_id", userID)
}

func (r *followRepository) listEdges(ctx context.Context, where, column string, userID uint) ([]models.UserSummary, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where(where, userID).
		Order("created_at DESC, id DESC").
		Pluck(column, &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	summaries, err := loadSummaries(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if s, ok := summaries[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
