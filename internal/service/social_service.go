package service

import (
	"context"
	"log/slog"
	"sort"

	"shelfswap/internal/models"
	"shelfswap/internal/observability"
	"shelfswap/internal/repository"
)

const DefaultRecommendationLimit = 10

// SocialService manages follow edges and the naive shared-series recommendations.
type SocialService struct {
	follows       repository.FollowRepository
	users         repository.UserRepository
	collectibles  repository.CollectibleRepository
	notifications *NotificationService
}

// RecommendedUser is a candidate to follow with the number of their
// collectibles in series the viewer also collects.
type RecommendedUser struct {
	models.UserSummary
	SharedCount int `json:"shared_count"`
}

func NewSocialService(store *repository.Store, notifications *NotificationService) *SocialService {
	return &SocialService{
		follows:       store.Follows,
		users:         store.Users,
		collectibles:  store.Collectibles,
		notifications: notifications,
	}
}

// Follow creates the edge and notifies the followed user.
func (s *SocialService) Follow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return models.NewValidationError("You cannot follow yourself")
	}
	if _, err := s.users.GetByID(ctx, followingID); err != nil {
		return err
	}
	if err := s.follows.Create(ctx, &models.Follow{FollowerID: followerID, FollowingID: followingID}); err != nil {
		return err
	}

	if s.notifications != nil {
		if _, err := s.notifications.Notify(ctx, NotifyInput{
			RecipientID: followingID,
			ActorID:     followerID,
			Type:        models.NotificationFollow,
			Source:      models.UserSource{ID: followerID},
		}); err != nil {
			softFail(ctx, observability.SideEffectNotification, "failed to create follow notification", err,
				slog.Uint64("follower_id", uint64(followerID)),
				slog.Uint64("following_id", uint64(followingID)))
		}
	}
	return nil
}

func (s *SocialService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	removed, err := s.follows.Delete(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if !removed {
		return &models.AppError{Code: models.CodeNotFound, Message: "You are not following this user"}
	}
	return nil
}

func (s *SocialService) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.follows.Exists(ctx, followerID, followingID)
}

func (s *SocialService) Followers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.ListFollowers(ctx, userID)
}

func (s *SocialService) Following(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.ListFollowing(ctx, userID)
}

// Recommended ranks users the viewer does not follow by how many of their
// collectibles share a series with the viewer's, ties on lowest id. A viewer
// with no collectibles gets the first other users by id instead.
func (s *SocialService) Recommended(ctx context.Context, userID uint, limit int) ([]RecommendedUser, error) {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}

	following, err := s.follows.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	exclude := append([]uint{userID}, following...)

	series, err := s.collectibles.SeriesOwnedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return s.fallback(ctx, exclude, limit)
	}

	counts, err := s.collectibles.CountSharedSeries(ctx, series, exclude)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(counts))
	for id, n := range counts {
		if n > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}

	summaries, err := s.users.GetSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]RecommendedUser, 0, len(ids))
	for _, id := range ids {
		if summary, ok := summaries[id]; ok {
			out = append(out, RecommendedUser{UserSummary: summary, SharedCount: counts[id]})
		}
	}
	return out, nil
}

func (s *SocialService) fallback(ctx context.Context, exclude []uint, limit int) ([]RecommendedUser, error) {
	skip := make(map[uint]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	users, err := s.users.List(ctx, limit+len(exclude), 0)
	if err != nil {
		return nil, err
	}
	out := make([]RecommendedUser, 0, limit)
	for _, u := range users {
		if skip[u.ID] {
			continue
		}
		out = append(out, RecommendedUser{UserSummary: u.Summary()})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
