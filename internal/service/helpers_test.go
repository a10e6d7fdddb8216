package service

import (
	"errors"
	"testing"

	"shelfswap/internal/featureflags"
	"shelfswap/internal/models"
	"shelfswap/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store         *repository.Store
	notifications *NotificationService
	trades        *TradeService
	chat          *ChatService
	posts         *PostService
	comments      *CommentService
	social        *SocialService
	users         *UserService
	collectibles  *CollectibleService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	flags := featureflags.NewManager("profile_cache=off")
	notif := NewNotificationService(store.Notifications, store.Users, nil, flags)
	return &testEnv{
		store:         store,
		notifications: notif,
		trades:        NewTradeService(store, notif),
		chat:          NewChatService(store.Trades, store.Chat),
		posts:         NewPostService(store.Posts, store.Users, notif),
		comments:      NewCommentService(store.Comments, store.Posts, notif),
		social:        NewSocialService(store, notif),
		users:         NewUserService(store.Users, flags),
		collectibles:  NewCollectibleService(store.Collectibles, store.Users),
	}
}

// assertAppError asserts that err is an AppError carrying code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}
