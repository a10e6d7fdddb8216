package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles every repository behind one backend.
type Store struct {
	Users         UserRepository
	Collectibles  CollectibleRepository
	Trades        TradeRepository
	Posts         PostRepository
	Comments      CommentRepository
	Follows       FollowRepository
	Notifications NotificationRepository
	Chat          ChatRepository

	// Backend is "sql" or "memory".
	Backend string
	ping    func(ctx context.Context) error
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// NewGormStore builds a Store on a relational database.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:         NewUserRepository(db),
		Collectibles:  NewCollectibleRepository(db),
		Trades:        NewTradeRepository(db),
		Posts:         NewPostRepository(db),
		Comments:      NewCommentRepository(db),
		Follows:       NewFollowRepository(db),
		Notifications: NewNotificationRepository(db),
		Chat:          NewChatRepository(db),
		Backend:       "sql",
		ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
}

// NewMemoryStore builds a Store on process-local maps.
func NewMemoryStore() *Store {
	mem := newMemoryDB()
	return &Store{
		Users:         &memoryUserRepository{mem},
		Collectibles:  &memoryCollectibleRepository{mem},
		Trades:        &memoryTradeRepository{mem},
		Posts:         &memoryPostRepository{mem},
		Comments:      &memoryCommentRepository{mem},
		Follows:       &memoryFollowRepository{mem},
		Notifications: &memoryNotificationRepository{mem},
		Chat:          &memoryChatRepository{mem},
		Backend:       "memory",
	}
}
