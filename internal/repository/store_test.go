package repository

import (
	"context"
	"testing"

	"shelfswap/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSQLiteStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// every connection to :memory: opens its own database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Collectible{},
		&models.Trade{},
		&models.Post{},
		&models.Like{},
		&models.Comment{},
		&models.Follow{},
		&models.Notification{},
		&models.ChatMessage{},
	))
	return NewGormStore(db)
}

var storeBackends = map[string]func(t *testing.T) *Store{
	"memory": func(*testing.T) *Store { return NewMemoryStore() },
	"sqlite": setupSQLiteStore,
}

// forEachBackend runs fn against a fresh store of every backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, s *Store)) {
	for name, open := range storeBackends {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

func mustUser(t *testing.T, s *Store, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "hash",
		DisplayName: username,
	}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func mustCollectible(t *testing.T, s *Store, owner uint, name, series string, forTrade bool) *models.Collectible {
	t.Helper()
	c := &models.Collectible{
		UserID:   owner,
		Name:     name,
		Series:   series,
		Variant:  "Regular",
		Rarity:   models.RarityCommon,
		ForTrade: forTrade,
	}
	require.NoError(t, s.Collectibles.Create(context.Background(), c))
	return c
}

func mustTrade(t *testing.T, s *Store, proposer, receiver uint, pc, rc uint) *models.Trade {
	t.Helper()
	tr := &models.Trade{
		ProposerID:            proposer,
		ReceiverID:            receiver,
		ProposerCollectibleID: pc,
		ReceiverCollectibleID: rc,
		Status:                models.TradeStatusAccepted,
	}
	require.NoError(t, s.Trades.Create(context.Background(), tr))
	return tr
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, models.ErrorCode(err), "unexpected error: %v", err)
}

func TestStore_Users(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		alice := mustUser(t, s, "alice")
		bob := mustUser(t, s, "bob")
		assert.NotZero(t, alice.ID)
		assert.NotEqual(t, alice.ID, bob.ID)
		assert.False(t, alice.JoinedAt.IsZero())

		t.Run("duplicate username conflicts case-insensitively", func(t *testing.T) {
			err := s.Users.Create(ctx, &models.User{Username: "ALICE", Email: "other@example.com", Password: "x"})
			assertCode(t, err, models.CodeConflict)
		})

		t.Run("duplicate email conflicts", func(t *testing.T) {
			err := s.Users.Create(ctx, &models.User{Username: "alice2", Email: "Alice@Example.com", Password: "x"})
			assertCode(t, err, models.CodeConflict)
		})

		t.Run("lookup by username and email", func(t *testing.T) {
			got, err := s.Users.GetByUsername(ctx, "Alice")
			require.NoError(t, err)
			assert.Equal(t, alice.ID, got.ID)

			got, err = s.Users.GetByEmail(ctx, "BOB@example.com")
			require.NoError(t, err)
			assert.Equal(t, bob.ID, got.ID)

			_, err = s.Users.GetByID(ctx, 9999)
			assertCode(t, err, models.CodeNotFound)
		})

		t.Run("update applies only set fields", func(t *testing.T) {
			bio := "Dimoo hunter"
			got, err := s.Users.Update(ctx, alice.ID, models.UserUpdate{Bio: &bio})
			require.NoError(t, err)
			assert.Equal(t, "Dimoo hunter", got.Bio)
			assert.Equal(t, "alice", got.DisplayName)

			reloaded, err := s.Users.GetByID(ctx, alice.ID)
			require.NoError(t, err)
			assert.Equal(t, "Dimoo hunter", reloaded.Bio)
		})

		t.Run("search and summaries", func(t *testing.T) {
			found, err := s.Users.Search(ctx, "BO", 10)
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, bob.ID, found[0].ID)

			found, err = s.Users.Search(ctx, "%", 10)
			require.NoError(t, err)
			assert.Empty(t, found)

			sums, err := s.Users.GetSummaries(ctx, []uint{alice.ID, bob.ID, alice.ID, 777})
			require.NoError(t, err)
			assert.Len(t, sums, 2)
			assert.Equal(t, "bob", sums[bob.ID].Username)
		})

		t.Run("list pages in id order", func(t *testing.T) {
			page, err := s.Users.List(ctx, 1, 1)
			require.NoError(t, err)
			require.Len(t, page, 1)
			assert.Equal(t, bob.ID, page[0].ID)
		})
	})
}

func TestStore_Collectibles(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		alice := mustUser(t, s, "alice")
		bob := mustUser(t, s, "bob")
		carol := mustUser(t, s, "carol")

		a1 := mustCollectible(t, s, alice.ID, "Strawberry Dream", "Dimoo", true)
		a2 := mustCollectible(t, s, alice.ID, "Cosmic Explorer", "Skullpanda", false)
		b1 := mustCollectible(t, s, bob.ID, "Coral Guardian", "Molly", true)
		mustCollectible(t, s, carol.ID, "Night Owl", "Dimoo", false)
		mustCollectible(t, s, carol.ID, "Day Owl", "Dimoo", false)

		t.Run("owner must exist", func(t *testing.T) {
			err := s.Collectibles.Create(ctx, &models.Collectible{UserID: 4242, Name: "x", Series: "y", Rarity: models.RarityRare})
			assertCode(t, err, models.CodeNotFound)
		})

		t.Run("for-trade listing carries owners", func(t *testing.T) {
			listed, err := s.Collectibles.ListForTrade(ctx)
			require.NoError(t, err)
			require.Len(t, listed, 2)
			assert.Equal(t, a1.ID, listed[0].ID)
			assert.Equal(t, "alice", listed[0].Owner.Username)
			assert.Equal(t, "bob", listed[1].Owner.Username)
		})

		t.Run("search matches name series and variant", func(t *testing.T) {
			found, err := s.Collectibles.Search(ctx, "dimoo")
			require.NoError(t, err)
			assert.Len(t, found, 3)

			found, err = s.Collectibles.Search(ctx, "coral")
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, b1.ID, found[0].ID)
		})

		t.Run("shared series counts exclude listed owners", func(t *testing.T) {
			series, err := s.Collectibles.SeriesOwnedBy(ctx, alice.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{"Dimoo", "Skullpanda"}, series)

			counts, err := s.Collectibles.CountSharedSeries(ctx, series, []uint{alice.ID})
			require.NoError(t, err)
			assert.Equal(t, map[uint]int{carol.ID: 2}, counts)
		})

		t.Run("update", func(t *testing.T) {
			forTrade := true
			got, err := s.Collectibles.Update(ctx, a2.ID, models.CollectibleUpdate{ForTrade: &forTrade})
			require.NoError(t, err)
			assert.True(t, got.ForTrade)
			assert.Equal(t, "Cosmic Explorer", got.Name)
		})

		t.Run("delete is blocked by open trades", func(t *testing.T) {
			tr := mustTrade(t, s, alice.ID, bob.ID, a1.ID, b1.ID)
			assertCode(t, s.Collectibles.Delete(ctx, a1.ID), models.CodeInvalidState)

			_, err := s.Trades.UpdateStatus(ctx, tr.ID, models.TradeStatusPending, models.TradeStatusRejected)
			require.NoError(t, err)
			require.NoError(t, s.Collectibles.Delete(ctx, a1.ID))

			_, err = s.Collectibles.GetByID(ctx, a1.ID)
			assertCode(t, err, models.CodeNotFound)

			// trade history still resolves the removed item
			items, err := s.Collectibles.GetByIDs(ctx, []uint{a1.ID, b1.ID})
			require.NoError(t, err)
			assert.Len(t, items, 2)

			owned, err := s.Collectibles.ListByUser(ctx, alice.ID)
			require.NoError(t, err)
			require.Len(t, owned, 1)
			assert.Equal(t, a2.ID, owned[0].ID)

			assertCode(t, s.Collectibles.Delete(ctx, a1.ID), models.CodeNotFound)
		})
	})
}

func TestStore_Trades(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		alice := mustUser(t, s, "alice")
		bob := mustUser(t, s, "bob")
		carol := mustUser(t, s, "carol")
		a1 := mustCollectible(t, s, alice.ID, "Strawberry Dream", "Dimoo", true)
		b1 := mustCollectible(t, s, bob.ID, "Coral Guardian", "Molly", true)

		first := mustTrade(t, s, alice.ID, bob.ID, a1.ID, b1.ID)
		second := mustTrade(t, s, bob.ID, alice.ID, b1.ID, a1.ID)

		t.Run("created trades start pending", func(t *testing.T) {
			assert.Equal(t, models.TradeStatusPending, first.Status)
			got, err := s.Trades.GetByID(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, models.TradeStatusPending, got.Status)
		})

		t.Run("references must exist", func(t *testing.T) {
			err := s.Trades.Create(ctx, &models.Trade{
				ProposerID: alice.ID, ReceiverID: bob.ID,
				ProposerCollectibleID: a1.ID, ReceiverCollectibleID: 9999,
			})
			assertCode(t, err, models.CodeNotFound)
		})

		t.Run("details and listing", func(t *testing.T) {
			d, err := s.Trades.GetWithDetails(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, "alice", d.Proposer.Username)
			assert.Equal(t, "bob", d.Receiver.Username)
			assert.Equal(t, "Strawberry Dream", d.ProposerCollectible.Name)
			assert.Equal(t, "Coral Guardian", d.ReceiverCollectible.Name)

			list, err := s.Trades.ListForUser(ctx, alice.ID)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, second.ID, list[0].ID)

			list, err = s.Trades.ListForUser(ctx, carol.ID)
			require.NoError(t, err)
			assert.Empty(t, list)
		})

		t.Run("status update is conditional", func(t *testing.T) {
			got, err := s.Trades.UpdateStatus(ctx, first.ID, models.TradeStatusPending, models.TradeStatusAccepted)
			require.NoError(t, err)
			assert.Equal(t, models.TradeStatusAccepted, got.Status)

			_, err = s.Trades.UpdateStatus(ctx, first.ID, models.TradeStatusPending, models.TradeStatusRejected)
			assertCode(t, err, models.CodeInvalidState)

			_, err = s.Trades.UpdateStatus(ctx, 9999, models.TradeStatusPending, models.TradeStatusAccepted)
			assertCode(t, err, models.CodeNotFound)
		})
	})
}

func TestStore_PostsAndLikes(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		alice := mustUser(t, s, "alice")
		bob := mustUser(t, s, "bob")

		older := &models.Post{UserID: alice.ID, Content: "first haul", Images: []string{"/media/a.webp"}}
		require.NoError(t, s.Posts.Create(ctx, older))
		newer := &models.Post{UserID: bob.ID, Content: "new shelf"}
		require.NoError(t, s.Posts.Create(ctx, newer))

		created, err := s.Posts.Like(ctx, bob.ID, older.ID)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = s.Posts.Like(ctx, bob.ID, older.ID)
		require.NoError(t, err)
		assert.False(t, created, "second like is a no-op")

		_, err = s.Posts.Like(ctx, bob.ID, 9999)
		assertCode(t, err, models.CodeNotFound)

		require.NoError(t, s.Comments.Create(ctx, &models.Comment{UserID: bob.ID, PostID: older.ID, Content: "nice"}))

		t.Run("feed is newest first with aggregates", func(t *testing.T) {
			feed, err := s.Posts.List(ctx, 10, 0, bob.ID)
			require.NoError(t, err)
			require.Len(t, feed, 2)
			assert.Equal(t, newer.ID, feed[0].ID)
			assert.Equal(t, older.ID, feed[1].ID)
			assert.Equal(t, 1, feed[1].LikesCount)
			assert.Equal(t, 1, feed[1].CommentsCount)
			assert.True(t, feed[1].Liked)
			require.NotNil(t, feed[1].User)
			assert.Equal(t, "alice", feed[1].User.Username)
			assert.Equal(t, []string{"/media/a.webp"}, []string(feed[1].Images))

			anon, err := s.Posts.GetByID(ctx, older.ID, 0)
			require.NoError(t, err)
			assert.False(t, anon.Liked)
			assert.Equal(t, 1, anon.LikesCount)

			mine, err := s.Posts.ListByUser(ctx, alice.ID, 10, 0, 0)
			require.NoError(t, err)
			require.Len(t, mine, 1)
			assert.Equal(t, older.ID, mine[0].ID)
		})

		t.Run("unlike", func(t *testing.T) {
			removed, err := s.Posts.Unlike(ctx, bob.ID, older.ID)
			require.NoError(t, err)
			assert.True(t, removed)

			removed, err = s.Posts.Unlike(ctx, bob.ID, older.ID)
			require.NoError(t, err)
			assert.False(t, removed)

			n, err := s.Posts.CountLikes(ctx, older.ID)
			require.NoError(t, err)
			assert.Zero(t, n)
		})

		t.Run("delete cascades", func(t *testing.T) {
			_, err := s.Posts.Like(ctx, alice.ID, older.ID)
			require.NoError(t, err)
			require.NoError(t, s.Posts.Delete(ctx, older.ID))

			_, err = s.Posts.GetByID(ctx, older.ID, 0)
			assertCode(t, err, models.CodeNotFound)

			comments, err := s.Comments.ListByPost(ctx, older.ID)
			require.NoError(t, err)
			assert.Empty(t, comments)

			liked, err := s.Posts.IsLiked(ctx, alice.ID, older.ID)
			require.NoError(t, err)
			assert.False(t, liked)

			assertCode(t, s.Posts.Delete(ctx, older.ID), models.CodeNotFound)
		})
	})
}

func TestStore_Comments(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		alice := mustUser(t, s, "alice")
		post := &models.Post{UserID: alice.ID, Content: "hello"}
		require.NoError(t, s.Posts.Create(ctx, post))

		c1 := &models.Comment{UserID: alice.ID, PostID: post.ID, Content: "one"}
		require.NoError(t, s.Comments.Create(ctx, c1))
		require.NotNil(t, c1.User)
		assert.Equal(t, "alice", c1.User.Username)
		require.NoError(t, s.Comments.Create(ctx, &models.Comment{UserID: alice.ID, PostID: post.ID, Content: "two"}))

		err := s.Comments.Create(ctx, &models.Comment{UserID: alice.ID, PostID: 9999, Content: "lost"})
		assertCode(t, err, models.CodeNotFound)

		list, err := s.Comments.ListByPost(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "one", list[0].Content)
		assert.Equal(t, "two", list[1].Content)

		require.NoError(t, s.Comments.Delete(ctx, c1.ID))
		assertCode(t, s.Comments.Delete(ctx, c1.ID), models.CodeNotFound)
	})
}

func TestStore_Follows(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		alice := mustUser(t, s, "alice")
		bob := mustUser(t, s, "bob")
		carol := mustUser(t, s, "carol")

		require.NoError(t, s.Follows.Create(ctx, &models.Follow{FollowerID: alice.ID, FollowingID: bob.ID}))
		require.NoError(t, s.Follows.Create(ctx, &models.Follow{FollowerID: alice.ID, FollowingID: carol.ID}))
		require.NoError(t, s.Follows.Create(ctx, &models.Follow{FollowerID: carol.ID, FollowingID: bob.ID}))

		err := s.Follows.Create(ctx, &models.Follow{FollowerID: alice.ID, FollowingID: bob.ID})
		assertCode(t, err, models.CodeConflict)

		err = s.Follows.Create(ctx, &models.Follow{FollowerID: alice.ID, FollowingID: 9999})
		assertCode(t, err, models.CodeNotFound)

		exists, err := s.Follows.Exists(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, exists)
		exists, err = s.Follows.Exists(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		followers, err := s.Follows.ListFollowers(ctx, bob.ID)
		require.NoError(t, err)
		assert.Len(t, followers, 2)

		following, err := s.Follows.ListFollowing(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, following, 2)

		ids, err := s.Follows.FollowingIDs(ctx, alice.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{bob.ID, carol.ID}, ids)

		removed, err := s.Follows.Delete(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, removed)
		removed, err = s.Follows.Delete(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestStore_Notifications(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		alice := mustUser(t, s, "alice")
		bob := mustUser(t, s, "bob")

		var ids []uint
		for _, typ := range []models.NotificationType{models.NotificationFollow, models.NotificationLike, models.NotificationComment} {
			n := &models.Notification{UserID: alice.ID, Type: typ, Content: "bob did a thing", ActorID: &bob.ID}
			n.SetSource(models.UserSource{ID: bob.ID})
			require.NoError(t, s.Notifications.Create(ctx, n))
			assert.False(t, n.Read)
			ids = append(ids, n.ID)
		}

		err := s.Notifications.Create(ctx, &models.Notification{UserID: 9999, Type: models.NotificationFollow, Content: "x"})
		assertCode(t, err, models.CodeNotFound)

		list, err := s.Notifications.ListForUser(ctx, alice.ID, 2, false)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, ids[2], list[0].ID)
		require.NotNil(t, list[0].Actor)
		assert.Equal(t, "bob", list[0].Actor.Username)

		require.NoError(t, s.Notifications.MarkRead(ctx, ids[0]))
		unread, err := s.Notifications.CountUnread(ctx, alice.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, unread)

		list, err = s.Notifications.ListForUser(ctx, alice.ID, 10, false)
		require.NoError(t, err)
		assert.Len(t, list, 2)
		list, err = s.Notifications.ListForUser(ctx, alice.ID, 10, true)
		require.NoError(t, err)
		assert.Len(t, list, 3)

		changed, err := s.Notifications.MarkAllRead(ctx, alice.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, changed)
		unread, err = s.Notifications.CountUnread(ctx, alice.ID)
		require.NoError(t, err)
		assert.Zero(t, unread)

		got, err := s.Notifications.GetByID(ctx, ids[1])
		require.NoError(t, err)
		src, err := got.Source()
		require.NoError(t, err)
		assert.Equal(t, models.UserSource{ID: bob.ID}, src)

		require.NoError(t, s.Notifications.Delete(ctx, ids[1]))
		assertCode(t, s.Notifications.Delete(ctx, ids[1]), models.CodeNotFound)
		assertCode(t, s.Notifications.MarkRead(ctx, ids[1]), models.CodeNotFound)
	})
}

func TestStore_Chat(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		alice := mustUser(t, s, "alice")
		bob := mustUser(t, s, "bob")
		a1 := mustCollectible(t, s, alice.ID, "Strawberry Dream", "Dimoo", true)
		b1 := mustCollectible(t, s, bob.ID, "Coral Guardian", "Molly", true)
		tr := mustTrade(t, s, alice.ID, bob.ID, a1.ID, b1.ID)

		err := s.Chat.Create(ctx, &models.ChatMessage{TradeID: tr.ID, SenderID: alice.ID, Message: "too early"})
		assertCode(t, err, models.CodeInvalidState)

		_, err = s.Trades.UpdateStatus(ctx, tr.ID, models.TradeStatusPending, models.TradeStatusAccepted)
		require.NoError(t, err)

		first := &models.ChatMessage{TradeID: tr.ID, SenderID: bob.ID, Message: "Trade Accepted!", IsPinned: true}
		require.NoError(t, s.Chat.Create(ctx, first))
		require.NotNil(t, first.Sender)
		assert.Equal(t, "bob", first.Sender.Username)
		require.NoError(t, s.Chat.Create(ctx, &models.ChatMessage{TradeID: tr.ID, SenderID: alice.ID, Message: "shipping monday"}))

		err = s.Chat.Create(ctx, &models.ChatMessage{TradeID: 9999, SenderID: alice.ID, Message: "x"})
		assertCode(t, err, models.CodeNotFound)

		thread, err := s.Chat.ListByTrade(ctx, tr.ID)
		require.NoError(t, err)
		require.Len(t, thread, 2)
		assert.True(t, thread[0].IsPinned)
		assert.Equal(t, "shipping monday", thread[1].Message)
		assert.Equal(t, "alice", thread[1].Sender.Username)

		unpinned, err := s.Chat.SetPinned(ctx, first.ID, false)
		require.NoError(t, err)
		assert.False(t, unpinned.IsPinned)

		_, err = s.Chat.SetPinned(ctx, 9999, true)
		assertCode(t, err, models.CodeNotFound)
	})
}

func TestMemoryStore_ConcurrentLikes(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()
	u := mustUser(t, s, "alice")
	post := &models.Post{UserID: u.ID, Content: "hello"}
	require.NoError(t, s.Posts.Create(ctx, post))

	results := make(chan bool, 20)
	for range 20 {
		go func() {
			created, err := s.Posts.Like(ctx, u.ID, post.ID)
			assert.NoError(t, err)
			results <- created
		}()
	}
	wins := 0
	for range 20 {
		if <-results {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	n, err := s.Posts.CountLikes(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_Ping(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		assert.NoError(t, s.Ping(context.Background()))
	})
}
