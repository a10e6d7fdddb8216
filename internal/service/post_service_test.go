package service

import (
	"context"
	"strings"
	"testing"

	"shelfswap/internal/models"
	"shelfswap/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreatePost_Validation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.store, "author")
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreatePostInput
	}{
		{"blank content", CreatePostInput{UserID: author.ID, Content: "  "}},
		{"content too long", CreatePostInput{UserID: author.ID, Content: strings.Repeat("x", 5001)}},
		{"too many images", CreatePostInput{UserID: author.ID, Content: "haul", Images: []string{"a", "b", "c", "d", "e"}}},
		{"blank image", CreatePostInput{UserID: author.ID, Content: "haul", Images: []string{" "}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.posts.CreatePost(ctx, tc.input)
			assertAppError(t, err, models.CodeValidation)
		})
	}
}

func TestPostService_CreateAndList(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, env.store, "alice")
	bob := testutil.CreateUser(t, env.store, "bob")

	first, err := env.posts.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "new haul", Images: []string{"/media/a.png"}})
	require.NoError(t, err)
	require.NotNil(t, first.User)
	assert.Equal(t, "alice", first.User.Username)
	assert.Equal(t, []string{"/media/a.png"}, []string(first.Images))

	_, err = env.posts.CreatePost(ctx, CreatePostInput{UserID: bob.ID, Content: "looking for dimoo"})
	require.NoError(t, err)

	feed, err := env.posts.ListPosts(ctx, ListPostsInput{})
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "looking for dimoo", feed[0].Content)

	mine, err := env.posts.ListPosts(ctx, ListPostsInput{AuthorID: alice.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	_, err = env.posts.ListPosts(ctx, ListPostsInput{AuthorID: 999})
	assertAppError(t, err, models.CodeNotFound)
}

func TestPostService_LikeTwiceCountsOnce(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, env.store, "alice")
	bob := testutil.CreateUser(t, env.store, "bob")
	post := testutil.CreatePost(t, env.store, alice.ID, "rare pull")

	count, err := env.posts.LikePost(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = env.posts.LikePost(ctx, post.ID, bob.ID)
	assertAppError(t, err, models.CodeConflict)

	fetched, err := env.posts.GetPost(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fetched.LikesCount)
	assert.True(t, fetched.Liked)

	likes := notificationsOf(t, env, alice.ID, models.NotificationLike)
	require.Len(t, likes, 1)
	assert.Equal(t, models.SourceKindPost, likes[0].SourceType)

	count, err = env.posts.UnlikePost(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = env.posts.UnlikePost(ctx, post.ID, bob.ID)
	assertAppError(t, err, models.CodeValidation)
}

func TestPostService_LikeOwnPostDoesNotNotify(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, env.store, "alice")
	post := testutil.CreatePost(t, env.store, alice.ID, "my shelf")

	_, err := env.posts.LikePost(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, notificationsOf(t, env, alice.ID, models.NotificationLike))
}

func TestPostService_DeleteCascades(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, env.store, "alice")
	bob := testutil.CreateUser(t, env.store, "bob")
	post := testutil.CreatePost(t, env.store, alice.ID, "to be removed")

	_, err := env.posts.LikePost(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	_, err = env.comments.CreateComment(ctx, CreateCommentInput{UserID: bob.ID, PostID: post.ID, Content: "nice"})
	require.NoError(t, err)

	err = env.posts.DeletePost(ctx, post.ID, bob.ID)
	assertAppError(t, err, models.CodeForbidden)

	require.NoError(t, env.posts.DeletePost(ctx, post.ID, alice.ID))

	_, err = env.posts.GetPost(ctx, post.ID, 0)
	assertAppError(t, err, models.CodeNotFound)

	liked, err := env.store.Posts.IsLiked(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	likes, err := env.store.Posts.CountLikes(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, likes)
	comments, err := env.store.Comments.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}
