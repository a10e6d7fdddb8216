package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"shelfswap/internal/models"

	"gorm.io/gorm"
)

// memoryDB holds every table of the in-memory store behind one lock, so
// multi-table writes such as post deletion are atomic.
type memoryDB struct {
	mu      sync.RWMutex
	counter map[string]uint

	users         map[uint]models.User
	collectibles  map[uint]models.Collectible
	trades        map[uint]models.Trade
	posts         map[uint]models.Post
	likes         map[uint]models.Like
	comments      map[uint]models.Comment
	follows       map[uint]models.Follow
	notifications map[uint]models.Notification
	chat          map[uint]models.ChatMessage
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		counter:       make(map[string]uint),
		users:         make(map[uint]models.User),
		collectibles:  make(map[uint]models.Collectible),
		trades:        make(map[uint]models.Trade),
		posts:         make(map[uint]models.Post),
		likes:         make(map[uint]models.Like),
		comments:      make(map[uint]models.Comment),
		follows:       make(map[uint]models.Follow),
		notifications: make(map[uint]models.Notification),
		chat:          make(map[uint]models.ChatMessage),
	}
}

// nextID must be called with mu held for writing.
func (m *memoryDB) nextID(table string) uint {
	m.counter[table]++
	return m.counter[table]
}

func sortedIDs[V any](table map[uint]V) []uint {
	ids := make([]uint, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// summaries must be called with mu held.
func (m *memoryDB) summaries(ids []uint) map[uint]models.UserSummary {
	out := make(map[uint]models.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u.Summary()
		}
	}
	return out
}

func (m *memoryDB) userSummary(id uint) *models.UserSummary {
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	s := u.Summary()
	return &s
}

func (m *memoryDB) liveCollectible(id uint) (models.Collectible, bool) {
	c, ok := m.collectibles[id]
	if !ok || c.DeletedAt.Valid {
		return models.Collectible{}, false
	}
	return c, true
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// --- users ---

type memoryUserRepository struct{ m *memoryDB }

func (r *memoryUserRepository) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	return &u, nil
}

func (r *memoryUserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, id := range sortedIDs(r.m.users) {
		if u := r.m.users[id]; strings.EqualFold(u.Username, username) {
			return &u, nil
		}
	}
	return nil, models.NewNotFoundError("User", username)
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, id := range sortedIDs(r.m.users) {
		if u := r.m.users[id]; strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, models.NewNotFoundError("User", email)
}

func (r *memoryUserRepository) GetSummaries(_ context.Context, ids []uint) (map[uint]models.UserSummary, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.m.summaries(dedupeIDs(ids)), nil
}

func (r *memoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return models.NewConflictError("Username or email already taken")
		}
	}
	user.ID = r.m.nextID("users")
	user.JoinedAt = models.Now()
	r.m.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) Update(_ context.Context, id uint, upd models.UserUpdate) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	upd.Apply(&u)
	r.m.users[id] = u
	return &u, nil
}

func (r *memoryUserRepository) List(_ context.Context, limit, offset int) ([]*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]*models.User, 0, len(r.m.users))
	for _, id := range sortedIDs(r.m.users) {
		u := r.m.users[id]
		out = append(out, &u)
	}
	return paginate(out, limit, offset), nil
}

func (r *memoryUserRepository) Search(_ context.Context, query string, limit int) ([]*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var out []*models.User
	for _, id := range sortedIDs(r.m.users) {
		u := r.m.users[id]
		if containsFold(u.Username, query) || containsFold(u.DisplayName, query) {
			out = append(out, &u)
		}
	}
	return paginate(out, limit, 0), nil
}

// --- collectibles ---

type memoryCollectibleRepository struct{ m *memoryDB }

func (r *memoryCollectibleRepository) GetByID(_ context.Context, id uint) (*models.Collectible, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	c, ok := r.m.liveCollectible(id)
	if !ok {
		return nil, models.NewNotFoundError("Collectible", id)
	}
	return &c, nil
}

func (r *memoryCollectibleRepository) GetByIDs(_ context.Context, ids []uint) (map[uint]models.Collectible, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make(map[uint]models.Collectible, len(ids))
	for _, id := range dedupeIDs(ids) {
		if c, ok := r.m.collectibles[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (r *memoryCollectibleRepository) Create(_ context.Context, c *models.Collectible) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[c.UserID]; !ok {
		return models.NewNotFoundError("User", c.UserID)
	}
	c.ID = r.m.nextID("collectibles")
	c.AddedAt = models.Now()
	c.UpdatedAt = c.AddedAt
	c.DeletedAt = gorm.DeletedAt{}
	r.m.collectibles[c.ID] = *c
	return nil
}

func (r *memoryCollectibleRepository) Update(_ context.Context, id uint, upd models.CollectibleUpdate) (*models.Collectible, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.liveCollectible(id)
	if !ok {
		return nil, models.NewNotFoundError("Collectible", id)
	}
	if !upd.IsEmpty() {
		upd.Apply(&c)
		c.UpdatedAt = models.Now()
		r.m.collectibles[id] = c
	}
	return &c, nil
}

func (r *memoryCollectibleRepository) Delete(_ context.Context, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.liveCollectible(id)
	if !ok {
		return models.NewNotFoundError("Collectible", id)
	}
	open := 0
	for _, t := range r.m.trades {
		if t.ProposerCollectibleID != id && t.ReceiverCollectibleID != id {
			continue
		}
		if t.Status == models.TradeStatusPending || t.Status == models.TradeStatusAccepted {
			open++
		}
	}
	if open > 0 {
		return models.NewInvalidStateError(
			fmt.Sprintf("Collectible is part of %d open trade(s) and cannot be deleted", open))
	}
	c.DeletedAt = gorm.DeletedAt{Time: models.Now(), Valid: true}
	r.m.collectibles[id] = c
	return nil
}

func (r *memoryCollectibleRepository) filter(keep func(models.Collectible) bool) []*models.Collectible {
	var out []*models.Collectible
	for _, id := range sortedIDs(r.m.collectibles) {
		c, ok := r.m.liveCollectible(id)
		if ok && keep(c) {
			out = append(out, &c)
		}
	}
	return out
}

func (r *memoryCollectibleRepository) ListByUser(_ context.Context, userID uint) ([]*models.Collectible, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.filter(func(c models.Collectible) bool { return c.UserID == userID }), nil
}

func (r *memoryCollectibleRepository) ListForTrade(_ context.Context) ([]*models.CollectibleWithOwner, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	items := r.filter(func(c models.Collectible) bool { return c.ForTrade })
	out := make([]*models.CollectibleWithOwner, 0, len(items))
	for _, c := range items {
		owner := models.UserSummary{}
		if u, ok := r.m.users[c.UserID]; ok {
			owner = u.Summary()
		}
		out = append(out, &models.CollectibleWithOwner{Collectible: *c, Owner: owner})
	}
	return out, nil
}

func (r *memoryCollectibleRepository) Search(_ context.Context, query string) ([]*models.Collectible, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.filter(func(c models.Collectible) bool {
		return containsFold(c.Name, query) || containsFold(c.Series, query) || containsFold(c.Variant, query)
	}), nil
}

func (r *memoryCollectibleRepository) SeriesOwnedBy(_ context.Context, userID uint) ([]string, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	seen := make(map[string]struct{})
	series := []string{}
	for _, c := range r.filter(func(c models.Collectible) bool { return c.UserID == userID }) {
		if _, ok := seen[c.Series]; ok {
			continue
		}
		seen[c.Series] = struct{}{}
		series = append(series, c.Series)
	}
	sort.Strings(series)
	return series, nil
}

func (r *memoryCollectibleRepository) CountSharedSeries(_ context.Context, series []string, exclude []uint) (map[uint]int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make(map[uint]int)
	for _, c := range r.filter(func(c models.Collectible) bool {
		return slices.Contains(series, c.Series) && !slices.Contains(exclude, c.UserID)
	}) {
		out[c.UserID]++
	}
	return out, nil
}

// --- trades ---

type memoryTradeRepository struct{ m *memoryDB }

func (r *memoryTradeRepository) Create(_ context.Context, t *models.Trade) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, uid := range []uint{t.ProposerID, t.ReceiverID} {
		if _, ok := r.m.users[uid]; !ok {
			return models.NewNotFoundError("User", uid)
		}
	}
	for _, cid := range []uint{t.ProposerCollectibleID, t.ReceiverCollectibleID} {
		if _, ok := r.m.liveCollectible(cid); !ok {
			return models.NewNotFoundError("Collectible", cid)
		}
	}
	t.ID = r.m.nextID("trades")
	t.Status = models.TradeStatusPending
	t.CreatedAt = models.Now()
	t.UpdatedAt = t.CreatedAt
	r.m.trades[t.ID] = *t
	return nil
}

func (r *memoryTradeRepository) GetByID(_ context.Context, id uint) (*models.Trade, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	t, ok := r.m.trades[id]
	if !ok {
		return nil, models.NewNotFoundError("Trade", id)
	}
	return &t, nil
}

func (r *memoryTradeRepository) details(t models.Trade) *models.TradeWithDetails {
	d := &models.TradeWithDetails{
		Trade:               t,
		ProposerCollectible: r.m.collectibles[t.ProposerCollectibleID],
		ReceiverCollectible: r.m.collectibles[t.ReceiverCollectibleID],
	}
	if u, ok := r.m.users[t.ProposerID]; ok {
		d.Proposer = u.Summary()
	}
	if u, ok := r.m.users[t.ReceiverID]; ok {
		d.Receiver = u.Summary()
	}
	return d
}

func (r *memoryTradeRepository) GetWithDetails(_ context.Context, id uint) (*models.TradeWithDetails, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	t, ok := r.m.trades[id]
	if !ok {
		return nil, models.NewNotFoundError("Trade", id)
	}
	return r.details(t), nil
}

func (r *memoryTradeRepository) ListForUser(_ context.Context, userID uint) ([]*models.TradeWithDetails, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	ids := sortedIDs(r.m.trades)
	out := make([]*models.TradeWithDetails, 0)
	for i := len(ids) - 1; i >= 0; i-- {
		t := r.m.trades[ids[i]]
		if t.IsParty(userID) {
			out = append(out, r.details(t))
		}
	}
	return out, nil
}

func (r *memoryTradeRepository) UpdateStatus(_ context.Context, id uint, from, to models.TradeStatus) (*models.Trade, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.trades[id]
	if !ok {
		return nil, models.NewNotFoundError("Trade", id)
	}
	if t.Status != from {
		return nil, models.NewInvalidStateError(fmt.Sprintf("Cannot update a %s trade", t.Status))
	}
	t.Status = to
	t.UpdatedAt = models.Now()
	r.m.trades[id] = t
	return &t, nil
}

// --- posts and likes ---

type memoryPostRepository struct{ m *memoryDB }

func (r *memoryPostRepository) Create(_ context.Context, post *models.Post) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[post.UserID]; !ok {
		return models.NewNotFoundError("User", post.UserID)
	}
	post.ID = r.m.nextID("posts")
	post.CreatedAt = models.Now()
	post.LikesCount, post.CommentsCount, post.Liked = 0, 0, false
	if post.Images == nil {
		post.Images = []string{}
	}
	post.Images = slices.Clone(post.Images)
	stored := *post
	stored.User = nil
	r.m.posts[post.ID] = stored
	return nil
}

// annotate computes aggregates for posts in one pass over likes and comments.
func (r *memoryPostRepository) annotate(posts []*models.Post, viewerID uint) {
	want := make(map[uint]*models.Post, len(posts))
	for _, p := range posts {
		want[p.ID] = p
		p.LikesCount, p.CommentsCount, p.Liked = 0, 0, false
		p.User = r.m.userSummary(p.UserID)
	}
	for _, l := range r.m.likes {
		if p, ok := want[l.PostID]; ok {
			p.LikesCount++
			if viewerID != 0 && l.UserID == viewerID {
				p.Liked = true
			}
		}
	}
	for _, c := range r.m.comments {
		if p, ok := want[c.PostID]; ok {
			p.CommentsCount++
		}
	}
}

func (r *memoryPostRepository) GetByID(_ context.Context, id uint, viewerID uint) (*models.Post, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	p, ok := r.m.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}
	r.annotate([]*models.Post{&p}, viewerID)
	return &p, nil
}

func (r *memoryPostRepository) list(keep func(models.Post) bool, limit, offset int, viewerID uint) []*models.Post {
	var posts []*models.Post
	for _, id := range sortedIDs(r.m.posts) {
		if p := r.m.posts[id]; keep(p) {
			posts = append(posts, &p)
		}
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
	posts = paginate(posts, limit, offset)
	r.annotate(posts, viewerID)
	return posts
}

func (r *memoryPostRepository) List(_ context.Context, limit, offset int, viewerID uint) ([]*models.Post, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.list(func(models.Post) bool { return true }, limit, offset, viewerID), nil
}

func (r *memoryPostRepository) ListByUser(_ context.Context, userID uint, limit, offset int, viewerID uint) ([]*models.Post, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.list(func(p models.Post) bool { return p.UserID == userID }, limit, offset, viewerID), nil
}

func (r *memoryPostRepository) Delete(_ context.Context, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.posts[id]; !ok {
		return models.NewNotFoundError("Post", id)
	}
	for lid, l := range r.m.likes {
		if l.PostID == id {
			delete(r.m.likes, lid)
		}
	}
	for cid, c := range r.m.comments {
		if c.PostID == id {
			delete(r.m.comments, cid)
		}
	}
	delete(r.m.posts, id)
	return nil
}

func (r *memoryPostRepository) Like(_ context.Context, userID, postID uint) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.posts[postID]; !ok {
		return false, models.NewNotFoundError("Post", postID)
	}
	if _, ok := r.m.users[userID]; !ok {
		return false, models.NewNotFoundError("User", userID)
	}
	for _, l := range r.m.likes {
		if l.UserID == userID && l.PostID == postID {
			return false, nil
		}
	}
	id := r.m.nextID("likes")
	r.m.likes[id] = models.Like{ID: id, UserID: userID, PostID: postID, CreatedAt: models.Now()}
	return true, nil
}

func (r *memoryPostRepository) Unlike(_ context.Context, userID, postID uint) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, l := range r.m.likes {
		if l.UserID == userID && l.PostID == postID {
			delete(r.m.likes, id)
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryPostRepository) IsLiked(_ context.Context, userID, postID uint) (bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, l := range r.m.likes {
		if l.UserID == userID && l.PostID == postID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryPostRepository) CountLikes(_ context.Context, postID uint) (int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	n := 0
	for _, l := range r.m.likes {
		if l.PostID == postID {
			n++
		}
	}
	return n, nil
}

// --- comments ---

type memoryCommentRepository struct{ m *memoryDB }

func (r *memoryCommentRepository) Create(_ context.Context, comment *models.Comment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.posts[comment.PostID]; !ok {
		return models.NewNotFoundError("Post", comment.PostID)
	}
	if _, ok := r.m.users[comment.UserID]; !ok {
		return models.NewNotFoundError("User", comment.UserID)
	}
	comment.ID = r.m.nextID("comments")
	comment.CreatedAt = models.Now()
	stored := *comment
	stored.User = nil
	r.m.comments[comment.ID] = stored
	comment.User = r.m.userSummary(comment.UserID)
	return nil
}

func (r *memoryCommentRepository) GetByID(_ context.Context, id uint) (*models.Comment, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	c, ok := r.m.comments[id]
	if !ok {
		return nil, models.NewNotFoundError("Comment", id)
	}
	return &c, nil
}

func (r *memoryCommentRepository) ListByPost(_ context.Context, postID uint) ([]*models.Comment, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []*models.Comment{}
	for _, id := range sortedIDs(r.m.comments) {
		c := r.m.comments[id]
		if c.PostID != postID {
			continue
		}
		c.User = r.m.userSummary(c.UserID)
		out = append(out, &c)
	}
	return out, nil
}

func (r *memoryCommentRepository) Delete(_ context.Context, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.comments[id]; !ok {
		return models.NewNotFoundError("Comment", id)
	}
	delete(r.m.comments, id)
	return nil
}

// --- follows ---

type memoryFollowRepository struct{ m *memoryDB }

func (r *memoryFollowRepository) find(followerID, followingID uint) (uint, bool) {
	for id, f := range r.m.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			return id, true
		}
	}
	return 0, false
}

func (r *memoryFollowRepository) Create(_ context.Context, follow *models.Follow) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, uid := range []uint{follow.FollowerID, follow.FollowingID} {
		if _, ok := r.m.users[uid]; !ok {
			return models.NewNotFoundError("User", uid)
		}
	}
	if _, exists := r.find(follow.FollowerID, follow.FollowingID); exists {
		return models.NewConflictError("You are already following this user")
	}
	follow.ID = r.m.nextID("follows")
	follow.CreatedAt = models.Now()
	r.m.follows[follow.ID] = *follow
	return nil
}

func (r *memoryFollowRepository) Exists(_ context.Context, followerID, followingID uint) (bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	_, ok := r.find(followerID, followingID)
	return ok, nil
}

func (r *memoryFollowRepository) Delete(_ context.Context, followerID, followingID uint) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	id, ok := r.find(followerID, followingID)
	if !ok {
		return false, nil
	}
	delete(r.m.follows, id)
	return true, nil
}

// edges returns the far end of every edge matching near, newest edge first.
func (r *memoryFollowRepository) edges(near func(models.Follow) (uint, bool)) []uint {
	ids := sortedIDs(r.m.follows)
	out := make([]uint, 0)
	for i := len(ids) - 1; i >= 0; i-- {
		if far, ok := near(r.m.follows[ids[i]]); ok {
			out = append(out, far)
		}
	}
	return out
}

func (r *memoryFollowRepository) toSummaries(ids []uint) []models.UserSummary {
	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.m.users[id]; ok {
			out = append(out, u.Summary())
		}
	}
	return out
}

func (r *memoryFollowRepository) ListFollowers(_ context.Context, userID uint) ([]models.UserSummary, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.toSummaries(r.edges(func(f models.Follow) (uint, bool) {
		return f.FollowerID, f.FollowingID == userID
	})), nil
}

func (r *memoryFollowRepository) ListFollowing(_ context.Context, userID uint) ([]models.UserSummary, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.toSummaries(r.edges(func(f models.Follow) (uint, bool) {
		return f.FollowingID, f.FollowerID == userID
	})), nil
}

func (r *memoryFollowRepository) FollowingIDs(_ context.Context, userID uint) ([]uint, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.edges(func(f models.Follow) (uint, bool) {
		return f.FollowingID, f.FollowerID == userID
	}), nil
}

// --- notifications ---

type memoryNotificationRepository struct{ m *memoryDB }

func (r *memoryNotificationRepository) Create(_ context.Context, n *models.Notification) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[n.UserID]; !ok {
		return models.NewNotFoundError("User", n.UserID)
	}
	n.ID = r.m.nextID("notifications")
	n.Read = false
	n.CreatedAt = models.Now()
	stored := *n
	stored.Actor = nil
	r.m.notifications[n.ID] = stored
	return nil
}

func (r *memoryNotificationRepository) GetByID(_ context.Context, id uint) (*models.Notification, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	n, ok := r.m.notifications[id]
	if !ok {
		return nil, models.NewNotFoundError("Notification", id)
	}
	return &n, nil
}

func (r *memoryNotificationRepository) ListForUser(_ context.Context, userID uint, limit int, includeRead bool) ([]*models.Notification, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	ids := sortedIDs(r.m.notifications)
	out := make([]*models.Notification, 0)
	for i := len(ids) - 1; i >= 0; i-- {
		n := r.m.notifications[ids[i]]
		if n.UserID != userID || (n.Read && !includeRead) {
			continue
		}
		if n.ActorID != nil {
			n.Actor = r.m.userSummary(*n.ActorID)
		}
		out = append(out, &n)
	}
	return paginate(out, limit, 0), nil
}

func (r *memoryNotificationRepository) MarkRead(_ context.Context, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n, ok := r.m.notifications[id]
	if !ok {
		return models.NewNotFoundError("Notification", id)
	}
	n.Read = true
	r.m.notifications[id] = n
	return nil
}

func (r *memoryNotificationRepository) MarkAllRead(_ context.Context, userID uint) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var changed int64
	for id, n := range r.m.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			r.m.notifications[id] = n
			changed++
		}
	}
	return changed, nil
}

func (r *memoryNotificationRepository) CountUnread(_ context.Context, userID uint) (int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var count int64
	for _, n := range r.m.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *memoryNotificationRepository) Delete(_ context.Context, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.notifications[id]; !ok {
		return models.NewNotFoundError("Notification", id)
	}
	delete(r.m.notifications, id)
	return nil
}

// --- chat ---

type memoryChatRepository struct{ m *memoryDB }

func (r *memoryChatRepository) Create(_ context.Context, msg *models.ChatMessage) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.trades[msg.TradeID]
	if !ok {
		return models.NewNotFoundError("Trade", msg.TradeID)
	}
	if !t.Status.AllowsChat() {
		return models.NewInvalidStateError("Chat is only available for accepted or completed trades")
	}
	msg.ID = r.m.nextID("chat_messages")
	msg.CreatedAt = models.Now()
	stored := *msg
	stored.Sender = nil
	r.m.chat[msg.ID] = stored
	msg.Sender = r.m.userSummary(msg.SenderID)
	return nil
}

func (r *memoryChatRepository) GetByID(_ context.Context, id uint) (*models.ChatMessage, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	msg, ok := r.m.chat[id]
	if !ok {
		return nil, models.NewNotFoundError("Message", id)
	}
	return &msg, nil
}

func (r *memoryChatRepository) ListByTrade(_ context.Context, tradeID uint) ([]*models.ChatMessage, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []*models.ChatMessage{}
	for _, id := range sortedIDs(r.m.chat) {
		msg := r.m.chat[id]
		if msg.TradeID != tradeID {
			continue
		}
		msg.Sender = r.m.userSummary(msg.SenderID)
		out = append(out, &msg)
	}
	return out, nil
}

func (r *memoryChatRepository) SetPinned(_ context.Context, id uint, pinned bool) (*models.ChatMessage, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	msg, ok := r.m.chat[id]
	if !ok {
		return nil, models.NewNotFoundError("Message", id)
	}
	msg.IsPinned = pinned
	r.m.chat[id] = msg
	return &msg, nil
}
