package models

import (
	"time"

	"gorm.io/datatypes"
)

// MaxPostImages caps the number of image URIs attached to one post.
const MaxPostImages = 4

// Post is a community feed entry.
type Post struct {
	ID      uint                        `gorm:"primaryKey" json:"id"`
	UserID  uint                        `gorm:"not null;index" json:"user_id"`
	Content string                      `gorm:"type:text;not null" json:"content"`
	Images  datatypes.JSONSlice[string] `json:"images"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
	// Liked indicates whether the viewer liked this post (computed)
	Liked     bool         `gorm:"->;-:migration" json:"liked"`
	User      *UserSummary `gorm:"-" json:"user,omitempty"`
	CreatedAt time.Time    `gorm:"index" json:"created_at"`
}

// Like records one user liking one post. (user_id, post_id) is unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a reply to a post.
type Comment struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"not null;index" json:"user_id"`
	PostID    uint         `gorm:"not null;index" json:"post_id"`
	Content   string       `gorm:"type:text;not null" json:"content"`
	User      *UserSummary `gorm:"-" json:"user,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Follow is a directed follower -> following edge. The pair is unique.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follows_pair" json:"follower_id"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follows_pair;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}
