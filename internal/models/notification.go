package models

import (
	"fmt"
	"time"
)

// NotificationType names the event that produced a notification.
type NotificationType string

const (
	NotificationTradeRequest   NotificationType = "trade_request"
	NotificationTradeAccepted  NotificationType = "trade_accepted"
	NotificationTradeRejected  NotificationType = "trade_rejected"
	NotificationTradeCompleted NotificationType = "trade_completed"
	NotificationFollow         NotificationType = "follow"
	NotificationLike           NotificationType = "like"
	NotificationComment        NotificationType = "comment"
)

// Valid reports whether t is a known type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTradeRequest, NotificationTradeAccepted, NotificationTradeRejected,
		NotificationTradeCompleted, NotificationFollow, NotificationLike, NotificationComment:
		return true
	}
	return false
}

// SourceKind is the persisted discriminator of a NotificationSource.
type SourceKind string

const (
	SourceKindTrade SourceKind = "trade"
	SourceKindPost  SourceKind = "post"
	SourceKindUser  SourceKind = "user"
)

// NotificationSource is the entity that triggered a notification.
// The implementations are TradeSource, PostSource and UserSource.
type NotificationSource interface {
	Kind() SourceKind
	EntityID() uint
	isNotificationSource()
}

// TradeSource points at a trade.
type TradeSource struct{ ID uint }

// PostSource points at a post.
type PostSource struct{ ID uint }

// UserSource points at a user.
type UserSource struct{ ID uint }

func (s TradeSource) Kind() SourceKind { return SourceKindTrade }
func (s TradeSource) EntityID() uint   { return s.ID }
func (TradeSource) isNotificationSource() {}

func (s PostSource) Kind() SourceKind { return SourceKindPost }
func (s PostSource) EntityID() uint   { return s.ID }
func (PostSource) isNotificationSource() {}

func (s UserSource) Kind() SourceKind { return SourceKindUser }
func (s UserSource) EntityID() uint   { return s.ID }
func (UserSource) isNotificationSource() {}

// ParseSource rebuilds a NotificationSource from its persisted pair.
func ParseSource(kind string, id uint) (NotificationSource, error) {
	switch SourceKind(kind) {
	case SourceKindTrade:
		return TradeSource{ID: id}, nil
	case SourceKindPost:
		return PostSource{ID: id}, nil
	case SourceKindUser:
		return UserSource{ID: id}, nil
	}
	return nil, fmt.Errorf("unknown notification source type %q", kind)
}

// Notification is a durable record addressed to one user.
type Notification struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	UserID     uint             `gorm:"not null;index:idx_notifications_user_read" json:"user_id"`
	Type       NotificationType `gorm:"size:32;not null" json:"type"`
	Content    string           `gorm:"type:text;not null" json:"content"`
	SourceID   uint             `gorm:"not null" json:"source_id"`
	SourceType SourceKind       `gorm:"size:16;not null" json:"source_type"`
	ActorID    *uint            `gorm:"index" json:"actor_id,omitempty"`
	Read       bool             `gorm:"not null;default:false;index:idx_notifications_user_read" json:"read"`
	Actor      *UserSummary     `gorm:"-" json:"actor,omitempty"`
	CreatedAt  time.Time        `gorm:"index" json:"created_at"`
}

// SetSource stores src in the persisted source columns.
func (n *Notification) SetSource(src NotificationSource) {
	n.SourceID = src.EntityID()
	n.SourceType = src.Kind()
}

// Source returns the typed source of the notification.
func (n *Notification) Source() (NotificationSource, error) {
	return ParseSource(string(n.SourceType), n.SourceID)
}
