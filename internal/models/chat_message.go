package models

import "time"

// ChatMessage is a message in the thread of an accepted or completed trade.
type ChatMessage struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	TradeID   uint         `gorm:"not null;index" json:"trade_id"`
	SenderID  uint         `gorm:"not null" json:"sender_id"`
	Message   string       `gorm:"type:text;not null" json:"message"`
	IsPinned  bool         `gorm:"not null;default:false" json:"is_pinned"`
	Sender    *UserSummary `gorm:"-" json:"sender,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
