package models

import "time"

// TradeStatus is a state of the trade lifecycle.
type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "pending"
	TradeStatusAccepted  TradeStatus = "accepted"
	TradeStatusRejected  TradeStatus = "rejected"
	TradeStatusCompleted TradeStatus = "completed"
)

// tradeTransitions lists the states reachable from each state.
var tradeTransitions = map[TradeStatus][]TradeStatus{
	TradeStatusPending:  {TradeStatusAccepted, TradeStatusRejected},
	TradeStatusAccepted: {TradeStatusCompleted},
}

// Valid reports whether s is a known status.
func (s TradeStatus) Valid() bool {
	switch s {
	case TradeStatusPending, TradeStatusAccepted, TradeStatusRejected, TradeStatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s TradeStatus) IsTerminal() bool {
	return s == TradeStatusRejected || s == TradeStatusCompleted
}

// CanTransition reports whether the lifecycle allows from -> to.
func CanTransition(from, to TradeStatus) bool {
	for _, next := range tradeTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowsChat reports whether parties may exchange messages in status s.
func (s TradeStatus) AllowsChat() bool {
	return s == TradeStatusAccepted || s == TradeStatusCompleted
}

// Trade is a proposed exchange of one collectible for another.
type Trade struct {
	ID                    uint        `gorm:"primaryKey" json:"id"`
	ProposerID            uint        `gorm:"not null;index" json:"proposer_id"`
	ReceiverID            uint        `gorm:"not null;index" json:"receiver_id"`
	ProposerCollectibleID uint        `gorm:"not null;index" json:"proposer_collectible_id"`
	ReceiverCollectibleID uint        `gorm:"not null;index" json:"receiver_collectible_id"`
	Message               string      `gorm:"type:text" json:"message,omitempty"`
	Status                TradeStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`
}

// IsParty reports whether userID is the proposer or the receiver.
func (t *Trade) IsParty(userID uint) bool {
	return t.ProposerID == userID || t.ReceiverID == userID
}

// Counterparty returns the other party of the trade.
func (t *Trade) Counterparty(userID uint) uint {
	if t.ProposerID == userID {
		return t.ReceiverID
	}
	return t.ProposerID
}

// TradeWithDetails is a trade expanded with both parties and both items.
type TradeWithDetails struct {
	Trade
	Proposer            UserSummary `json:"proposer"`
	Receiver            UserSummary `json:"receiver"`
	ProposerCollectible Collectible `json:"proposer_collectible"`
	ReceiverCollectible Collectible `json:"receiver_collectible"`
}
