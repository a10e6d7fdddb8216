package service

import (
	"context"

	"shelfswap/internal/models"
	"shelfswap/internal/repository"
	"shelfswap/internal/validation"
)

// ChatService is the per-trade message thread between the two parties.
type ChatService struct {
	trades repository.TradeRepository
	chat   repository.ChatRepository
}

type SendMessageInput struct {
	TradeID  uint   `json:"-"`
	SenderID uint   `json:"-"`
	Message  string `json:"message" validate:"notblank,max=2000"`
}

type PinMessageInput struct {
	TradeID   uint
	MessageID uint
	UserID    uint
	Pinned    bool
}

func NewChatService(trades repository.TradeRepository, chat repository.ChatRepository) *ChatService {
	return &ChatService{trades: trades, chat: chat}
}

func (s *ChatService) partyTrade(ctx context.Context, tradeID, userID uint) (*models.Trade, error) {
	trade, err := s.trades.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsParty(userID) {
		return nil, models.NewForbiddenError("You are not a party to this trade")
	}
	return trade, nil
}

// List returns the thread oldest first. Either party may read it in any status.
func (s *ChatService) List(ctx context.Context, tradeID, userID uint) ([]*models.ChatMessage, error) {
	if _, err := s.partyTrade(ctx, tradeID, userID); err != nil {
		return nil, err
	}
	return s.chat.ListByTrade(ctx, tradeID)
}

// Send posts a message on an accepted or completed trade.
func (s *ChatService) Send(ctx context.Context, in SendMessageInput) (*models.ChatMessage, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	trade, err := s.partyTrade(ctx, in.TradeID, in.SenderID)
	if err != nil {
		return nil, err
	}
	if !trade.Status.AllowsChat() {
		return nil, models.NewInvalidStateError("Chat is only available for accepted or completed trades")
	}

	msg := &models.ChatMessage{
		TradeID:  in.TradeID,
		SenderID: in.SenderID,
		Message:  in.Message,
	}
	if err := s.chat.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// SetPinned pins or unpins a message. Repeating the current state is a no-op.
func (s *ChatService) SetPinned(ctx context.Context, in PinMessageInput) (*models.ChatMessage, error) {
	if _, err := s.partyTrade(ctx, in.TradeID, in.UserID); err != nil {
		return nil, err
	}
	msg, err := s.chat.GetByID(ctx, in.MessageID)
	if err != nil {
		return nil, err
	}
	if msg.TradeID != in.TradeID {
		return nil, models.NewNotFoundError("Message", in.MessageID)
	}
	if msg.IsPinned == in.Pinned {
		return msg, nil
	}
	return s.chat.SetPinned(ctx, msg.ID, in.Pinned)
}
