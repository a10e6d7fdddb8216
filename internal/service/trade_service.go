package service

import (
	"context"
	"fmt"
	"log/slog"

	"shelfswap/internal/models"
	"shelfswap/internal/observability"
	"shelfswap/internal/repository"
	"shelfswap/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// TradeService owns the trade state machine, ownership checks on proposal and
// the side effects of each transition.
type TradeService struct {
	trades        repository.TradeRepository
	collectibles  repository.CollectibleRepository
	users         repository.UserRepository
	chat          repository.ChatRepository
	notifications *NotificationService
}

type ProposeTradeInput struct {
	ProposerID            uint   `json:"-"`
	ReceiverID            uint   `json:"receiver_id" validate:"required"`
	ProposerCollectibleID uint   `json:"proposer_collectible_id" validate:"required"`
	ReceiverCollectibleID uint   `json:"receiver_collectible_id" validate:"required"`
	Message               string `json:"message" validate:"max=2000"`
}

type UpdateTradeStatusInput struct {
	TradeID uint   `json:"-"`
	ActorID uint   `json:"-"`
	Status  string `json:"status" validate:"required,tradestatus"`
}

func NewTradeService(store *repository.Store, notifications *NotificationService) *TradeService {
	return &TradeService{
		trades:        store.Trades,
		collectibles:  store.Collectibles,
		users:         store.Users,
		chat:          store.Chat,
		notifications: notifications,
	}
}

// Propose creates a pending trade after checking both sides' ownership.
func (s *TradeService) Propose(ctx context.Context, in ProposeTradeInput) (*models.Trade, error) {
	span, ctx := observability.NewSpan(ctx, "trade.propose",
		attribute.Int64("trade.proposer_id", int64(in.ProposerID)),
		attribute.Int64("trade.receiver_id", int64(in.ReceiverID)),
	)
	defer span.End()

	trade, err := s.propose(ctx, in)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.AddAttributes(attribute.Int64("trade.id", int64(trade.ID)))
	return trade, nil
}

func (s *TradeService) propose(ctx context.Context, in ProposeTradeInput) (*models.Trade, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.ProposerID == in.ReceiverID {
		return nil, models.NewValidationError("You cannot trade with yourself")
	}

	offered, err := s.collectibles.GetByID(ctx, in.ProposerCollectibleID)
	if err != nil && !models.IsCode(err, models.CodeNotFound) {
		return nil, err
	}
	if offered == nil || offered.UserID != in.ProposerID {
		return nil, models.NewForbiddenError("You do not own this collectible")
	}

	if _, err := s.users.GetByID(ctx, in.ReceiverID); err != nil {
		return nil, err
	}

	requested, err := s.collectibles.GetByID(ctx, in.ReceiverCollectibleID)
	if err != nil && !models.IsCode(err, models.CodeNotFound) {
		return nil, err
	}
	if requested == nil || requested.UserID != in.ReceiverID {
		return nil, models.NewValidationError("The receiver does not own the requested collectible")
	}

	trade := &models.Trade{
		ProposerID:            in.ProposerID,
		ReceiverID:            in.ReceiverID,
		ProposerCollectibleID: in.ProposerCollectibleID,
		ReceiverCollectibleID: in.ReceiverCollectibleID,
		Message:               in.Message,
	}
	if err := s.trades.Create(ctx, trade); err != nil {
		return nil, err
	}
	observability.TradesProposed.Inc()

	s.notify(ctx, trade, trade.ReceiverID, trade.ProposerID, models.NotificationTradeRequest)
	return trade, nil
}

// UpdateStatus applies one transition of the trade state machine on behalf
// of actorID. Side effects are best-effort once the transition committed.
func (s *TradeService) UpdateStatus(ctx context.Context, in UpdateTradeStatusInput) (*models.Trade, error) {
	span, ctx := observability.NewSpan(ctx, "trade.update_status",
		attribute.Int64("trade.id", int64(in.TradeID)),
		attribute.String("trade.status", in.Status),
	)
	defer span.End()

	trade, err := s.updateStatus(ctx, in)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return trade, nil
}

func (s *TradeService) updateStatus(ctx context.Context, in UpdateTradeStatusInput) (*models.Trade, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	next := models.TradeStatus(in.Status)

	trade, err := s.trades.GetByID(ctx, in.TradeID)
	if err != nil {
		return nil, err
	}
	if !trade.IsParty(in.ActorID) {
		return nil, models.NewForbiddenError("You are not a party to this trade")
	}
	if trade.Status.IsTerminal() {
		return nil, models.NewInvalidStateError(fmt.Sprintf("Cannot update a %s trade", trade.Status))
	}
	if !models.CanTransition(trade.Status, next) {
		return nil, models.NewInvalidStateError(fmt.Sprintf("Cannot move a %s trade to %s", trade.Status, next))
	}
	if (next == models.TradeStatusAccepted || next == models.TradeStatusRejected) && in.ActorID != trade.ReceiverID {
		return nil, models.NewForbiddenError("Only the receiver can accept or reject this trade")
	}

	updated, err := s.trades.UpdateStatus(ctx, trade.ID, trade.Status, next)
	if err != nil {
		return nil, err
	}
	observability.TradeTransitions.WithLabelValues(string(next)).Inc()

	switch next {
	case models.TradeStatusAccepted:
		s.notify(ctx, updated, updated.ProposerID, updated.ReceiverID, models.NotificationTradeAccepted)
		s.pinSummary(ctx, updated)
	case models.TradeStatusRejected:
		s.notify(ctx, updated, updated.ProposerID, in.ActorID, models.NotificationTradeRejected)
	case models.TradeStatusCompleted:
		s.notify(ctx, updated, updated.ProposerID, updated.ReceiverID, models.NotificationTradeCompleted)
	}

	return updated, nil
}

func (s *TradeService) notify(ctx context.Context, trade *models.Trade, recipientID, actorID uint, t models.NotificationType) {
	if s.notifications == nil {
		return
	}
	_, err := s.notifications.Notify(ctx, NotifyInput{
		RecipientID: recipientID,
		ActorID:     actorID,
		Type:        t,
		Source:      models.TradeSource{ID: trade.ID},
	})
	if err != nil {
		softFail(ctx, observability.SideEffectNotification, "failed to create trade notification", err,
			slog.Uint64("trade_id", uint64(trade.ID)),
			slog.String("type", string(t)))
	}
}

// pinSummary opens the trade's chat with a pinned message authored by the receiver.
func (s *TradeService) pinSummary(ctx context.Context, trade *models.Trade) {
	details, err := s.trades.GetWithDetails(ctx, trade.ID)
	if err != nil {
		softFail(ctx, observability.SideEffectPinnedChat, "failed to load trade for pinned summary", err,
			slog.Uint64("trade_id", uint64(trade.ID)))
		return
	}

	msg := &models.ChatMessage{
		TradeID:  trade.ID,
		SenderID: trade.ReceiverID,
		Message:  TradeSummaryMessage(details),
		IsPinned: true,
	}
	if err := s.chat.Create(ctx, msg); err != nil {
		softFail(ctx, observability.SideEffectPinnedChat, "failed to create pinned trade summary", err,
			slog.Uint64("trade_id", uint64(trade.ID)))
	}
}

// TradeSummaryMessage renders the pinned summary of an accepted trade.
func TradeSummaryMessage(t *models.TradeWithDetails) string {
	return fmt.Sprintf(
		"Trade Accepted!\n\n%s is trading: %s\n\nFor %s's: %s\n\nPlease discuss shipping details and next steps here.",
		t.Proposer.Name(), describeCollectible(t.ProposerCollectible),
		t.Receiver.Name(), describeCollectible(t.ReceiverCollectible),
	)
}

func describeCollectible(c models.Collectible) string {
	return fmt.Sprintf("%s (%s, %s)", c.Name, c.Series, c.Variant)
}

// Get returns the trade with details if viewerID is a party to it.
func (s *TradeService) Get(ctx context.Context, id, viewerID uint) (*models.TradeWithDetails, error) {
	t, err := s.trades.GetWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsParty(viewerID) {
		return nil, models.NewForbiddenError("You do not have access to this trade")
	}
	return t, nil
}

// ListForUser returns every trade the user proposed or received, newest first.
func (s *TradeService) ListForUser(ctx context.Context, userID uint) ([]*models.TradeWithDetails, error) {
	return s.trades.ListForUser(ctx, userID)
}
