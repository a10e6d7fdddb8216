package repository

import (
	"context"

	"shelfswap/internal/models"

	"gorm.io/gorm"
)

// ChatRepository defines persistence operations for trade chat messages.
type ChatRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	GetByID(ctx context.Context, id uint) (*models.ChatMessage, error)
	// ListByTrade returns the thread oldest first with sender summaries.
	ListByTrade(ctx context.Context, tradeID uint) ([]*models.ChatMessage, error)
	SetPinned(ctx context.Context, id uint, pinned bool) (*models.ChatMessage, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository returns a GORM-backed ChatRepository.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	msg.ID = 0
	msg.CreatedAt = models.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Trade
		if err := tx.Select("id", "status").First(&t, msg.TradeID).Error; err != nil {
			return translate(err, "Trade", msg.TradeID)
		}
		if !t.Status.AllowsChat() {
			return models.NewInvalidStateError("Chat is only available for accepted or completed trades")
		}
		if err := tx.Create(msg).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	senders, err := loadSummaries(ctx, r.db, []uint{msg.SenderID})
	if err != nil {
		return err
	}
	msg.Sender = summaryPtr(senders, msg.SenderID)
	return nil
}

func (r *chatRepository) GetByID(ctx context.Context, id uint) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, translate(err, "Message", id)
	}
	return &msg, nil
}

func (r *chatRepository) ListByTrade(ctx context.Context, tradeID uint) ([]*models.ChatMessage, error) {
	var msgs []*models.ChatMessage
	if err := r.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	ids := make([]uint, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.SenderID)
	}
	senders, err := loadSummaries(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		m.Sender = summaryPtr(senders, m.SenderID)
	}
	return msgs, nil
}

func (r *chatRepository) SetPinned(ctx context.Context, id uint, pinned bool) (*models.ChatMessage, error) {
	res := r.db.WithContext(ctx).Model(&models.ChatMessage{}).Where("id = ?", id).Update("is_pinned", pinned)
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	return r.GetByID(ctx, id)
}
