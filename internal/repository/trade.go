package repository

import (
	"context"
	"fmt"

	"shelfswap/internal/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// TradeRepository defines persistence operations for trades.
type TradeRepository interface {
	Create(ctx context.Context, t *models.Trade) error
	GetByID(ctx context.Context, id uint) (*models.Trade, error)
	GetWithDetails(ctx context.Context, id uint) (*models.TradeWithDetails, error)
	// ListForUser returns every trade the user is party to, newest first,
	// expanded with both parties and both collectibles.
	ListForUser(ctx context.Context, userID uint) ([]*models.TradeWithDetails, error)
	// UpdateStatus moves a trade from -> to in one conditional write. It fails
	// with InvalidState when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id uint, from, to models.TradeStatus) (*models.Trade, error)
}

type tradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository returns a GORM-backed TradeRepository.
func NewTradeRepository(db *gorm.DB) TradeRepository {
	return &tradeRepository{db: db}
}

func (r *tradeRepository) Create(ctx context.Context, t *models.Trade) error {
	t.ID = 0
	t.Status = models.TradeStatusPending
	t.CreatedAt = models.Now()
	t.UpdatedAt = t.CreatedAt
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, uid := range []uint{t.ProposerID, t.ReceiverID} {
			if err := requireRow(tx, &models.User{}, "User", uid); err != nil {
				return err
			}
		}
		for _, cid := range []uint{t.ProposerCollectibleID, t.ReceiverCollectibleID} {
			if err := requireRow(tx, &models.Collectible{}, "Collectible", cid); err != nil {
				return err
			}
		}
		if err := tx.Create(t).Error; err != nil {
			return translate(err, "Trade", 0)
		}
		return nil
	})
}

func (r *tradeRepository) GetByID(ctx context.Context, id uint) (*models.Trade, error) {
	var t models.Trade
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, translate(err, "Trade", id)
	}
	return &t, nil
}

func (r *tradeRepository) GetWithDetails(ctx context.Context, id uint) (*models.TradeWithDetails, error) {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := r.expand(ctx, []models.Trade{*t})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

func (r *tradeRepository) ListForUser(ctx context.Context, userID uint) ([]*models.TradeWithDetails, error) {
	var trades []models.Trade
	err := r.db.WithContext(ctx).
		Where("proposer_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&trades).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return r.expand(ctx, trades)
}

// expand attaches parties and collectibles with one batch query per table.
func (r *tradeRepository) expand(ctx context.Context, trades []models.Trade) ([]*models.TradeWithDetails, error) {
	out := make([]*models.TradeWithDetails, 0, len(trades))
	if len(trades) == 0 {
		return out, nil
	}

	userIDs := make([]uint, 0, len(trades)*2)
	itemIDs := make([]uint, 0, len(trades)*2)
	for _, t := range trades {
		userIDs = append(userIDs, t.ProposerID, t.ReceiverID)
		itemIDs = append(itemIDs, t.ProposerCollectibleID, t.ReceiverCollectibleID)
	}

	var (
		users map[uint]models.UserSummary
		items map[uint]models.Collectible
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = loadSummaries(gctx, r.db, userIDs)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = NewCollectibleRepository(r.db).GetByIDs(gctx, itemIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, t := range trades {
		out = append(out, &models.TradeWithDetails{
			Trade:               t,
			Proposer:            users[t.ProposerID],
			Receiver:            users[t.ReceiverID],
			ProposerCollectible: items[t.ProposerCollectibleID],
			ReceiverCollectible: items[t.ReceiverCollectibleID],
		})
	}
	return out, nil
}

func (r *tradeRepository) UpdateStatus(ctx context.Context, id uint, from, to models.TradeStatus) (*models.Trade, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Trade{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": models.Now()})
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}

	t, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, models.NewInvalidStateError(fmt.Sprintf("Cannot update a %s trade", t.Status))
	}
	return t, nil
}
