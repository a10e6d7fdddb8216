package repository

import (
	"context"
	"fmt"

	"shelfswap/internal/models"

	"gorm.io/gorm"
)

// CollectibleRepository defines persistence operations for collectibles.
type CollectibleRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Collectible, error)
	// GetByIDs loads collectibles including soft-deleted ones, so trade
	// history keeps resolving after an owner removes an item.
	GetByIDs(ctx context.Context, ids []uint) (map[uint]models.Collectible, error)
	Create(ctx context.Context, c *models.Collectible) error
	Update(ctx context.Context, id uint, upd models.CollectibleUpdate) (*models.Collectible, error)
	// Delete fails with InvalidState while a pending or accepted trade references the item.
	Delete(ctx context.Context, id uint) error
	ListByUser(ctx context.Context, userID uint) ([]*models.Collectible, error)
	ListForTrade(ctx context.Context) ([]*models.CollectibleWithOwner, error)
	Search(ctx context.Context, query string) ([]*models.Collectible, error)
	SeriesOwnedBy(ctx context.Context, userID uint) ([]string, error)
	// CountSharedSeries counts, per owner, the collectibles whose series is in
	// series. Owners listed in exclude are skipped.
	CountSharedSeries(ctx context.Context, series []string, exclude []uint) (map[uint]int, error)
}

type collectibleRepository struct {
	db *gorm.DB
}

// NewCollectibleRepository returns a GORM-backed CollectibleRepository.
func NewCollectibleRepository(db *gorm.DB) CollectibleRepository {
	return &collectibleRepository{db: db}
}

func (r *collectibleRepository) GetByID(ctx context.Context, id uint) (*models.Collectible, error) {
	var c models.Collectible
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err, "Collectible", id)
	}
	return &c, nil
}

func (r *collectibleRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]models.Collectible, error) {
	ids = dedupeIDs(ids)
	out := make(map[uint]models.Collectible, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Collectible
	if err := r.db.WithContext(ctx).Unscoped().Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (r *collectibleRepository) Create(ctx context.Context, c *models.Collectible) error {
	c.ID = 0
	c.AddedAt = models.Now()
	c.UpdatedAt = c.AddedAt
	c.DeletedAt = gorm.DeletedAt{}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.User{}, "User", c.UserID); err != nil {
			return err
		}
		if err := tx.Create(c).Error; err != nil {
			return translate(err, "User", c.UserID)
		}
		return nil
	})
}

func (r *collectibleRepository) Update(ctx context.Context, id uint, upd models.CollectibleUpdate) (*models.Collectible, error) {
	var c models.Collectible
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			return translate(err, "Collectible", id)
		}
		if upd.IsEmpty() {
			return nil
		}
		if err := tx.Model(&c).Updates(upd.Columns()).Error; err != nil {
			return models.NewInternalError(err)
		}
		upd.Apply(&c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *collectibleRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Collectible
		if err := tx.First(&c, id).Error; err != nil {
			return translate(err, "Collectible", id)
		}
		var open int64
		err := tx.Model(&models.Trade{}).
			Where("(proposer_collectible_id = ? OR receiver_collectible_id = ?) AND status IN ?",
				id, id, []models.TradeStatus{models.TradeStatusPending, models.TradeStatusAccepted}).
			Count(&open).Error
		if err != nil {
			return models.NewInternalError(err)
		}
		if open > 0 {
			return models.NewInvalidStateError(
				fmt.Sprintf("Collectible is part of %d open trade(s) and cannot be deleted", open))
		}
		if err := tx.Delete(&c).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

func (r *collectibleRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Collectible, error) {
	var items []*models.Collectible
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *collectibleRepository) ListForTrade(ctx context.Context) ([]*models.CollectibleWithOwner, error) {
	var items []models.Collectible
	if err := r.db.WithContext(ctx).Where("for_trade = ?", true).Order("id ASC").Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	ownerIDs := make([]uint, 0, len(items))
	for _, c := range items {
		ownerIDs = append(ownerIDs, c.UserID)
	}
	owners, err := loadSummaries(ctx, r.db, ownerIDs)
	if err != nil {
		return nil, err
	}
	out := make([]*models.CollectibleWithOwner, 0, len(items))
	for _, c := range items {
		out = append(out, &models.CollectibleWithOwner{Collectible: c, Owner: owners[c.UserID]})
	}
	return out, nil
}

func (r *collectibleRepository) Search(ctx context.Context, query string) ([]*models.Collectible, error) {
	var items []*models.Collectible
	pattern := likePattern(query)
	err := r.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(series) LIKE ? ESCAPE '\' OR LOWER(variant) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *collectibleRepository) SeriesOwnedBy(ctx context.Context, userID uint) ([]string, error) {
	var series []string
	err := r.db.WithContext(ctx).
		Model(&models.Collectible{}).
		Where("user_id = ?", userID).
		Distinct().
		Order("series ASC").
		Pluck("series", &series).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return series, nil
}

func (r *collectibleRepository) CountSharedSeries(ctx context.Context, series []string, exclude []uint) (map[uint]int, error) {
	out := make(map[uint]int)
	if len(series) == 0 {
		return out, nil
	}
	type row struct {
		UserID uint
		Shared int
	}
	var rows []row
	q := r.db.WithContext(ctx).
		Model(&models.Collectible{}).
		Select("user_id, COUNT(*) AS shared").
		Where("series IN ?", series)
	if len(exclude) > 0 {
		q = q.Where("user_id NOT IN ?", exclude)
	}
	if err := q.Group("user_id").Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, rw := range rows {
		out[rw.UserID] = rw.Shared
	}
	return out, nil
}
