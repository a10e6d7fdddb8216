package service

import (
	"context"
	"strings"

	"shelfswap/internal/models"
	"shelfswap/internal/repository"
	"shelfswap/internal/validation"
)

// CollectibleService is the owner-facing catalog of collectibles.
type CollectibleService struct {
	collectibles repository.CollectibleRepository
	users        repository.UserRepository
}

type CreateCollectibleInput struct {
	UserID      uint   `json:"-"`
	Name        string `json:"name" validate:"notblank,max=200"`
	Series      string `json:"series" validate:"notblank,max=200"`
	Variant     string `json:"variant" validate:"notblank,max=200"`
	Rarity      string `json:"rarity" validate:"required,rarity"`
	Image       string `json:"image" validate:"max=2048"`
	Description string `json:"description" validate:"max=2000"`
	ForTrade    bool   `json:"for_trade"`
}

type UpdateCollectibleInput struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=200"`
	Series      *string `json:"series" validate:"omitempty,notblank,max=200"`
	Variant     *string `json:"variant" validate:"omitempty,notblank,max=200"`
	Rarity      *string `json:"rarity" validate:"omitempty,rarity"`
	Image       *string `json:"image" validate:"omitempty,max=2048"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	ForTrade    *bool   `json:"for_trade"`
}

func NewCollectibleService(collectibles repository.CollectibleRepository, users repository.UserRepository) *CollectibleService {
	return &CollectibleService{collectibles: collectibles, users: users}
}

func (s *CollectibleService) Create(ctx context.Context, in CreateCollectibleInput) (*models.Collectible, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	c := &models.Collectible{
		UserID:      in.UserID,
		Name:        strings.TrimSpace(in.Name),
		Series:      strings.TrimSpace(in.Series),
		Variant:     strings.TrimSpace(in.Variant),
		Rarity:      models.Rarity(in.Rarity),
		Image:       in.Image,
		Description: in.Description,
		ForTrade:    in.ForTrade,
	}
	if err := s.collectibles.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CollectibleService) Get(ctx context.Context, id uint) (*models.Collectible, error) {
	return s.collectibles.GetByID(ctx, id)
}

func (s *CollectibleService) owned(ctx context.Context, id, userID uint) (*models.Collectible, error) {
	c, err := s.collectibles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, models.NewForbiddenError("You can only modify your own collectibles")
	}
	return c, nil
}

// Update partially updates the owner's collectible.
func (s *CollectibleService) Update(ctx context.Context, id, userID uint, in UpdateCollectibleInput) (*models.Collectible, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, id, userID); err != nil {
		return nil, err
	}

	upd := models.CollectibleUpdate{
		Name:        in.Name,
		Series:      in.Series,
		Variant:     in.Variant,
		Image:       in.Image,
		Description: in.Description,
		ForTrade:    in.ForTrade,
	}
	if in.Rarity != nil {
		r := models.Rarity(*in.Rarity)
		upd.Rarity = &r
	}
	if upd.IsEmpty() {
		return nil, models.NewValidationError("No collectible fields to update")
	}
	return s.collectibles.Update(ctx, id, upd)
}

// Delete soft-deletes the owner's collectible. It fails with InvalidState
// while an open trade references it.
func (s *CollectibleService) Delete(ctx context.Context, id, userID uint) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	return s.collectibles.Delete(ctx, id)
}

func (s *CollectibleService) ListByUser(ctx context.Context, userID uint) ([]*models.Collectible, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.collectibles.ListByUser(ctx, userID)
}

// ListForTrade returns items flagged for trade with their owner's summary.
func (s *CollectibleService) ListForTrade(ctx context.Context) ([]*models.CollectibleWithOwner, error) {
	return s.collectibles.ListForTrade(ctx)
}

// Search matches name, series or variant case-insensitively. A blank query matches nothing.
func (s *CollectibleService) Search(ctx context.Context, query string) ([]*models.Collectible, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.Collectible{}, nil
	}
	return s.collectibles.Search(ctx, query)
}
