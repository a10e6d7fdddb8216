package models

import (
	"time"

	"gorm.io/gorm"
)

// Rarity grades a collectible. Grades are ordered from common to limited.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityUltraRare Rarity = "ultra-rare"
	RarityLimited   Rarity = "limited"
)

var rarityRank = map[Rarity]int{
	RarityCommon:    0,
	RarityRare:      1,
	RarityUltraRare: 2,
	RarityLimited:   3,
}

// Valid reports whether r is a known grade.
func (r Rarity) Valid() bool {
	_, ok := rarityRank[r]
	return ok
}

// Rank returns the sort position of r, or -1 for unknown grades.
func (r Rarity) Rank() int {
	if rank, ok := rarityRank[r]; ok {
		return rank
	}
	return -1
}

// Collectible is a single catalogued item owned by a user.
type Collectible struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	Name        string         `gorm:"size:200;not null" json:"name"`
	Series      string         `gorm:"size:200;not null;index" json:"series"`
	Variant     string         `gorm:"size:200;not null" json:"variant"`
	Rarity      Rarity         `gorm:"size:20;not null" json:"rarity"`
	Image       string         `json:"image"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	ForTrade    bool           `gorm:"not null;default:false;index" json:"for_trade"`
	AddedAt     time.Time      `gorm:"autoCreateTime;not null" json:"added_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// CollectibleWithOwner is a for-trade listing entry.
type CollectibleWithOwner struct {
	Collectible
	Owner UserSummary `json:"owner"`
}

// CollectibleUpdate is a partial update of descriptive fields. Nil fields are left unchanged.
type CollectibleUpdate struct {
	Name        *string
	Series      *string
	Variant     *string
	Rarity      *Rarity
	Image       *string
	Description *string
	ForTrade    *bool
}

// IsEmpty reports whether no field is set.
func (u CollectibleUpdate) IsEmpty() bool {
	return u.Name == nil && u.Series == nil && u.Variant == nil && u.Rarity == nil &&
		u.Image == nil && u.Description == nil && u.ForTrade == nil
}

// Apply merges the set fields into c.
func (u CollectibleUpdate) Apply(c *Collectible) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Series != nil {
		c.Series = *u.Series
	}
	if u.Variant != nil {
		c.Variant = *u.Variant
	}
	if u.Rarity != nil {
		c.Rarity = *u.Rarity
	}
	if u.Image != nil {
		c.Image = *u.Image
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.ForTrade != nil {
		c.ForTrade = *u.ForTrade
	}
}

// Columns returns the column/value map of the set fields.
func (u CollectibleUpdate) Columns() map[string]any {
	cols := make(map[string]any, 7)
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Series != nil {
		cols["series"] = *u.Series
	}
	if u.Variant != nil {
		cols["variant"] = *u.Variant
	}
	if u.Rarity != nil {
		cols["rarity"] = string(*u.Rarity)
	}
	if u.Image != nil {
		cols["image"] = *u.Image
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.ForTrade != nil {
		cols["for_trade"] = *u.ForTrade
	}
	return cols
}
