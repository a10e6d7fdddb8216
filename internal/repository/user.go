// Package repository implements the entity store: one interface per entity,
// backed either by GORM or by process-local maps.
package repository

import (
	"context"

	"shelfswap/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetSummaries(ctx context.Context, ids []uint) (map[uint]models.UserSummary, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id uint, upd models.UserUpdate) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Search(ctx context.Context, query string, limit int) ([]*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a GORM-backed UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).First(&user).Error; err != nil {
		return nil, translate(err, "User", username)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, translate(err, "User", email)
	}
	return &user, nil
}

func (r *userRepository) GetSummaries(ctx context.Context, ids []uint) (map[uint]models.UserSummary, error) {
	return loadSummaries(ctx, r.db, ids)
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = 0
	user.JoinedAt = models.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The unique indexes are case-sensitive on some drivers.
		var taken int64
		if err := tx.Model(&models.User{}).
			Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", user.Username, user.Email).
			Count(&taken).Error; err != nil {
			return models.NewInternalError(err)
		}
		if taken > 0 {
			return models.NewConflictError("Username or email already taken")
		}
		if err := tx.Create(user).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.NewConflictError("Username or email already taken")
			}
			return models.NewInternalError(err)
		}
		return nil
	})
}

func (r *userRepository) Update(ctx context.Context, id uint, upd models.UserUpdate) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return translate(err, "User", id)
		}
		if upd.IsEmpty() {
			return nil
		}
		if err := tx.Model(&user).Updates(upd.Columns()).Error; err != nil {
			return models.NewInternalError(err)
		}
		upd.Apply(&user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	var users []*models.User
	if err := r.db.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]*models.User, error) {
	var users []*models.User
	pattern := likePattern(query)
	err := r.db.WithContext(ctx).
		Where(`LOWER(username) LIKE ? ESCAPE '\' OR LOWER(display_name) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// loadSummaries fetches the public projection of every user in ids with one query.
func loadSummaries(ctx context.Context, db *gorm.DB, ids []uint) (map[uint]models.UserSummary, error) {
	ids = dedupeIDs(ids)
	out := make(map[uint]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.UserSummary
	err := db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "username", "display_name", "profile_image").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func summaryPtr(summaries map[uint]models.UserSummary, id uint) *models.UserSummary {
	s, ok := summaries[id]
	if !ok {
		return nil
	}
	return &s
}
