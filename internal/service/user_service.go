package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"shelfswap/internal/cache"
	"shelfswap/internal/featureflags"
	"shelfswap/internal/models"
	"shelfswap/internal/observability"
	"shelfswap/internal/repository"
	"shelfswap/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinUserSearchLength = 2
	UserSearchLimit     = 20
)

type UserService struct {
	userRepo repository.UserRepository
	flags    *featureflags.Manager
}

type RegisterInput struct {
	Username    string `json:"username" validate:"required"`
	Email       string `json:"email" validate:"required"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

type UpdateProfileInput struct {
	DisplayName   *string `json:"display_name" validate:"omitempty,notblank,max=100"`
	Bio           *string `json:"bio" validate:"omitempty,max=500"`
	ProfileImage  *string `json:"profile_image" validate:"omitempty,max=2048"`
	ProfileBanner *string `json:"profile_banner" validate:"omitempty,max=2048"`
}

func NewUserService(userRepo repository.UserRepository, flags *featureflags.Manager) *UserService {
	if flags == nil {
		flags = featureflags.NewManager("")
	}
	return &UserService{userRepo: userRepo, flags: flags}
}

// Register creates an account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = in.Username
	}
	user := &models.User{
		Username:    in.Username,
		Email:       in.Email,
		Password:    string(hashed),
		DisplayName: displayName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials. login may be a username or an email.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}

	var (
		user *models.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.userRepo.GetByEmail(ctx, login)
	} else {
		user, err = s.userRepo.GetByUsername(ctx, login)
	}
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Resolve looks a user up by numeric id or by username.
func (s *UserService) Resolve(ctx context.Context, idOrUsername string) (*models.User, error) {
	if id, err := strconv.ParseUint(idOrUsername, 10, 32); err == nil {
		return s.userRepo.GetByID(ctx, uint(id))
	}
	return s.userRepo.GetByUsername(ctx, idOrUsername)
}

// GetProfile returns the public profile, served from Redis when the
// profile_cache flag is on.
func (s *UserService) GetProfile(ctx context.Context, idOrUsername string) (*models.PublicProfile, error) {
	load := func(dest *models.PublicProfile) error {
		user, err := s.Resolve(ctx, idOrUsername)
		if err != nil {
			return err
		}
		*dest = user.Profile()
		return nil
	}

	var profile models.PublicProfile
	if !s.flags.Enabled(featureflags.ProfileCache, 0) {
		if err := load(&profile); err != nil {
			return nil, err
		}
		return &profile, nil
	}

	key := cache.ProfileUsernameKey(idOrUsername)
	if id, err := strconv.ParseUint(idOrUsername, 10, 32); err == nil {
		key = cache.ProfileKey(uint(id))
	}
	if err := cache.Aside(ctx, key, &profile, cache.ProfileTTL, func() error { return load(&profile) }); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile applies a partial update and drops cached profile copies.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	upd := models.UserUpdate{
		DisplayName:   in.DisplayName,
		Bio:           in.Bio,
		ProfileImage:  in.ProfileImage,
		ProfileBanner: in.ProfileBanner,
	}
	if upd.IsEmpty() {
		return nil, models.NewValidationError("No profile fields to update")
	}
	if upd.DisplayName != nil {
		trimmed := strings.TrimSpace(*upd.DisplayName)
		upd.DisplayName = &trimmed
	}

	user, err := s.userRepo.Update(ctx, userID, upd)
	if err != nil {
		return nil, err
	}
	s.invalidateProfile(ctx, user)
	return user, nil
}

func (s *UserService) invalidateProfile(ctx context.Context, user *models.User) {
	if err := cache.InvalidateProfile(ctx, user.ID, user.Username); err != nil {
		softFail(ctx, observability.SideEffectCache, "failed to invalidate profile cache", err,
			slog.Uint64("user_id", uint64(user.ID)))
	}
}

// SearchUsers matches username or display name case-insensitively.
func (s *UserService) SearchUsers(ctx context.Context, query string) ([]models.UserSummary, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinUserSearchLength {
		return nil, models.NewValidationError("Search query must be at least 2 characters")
	}
	users, err := s.userRepo.Search(ctx, query, UserSearchLimit)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out, nil
}
