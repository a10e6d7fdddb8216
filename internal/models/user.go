// Package models contains data structures for the application's domain models.
package models

import "time"

// User is a registered collector.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email         string    `gorm:"uniqueIndex;size:254;not null" json:"-"`
	Password      string    `gorm:"not null" json:"-"`
	DisplayName   string    `gorm:"size:100;not null" json:"display_name"`
	Bio           string    `gorm:"type:text" json:"bio,omitempty"`
	ProfileImage  string    `json:"profile_image,omitempty"`
	ProfileBanner string    `json:"profile_banner,omitempty"`
	JoinedAt      time.Time `gorm:"autoCreateTime;not null" json:"joined_at"`
}

// UserSummary is the non-sensitive projection attached to trades, posts,
// comments, chat messages and notifications.
type UserSummary struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// PublicProfile is what other users may see of a profile.
type PublicProfile struct {
	ID            uint      `json:"id"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"display_name"`
	Bio           string    `json:"bio,omitempty"`
	ProfileImage  string    `json:"profile_image,omitempty"`
	ProfileBanner string    `json:"profile_banner,omitempty"`
	JoinedAt      time.Time `json:"joined_at"`
}

// Summary projects the user without credentials or email.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:           u.ID,
		Username:     u.Username,
		DisplayName:  u.DisplayName,
		ProfileImage: u.ProfileImage,
	}
}

// Name is the display name, falling back to the username.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Name is the display name, falling back to the username.
func (s UserSummary) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Username
}

// Profile projects the user for public display.
func (u *User) Profile() PublicProfile {
	return PublicProfile{
		ID:            u.ID,
		Username:      u.Username,
		DisplayName:   u.DisplayName,
		Bio:           u.Bio,
		ProfileImage:  u.ProfileImage,
		ProfileBanner: u.ProfileBanner,
		JoinedAt:      u.JoinedAt,
	}
}

// UserUpdate is a partial profile update. Nil fields are left unchanged.
type UserUpdate struct {
	DisplayName   *string
	Bio           *string
	ProfileImage  *string
	ProfileBanner *string
}

// IsEmpty reports whether no field is set.
func (u UserUpdate) IsEmpty() bool {
	return u.DisplayName == nil && u.Bio == nil && u.ProfileImage == nil && u.ProfileBanner == nil
}

// Apply merges the set fields into user.
func (u UserUpdate) Apply(user *User) {
	if u.DisplayName != nil {
		user.DisplayName = *u.DisplayName
	}
	if u.Bio != nil {
		user.Bio = *u.Bio
	}
	if u.ProfileImage != nil {
		user.ProfileImage = *u.ProfileImage
	}
	if u.ProfileBanner != nil {
		user.ProfileBanner = *u.ProfileBanner
	}
}

// Columns returns the column/value map of the set fields.
func (u UserUpdate) Columns() map[string]any {
	cols := make(map[string]any, 4)
	if u.DisplayName != nil {
		cols["display_name"] = *u.DisplayName
	}
	if u.Bio != nil {
		cols["bio"] = *u.Bio
	}
	if u.ProfileImage != nil {
		cols["profile_image"] = *u.ProfileImage
	}
	if u.ProfileBanner != nil {
		cols["profile_banner"] = *u.ProfileBanner
	}
	return cols
}
