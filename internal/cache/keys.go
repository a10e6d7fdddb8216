package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	ProfileKeyPrefix         = "profile:%d"
	ProfileUsernameKeyPrefix = "profile:name:%s"
)

const (
	ProfileTTL = 5 * time.Minute
)

// ProfileKey caches a public profile by user id.
func ProfileKey(userID uint) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

// ProfileUsernameKey caches a public profile by lower-cased username.
func ProfileUsernameKey(username string) string {
	return fmt.Sprintf(ProfileUsernameKeyPrefix, strings.ToLower(username))
}

// Invalidate removes keys. It is a no-op without a client.
func Invalidate(ctx context.Context, keys ...string) error {
	if client == nil || len(keys) == 0 {
		return nil
	}
	return client.Del(ctx, keys...).Err()
}

// InvalidateProfile drops both cached views of a user's profile.
func InvalidateProfile(ctx context.Context, userID uint, username string) error {
	return Invalidate(ctx, ProfileKey(userID), ProfileUsernameKey(username))
}
