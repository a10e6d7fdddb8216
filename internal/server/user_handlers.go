// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"strings"
	"time"

	"shelfswap/internal/models"
	"shelfswap/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SearchUsers handles GET /api/users/search?q=...
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	users, err := s.userService.SearchUsers(ctx, strings.TrimSpace(c.Query("q")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetUserProfile handles GET /api/users/:idOrUsername
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	profile, err := s.userService.GetProfile(c.UserContext(), c.Params("idOrUsername"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PATCH /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetRecommendedUsers handles GET /api/users/recommended
func (s *Server) GetRecommendedUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", service.DefaultRecommendationLimit)
	users, err := s.socialService.Recommended(c.UserContext(), currentUserID(c), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// resolveUser loads the user named by the :idOrUsername route param.
func (s *Server) resolveUser(c *fiber.Ctx) (*models.User, error) {
	return s.userService.Resolve(c.UserContext(), c.Params("idOrUsername"))
}

// FollowUser handles POST /api/users/:idOrUsername/follow
func (s *Server) FollowUser(c *fiber.Ctx) error {
	target, err := s.resolveUser(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.socialService.Follow(c.UserContext(), currentUserID(c), target.ID); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"following": true, "user": target.Summary()})
}

// UnfollowUser handles DELETE /api/users/:idOrUsername/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	target, err := s.resolveUser(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.socialService.Unfollow(c.UserContext(), currentUserID(c), target.ID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"following": false, "user": target.Summary()})
}

// GetFollowers handles GET /api/users/:idOrUsername/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	target, err := s.resolveUser(c)
	if err != nil {
		return respondError(c, err)
	}
	users, err := s.socialService.Followers(c.UserContext(), target.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetFollowing handles GET /api/users/:idOrUsername/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	target, err := s.resolveUser(c)
	if err != nil {
		return respondError(c, err)
	}
	users, err := s.socialService.Following(c.UserContext(), target.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}
