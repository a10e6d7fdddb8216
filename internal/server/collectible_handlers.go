package server

import (
	"strings"

	"shelfswap/internal/models"
	"shelfswap/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListCollectibles handles GET /api/collectibles
//
// Exactly one filter applies, in order: q (search), forTrade=true, userId.
// Without a filter the result is empty.
func (s *Server) ListCollectibles(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		items, err := s.collectibleService.Search(ctx, q)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(items)
	}

	if c.QueryBool("forTrade", false) {
		items, err := s.collectibleService.ListForTrade(ctx)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(items)
	}

	if raw := c.Query("userId"); raw != "" {
		userID := c.QueryInt("userId", 0)
		if userID <= 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid user ID"))
		}
		items, err := s.collectibleService.ListByUser(ctx, uint(userID))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(items)
	}

	return c.JSON([]*models.Collectible{})
}

// GetCollectible handles GET /api/collectibles/:id
func (s *Server) GetCollectible(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	item, err := s.collectibleService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// CreateCollectible handles POST /api/collectibles
func (s *Server) CreateCollectible(c *fiber.Ctx) error {
	var req service.CreateCollectibleInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = currentUserID(c)

	item, err := s.collectibleService.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateCollectible handles PATCH /api/collectibles/:id
func (s *Server) UpdateCollectible(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdateCollectibleInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	item, err := s.collectibleService.Update(c.UserContext(), id, currentUserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// DeleteCollectible handles DELETE /api/collectibles/:id
func (s *Server) DeleteCollectible(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.collectibleService.Delete(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
