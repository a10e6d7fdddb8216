package server

import (
	"shelfswap/internal/models"
	"shelfswap/internal/service"

	"github.com/gofiber/fiber/v2"
)

type likeResponse struct {
	LikesCount int  `json:"likes_count"`
	Liked      bool `json:"liked"`
}

// GetPosts handles GET /api/posts
// Query params: limit, offset, userId (one author's posts)
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, service.DefaultFeedLimit)
	viewerID, _ := s.optionalUserID(c)

	in := service.ListPostsInput{
		Limit:    page.Limit,
		Offset:   page.Offset,
		ViewerID: viewerID,
	}
	if c.Query("userId") != "" {
		authorID := c.QueryInt("userId", 0)
		if authorID <= 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid user ID"))
		}
		in.AuthorID = uint(authorID)
	}

	posts, err := s.postService.ListPosts(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	viewerID, _ := s.optionalUserID(c)

	post, err := s.postService.GetPost(c.UserContext(), id, viewerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.CreatePostInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = currentUserID(c)

	post, err := s.postService.CreatePost(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// LikePost handles POST /api/posts/:id/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	count, err := s.postService.LikePost(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(likeResponse{LikesCount: count, Liked: true})
}

// UnlikePost handles DELETE /api/posts/:id/like
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	count, err := s.postService.UnlikePost(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(likeResponse{LikesCount: count, Liked: false})
}
