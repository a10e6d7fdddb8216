package server

import (
	"io"
	"strings"

	"shelfswap/internal/models"
	"shelfswap/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadImage handles POST /api/uploads/:kind with multipart field "image".
func (s *Server) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	// One byte past the limit is enough for the size check.
	content, err := io.ReadAll(io.LimitReader(src, s.mediaService.MaxBytes()+1))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	result, err := s.mediaService.Upload(c.UserContext(), service.UploadImageInput{
		UserID:  currentUserID(c),
		Kind:    c.Params("kind"),
		Content: content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// ServeMedia handles GET /media/*
func (s *Server) ServeMedia(c *fiber.Ctx) error {
	key := strings.TrimPrefix(c.Params("*"), "/")
	if key == "" {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Media", key))
	}

	rc, contentType, err := s.mediaService.Open(c.UserContext(), key)
	if err != nil {
		return respondError(c, err)
	}
	if contentType != "" {
		c.Set(fiber.HeaderContentType, contentType)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.SendStream(rc)
}
