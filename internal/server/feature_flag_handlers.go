package server

import "github.com/gofiber/fiber/v2"

type featureFlagsResponse struct {
	Raw       map[string]string `json:"raw"`
	Evaluated map[string]bool   `json:"evaluated"`
}

// GetFeatureFlags reports the configured flags and how they resolve for the
// caller. Percentage rollouts are off for anonymous callers.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	viewerID, _ := s.optionalUserID(c)
	return c.JSON(featureFlagsResponse{
		Raw:       s.featureFlags.Raw(),
		Evaluated: s.featureFlags.Snapshot(viewerID),
	})
}
