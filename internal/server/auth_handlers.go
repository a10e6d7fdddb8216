package server

import (
	"errors"
	"log/slog"
	"time"

	"shelfswap/internal/middleware"
	"shelfswap/internal/models"
	"shelfswap/internal/service"

	"github.com/gofiber/fiber/v2"
)

const blacklistPrefix = "blacklist:"

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return s.respondWithToken(c, fiber.StatusCreated, user)
}

// Login handles POST /api/auth/login. The login may be a username or an email.
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	login := req.Login
	if login == "" {
		login = req.Username
	}
	if login == "" {
		login = req.Email
	}

	user, err := s.userService.Authenticate(c.UserContext(), login, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return s.respondWithToken(c, fiber.StatusOK, user)
}

func (s *Server) respondWithToken(c *fiber.Ctx, status int, user *models.User) error {
	token, err := middleware.IssueToken(s.config.JWTSecret, user.ID, middleware.TokenTTL)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	return c.Status(status).JSON(authResponse{Token: token, User: user})
}

// Me handles GET /api/auth/me
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// Logout handles POST /api/auth/logout by revoking the token's jti until it expires.
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := c.Locals("claims").(*middleware.Claims)
	if claims != nil && claims.TokenID != "" && s.redis != nil {
		ttl := time.Until(claims.ExpiresAt)
		if ttl > 0 {
			if err := s.redis.Set(c.UserContext(), blacklistPrefix+claims.TokenID, "1", ttl).Err(); err != nil {
				middleware.Logger.WarnContext(c.UserContext(), "failed to revoke token",
					slog.String("error", err.Error()))
			}
		}
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// AuthRequired returns the authentication middleware.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := middleware.BearerToken(c)
		if err != nil {
			msg := "Invalid authorization header"
			if errors.Is(err, middleware.ErrMissingToken) {
				msg = "Authorization required"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
		}

		claims, err := middleware.ParseToken(s.config.JWTSecret, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		if claims.TokenID != "" && s.redis != nil {
			revoked, err := s.redis.Exists(c.UserContext(), blacklistPrefix+claims.TokenID).Result()
			if err == nil && revoked > 0 {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		c.Locals("claims", claims)
		setUser(c, claims.UserID)
		return c.Next()
	}
}

// optionalUserID resolves the viewer from a bearer token without enforcing it.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	tokenString, err := middleware.BearerToken(c)
	if err != nil {
		return 0, false
	}
	claims, err := middleware.ParseToken(s.config.JWTSecret, tokenString)
	if err != nil {
		return 0, false
	}
	return claims.UserID, true
}
