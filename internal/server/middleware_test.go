package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shelfswap/internal/config"
	"shelfswap/internal/middleware"
	"shelfswap/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const authTestSecret = "test-secret-key-12345678901234567890123456789012"

func signClaims(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	str, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(authTestSecret))
	require.NoError(t, err)
	return str
}

func TestServer_AuthRequired(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: authTestSecret}}
	app := fiber.New()
	app.Get("/trades", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID")})
	})

	claimsFor := func(iss, aud string, ttl time.Duration) jwt.MapClaims {
		return jwt.MapClaims{
			"sub": "42",
			"iss": iss,
			"aud": aud,
			"exp": time.Now().Add(ttl).Unix(),
			"jti": "8a5bb7f2-ff8e-4a8e-b8f5-7f6a1c1e0d11",
		}
	}
	valid := signClaims(t, claimsFor(middleware.TokenIssuer, middleware.TokenAudience, time.Hour))

	tests := []struct {
		name    string
		header  string
		query   string
		wantMsg string
	}{
		{name: "bearer header", header: "Bearer " + valid},
		{name: "token query param", query: valid},
		{name: "missing", wantMsg: "Authorization required"},
		{name: "no scheme", header: valid, wantMsg: "Invalid authorization header"},
		{name: "basic scheme", header: "Basic " + valid, wantMsg: "Invalid authorization header"},
		{name: "expired", header: "Bearer " + signClaims(t, claimsFor(middleware.TokenIssuer, middleware.TokenAudience, -time.Hour)), wantMsg: "Invalid or expired token"},
		{name: "foreign issuer", header: "Bearer " + signClaims(t, claimsFor("someone-else", middleware.TokenAudience, time.Hour)), wantMsg: "Invalid or expired token"},
		{name: "foreign audience", header: "Bearer " + signClaims(t, claimsFor(middleware.TokenIssuer, "another-client", time.Hour)), wantMsg: "Invalid or expired token"},
		{name: "numeric subject", header: "Bearer " + signClaims(t, jwt.MapClaims{
			"sub": 42, "iss": middleware.TokenIssuer, "aud": middleware.TokenAudience, "exp": time.Now().Add(time.Hour).Unix(),
		}), wantMsg: "Invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/trades"
			if tt.query != "" {
				path += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			if tt.wantMsg == "" {
				require.Equal(t, http.StatusOK, resp.StatusCode)
				var body struct {
					UserID uint `json:"userID"`
				}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, uint(42), body.UserID)
				return
			}
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantMsg, body.Error)
			assert.Equal(t, models.CodeUnauthorized, body.Code)
		})
	}
}

func TestServer_AuthRequired_RevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := &Server{config: &config.Config{JWTSecret: authTestSecret}, redis: rdb}
	app := fiber.New()
	app.Post("/logout", s.AuthRequired(), s.Logout)
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	token, err := middleware.IssueToken(authTestSecret, 7, time.Hour)
	assert.NoError(t, err)

	do := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		assert.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/protected"))
	assert.Equal(t, http.StatusOK, do(http.MethodPost, "/logout"))
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/protected"))

	claims, err := middleware.ParseToken(authTestSecret, token)
	assert.NoError(t, err)
	assert.True(t, mr.Exists(blacklistPrefix+claims.TokenID))
	assert.Greater(t, mr.TTL(blacklistPrefix+claims.TokenID), time.Duration(0))
}
