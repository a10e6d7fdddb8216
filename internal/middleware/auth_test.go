package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signClaims(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken(testSecret, 42, 0)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.NotEmpty(t, claims.TokenID)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), claims.ExpiresAt, time.Minute)
}

func TestIssueToken_RequiresSecret(t *testing.T) {
	_, err := IssueToken("", 1, time.Hour)
	assert.Error(t, err)
}

func TestParseToken_Rejects(t *testing.T) {
	valid := func(overrides jwt.MapClaims) jwt.MapClaims {
		claims := jwt.MapClaims{
			"sub": "7",
			"iss": TokenIssuer,
			"aud": TokenAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
		for k, v := range overrides {
			if v == nil {
				delete(claims, k)
				continue
			}
			claims[k] = v
		}
		return claims
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", signClaims(t, testSecret, valid(jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})), ErrInvalidToken},
		{"missing expiry", signClaims(t, testSecret, valid(jwt.MapClaims{"exp": nil})), ErrInvalidToken},
		{"wrong issuer", signClaims(t, testSecret, valid(jwt.MapClaims{"iss": "someone-else"})), ErrInvalidToken},
		{"wrong audience", signClaims(t, testSecret, valid(jwt.MapClaims{"aud": "other-client"})), ErrInvalidToken},
		{"wrong secret", signClaims(t, "another-secret-another-secret-another", valid(nil)), ErrInvalidToken},
		{"malformed", "malformed.token.here", ErrInvalidToken},
		{"missing subject", signClaims(t, testSecret, valid(jwt.MapClaims{"sub": nil})), ErrInvalidSubject},
		{"non numeric subject", signClaims(t, testSecret, valid(jwt.MapClaims{"sub": "abc"})), ErrInvalidSubject},
		{"zero subject", signClaims(t, testSecret, valid(jwt.MapClaims{"sub": strconv.Itoa(0)})), ErrInvalidSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(testSecret, tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		token, err := BearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).SendString(err.Error())
		}
		return c.SendString(token)
	})

	tests := []struct {
		name       string
		path       string
		authHeader string
		wantStatus int
	}{
		{"header", "/", "Bearer abc", http.StatusOK},
		{"query fallback", "/?token=abc", "", http.StatusOK},
		{"missing", "/", "", http.StatusUnauthorized},
		{"basic scheme", "/", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"empty bearer", "/", "Bearer ", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
