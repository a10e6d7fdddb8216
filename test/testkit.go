//go:build integration

// Package test holds end-to-end checks that run the API against the SQL store
// configured in the environment (DB_DRIVER, DB_HOST, ...).
package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shelfswap/internal/bootstrap"
	"shelfswap/internal/config"
	"shelfswap/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testPassword = "TestPass123!@#"

type authUser struct {
	ID       uint
	Username string
	Token    string
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	cfg, err := config.LoadConfig()
	require.NoError(t, err, "load config")
	if cfg.StoreBackend == config.StoreBackendMemory {
		t.Skip("integration tests need STORE_BACKEND=sql")
	}

	rt, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{})
	if err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })

	srv, err := server.NewServerWithDeps(cfg, rt.Store, rt.Redis, rt.Objects)
	require.NoError(t, err, "new server")
	return srv.App()
}

func signupUser(t *testing.T, app *fiber.App, prefix string) authUser {
	t.Helper()

	username := prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	status, raw := do(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	var body struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.NotEmpty(t, body.Token)
	require.NotZero(t, body.User.ID)
	return authUser{ID: body.User.ID, Username: username, Token: body.Token}
}

func addCollectible(t *testing.T, app *fiber.App, owner authUser, name string) uint {
	t.Helper()
	status, raw := do(t, app, http.MethodPost, "/api/collectibles", owner.Token, map[string]any{
		"name":      name,
		"series":    "Integration Series",
		"variant":   "Regular",
		"rarity":    "common",
		"for_trade": true,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var body struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body.ID
}

func do(t *testing.T, app *fiber.App, method, path, token string, payload any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err, "%s %s", method, path)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func tradePath(id uint, suffix string) string {
	return fmt.Sprintf("/api/trades/%d%s", id, suffix)
}
