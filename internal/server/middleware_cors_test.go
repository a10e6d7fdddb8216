package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"shelfswap/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frontendOrigin = "http://localhost:5173"

// limitedApp mounts only the global middleware plus one probe route on /probe.
func limitedApp(env string) *fiber.App {
	srv := &Server{config: &config.Config{AllowedOrigins: frontendOrigin, Env: env}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	app.All("/probe", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	return app
}

func hit(t *testing.T, app *fiber.App, method string, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, "/probe", nil)
	req.Header.Set("Origin", frontendOrigin)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func exhaustLimiter(t *testing.T, app *fiber.App, method string) {
	t.Helper()
	for range globalRateLimit {
		require.Equal(t, fiber.StatusOK, hit(t, app, method, nil).StatusCode)
	}
}

func TestGlobalLimiter_429KeepsCORSHeaders(t *testing.T) {
	app := limitedApp("production")
	exhaustLimiter(t, app, http.MethodGet)

	resp := hit(t, app, http.MethodGet, nil)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, frontendOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestGlobalLimiter_SkipsPreflight(t *testing.T) {
	app := limitedApp("production")
	exhaustLimiter(t, app, http.MethodPatch)
	require.Equal(t, fiber.StatusTooManyRequests, hit(t, app, http.MethodPatch, nil).StatusCode)

	resp := hit(t, app, http.MethodOptions, map[string]string{
		"Access-Control-Request-Method":  http.MethodPatch,
		"Access-Control-Request-Headers": "authorization,content-type",
	})
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, frontendOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestGlobalLimiter_OffOutsideProduction(t *testing.T) {
	for _, env := range []string{"development", "test"} {
		app := limitedApp(env)
		exhaustLimiter(t, app, http.MethodGet)
		assert.Equal(t, fiber.StatusOK, hit(t, app, http.MethodGet, nil).StatusCode, env)
	}
}
