package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"shelfswap/internal/config"
	"shelfswap/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRuntime_MemoryWithDemo(t *testing.T) {
	cfg := &config.Config{
		StoreBackend: config.StoreBackendMemory,
		UploadDir:    t.TempDir(),
		MediaBaseURL: "/media",
		SeedDemoData: true,
	}

	rt, err := InitRuntime(context.Background(), cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	assert.Nil(t, rt.DB)
	assert.Nil(t, rt.Redis)
	assert.Equal(t, config.StoreBackendMemory, rt.Store.Backend)
	assert.IsType(t, &storage.LocalStore{}, rt.Objects)

	john, err := rt.Store.Users.GetByUsername(context.Background(), "johndoe")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", john.DisplayName)
}

func TestInitRuntime_SQLite(t *testing.T) {
	cfg := &config.Config{
		StoreBackend: config.StoreBackendSQL,
		DBDriver:     config.DriverSQLite,
		DBSQLitePath: filepath.Join(t.TempDir(), "shelfswap.db"),
		UploadDir:    t.TempDir(),
		MediaBaseURL: "/media",
	}

	rt, err := InitRuntime(context.Background(), cfg, Options{SeedDemo: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	require.NotNil(t, rt.DB)
	assert.NoError(t, rt.Store.Ping(context.Background()))

	items, err := rt.Store.Collectibles.Search(context.Background(), "dimoo")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
