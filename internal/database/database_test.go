package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"shelfswap/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	tests := []struct {
		name     string
		cfg      *config.Config
		wantOpen int
	}{
		{"explicit", &config.Config{DBDriver: config.DriverPostgres, DBMaxOpenConns: 10, DBMaxIdleConns: 5, DBConnMaxLifetimeMinutes: 15}, 10},
		{"defaults", &config.Config{DBDriver: config.DriverPostgres}, 25},
		{"sqlite single writer", &config.Config{DBDriver: config.DriverSQLite, DBMaxOpenConns: 10}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, configurePool(db, tt.cfg))
			sqlDB, err := db.DB()
			require.NoError(t, err)
			assert.Equal(t, tt.wantOpen, sqlDB.Stats().MaxOpenConnections)
		})
	}
}

func TestDialectorFor(t *testing.T) {
	d, err := dialectorFor(&config.Config{DBDriver: config.DriverSQLite})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = dialectorFor(&config.Config{DBDriver: config.DriverPostgres, DBHost: "localhost"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = dialectorFor(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestSlogGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := context.Background()
	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Zero(t, buf.Len(), "record-not-found is not logged")

	l.Trace(ctx, time.Now(), sql, errors.New("boom"))
	assert.Contains(t, buf.String(), "query failed")
	buf.Reset()

	l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	assert.Contains(t, buf.String(), "slow query")
	buf.Reset()

	verbose := l.LogMode(logger.Info)
	verbose.Trace(ctx, time.Now(), sql, nil)
	assert.Zero(t, buf.Len(), "fast queries log at debug, below the handler's info level")
	verbose.Info(ctx, "pool %s", "ready")
	assert.Contains(t, buf.String(), "pool ready")
	buf.Reset()

	silent := l.LogMode(logger.Silent)
	silent.Trace(ctx, time.Now().Add(-time.Second), sql, errors.New("boom"))
	assert.Zero(t, buf.Len())
}
