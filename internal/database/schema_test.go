package database

import (
	"context"
	"testing"
	"testing/fstest"

	"shelfswap/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestPlanSchema(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.Config
		wantSQL    bool
		wantAuto   bool
		wantErr    bool
		wantUnsafe bool
	}{
		{"hybrid development", config.Config{Env: "development", DBDriver: config.DriverPostgres}, true, true, false, false},
		{"hybrid production", config.Config{Env: "production", DBDriver: config.DriverPostgres, DBSchemaMode: "hybrid"}, true, false, false, false},
		{"sql only", config.Config{Env: "development", DBDriver: config.DriverPostgres, DBSchemaMode: "sql"}, true, false, false, false},
		{"auto development", config.Config{Env: "development", DBDriver: config.DriverPostgres, DBSchemaMode: "auto"}, false, true, false, false},
		{"auto production refused", config.Config{Env: "production", DBDriver: config.DriverPostgres, DBSchemaMode: "auto"}, false, false, true, false},
		{"auto production allowed", config.Config{Env: "staging", DBDriver: config.DriverPostgres, DBSchemaMode: "auto", DBAutoMigrateAllowDestructive: true}, false, true, false, true},
		{"sqlite always auto", config.Config{Env: "production", DBDriver: config.DriverSQLite, DBSchemaMode: "sql"}, false, true, false, false},
		{"unknown mode", config.Config{DBDriver: config.DriverPostgres, DBSchemaMode: "yolo"}, false, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := planSchema(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, plan.sql)
			assert.Equal(t, tt.wantAuto, plan.auto)
			assert.Equal(t, tt.wantUnsafe, plan.unsafe)
		})
	}
}

func TestApplySchema_SQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	cfg := &config.Config{Env: "test", DBDriver: config.DriverSQLite}
	require.NoError(t, ApplySchema(context.Background(), db, cfg))

	for _, table := range []string{"users", "collectibles", "trades", "posts", "likes", "comments", "follows", "notifications", "chat_messages"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	status, err := GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.False(t, status.WillRunSQL)
	assert.True(t, status.WillRunAutoMigrate)
}

func TestEmbeddedMigrations(t *testing.T) {
	all := GetMigrations()
	require.NotEmpty(t, all)
	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, "init", all[0].Name)
	assert.Equal(t, "000001_init", all[0].String())
	assert.Contains(t, all[0].UpScript, "CREATE TABLE IF NOT EXISTS trades")
	assert.Contains(t, all[0].DownScript, "DROP TABLE IF EXISTS trades")

	require.NotNil(t, GetMigrationByVersion(1))
	assert.Nil(t, GetMigrationByVersion(999))
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1, Name: "init"}}
	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1}, registered))

	err := validateAppliedVersions([]int{1, 7}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000007")
}

func TestPendingMigrations(t *testing.T) {
	registered := []Migration{{Version: 1, Name: "init"}, {Version: 2, Name: "trade_indexes"}}
	assert.Len(t, pendingMigrations(nil, registered), 2)

	pending := pendingMigrations([]int{1}, registered)
	require.Len(t, pending, 1)
	assert.Equal(t, "000002_trade_indexes", pending[0].String())

	assert.Empty(t, pendingMigrations([]int{1, 2}, registered))
}

func TestLoadMigrations(t *testing.T) {
	good := fstest.MapFS{
		"m/000002_follows.up.sql":   {Data: []byte("CREATE TABLE follows ();")},
		"m/000002_follows.down.sql": {Data: []byte("DROP TABLE follows;")},
		"m/000001_init.up.sql":      {Data: []byte("CREATE TABLE users ();")},
		"m/000001_init.down.sql":    {Data: []byte("DROP TABLE users;")},
	}
	all, err := loadMigrations(good, "m")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "000001_init", all[0].String())
	assert.Equal(t, "DROP TABLE follows;", all[1].DownScript)

	tests := map[string]fstest.MapFS{
		"missing down": {"m/000001_init.up.sql": {Data: []byte("x")}},
		"bad name":     {"m/init.up.sql": {Data: []byte("x")}, "m/init.down.sql": {Data: []byte("x")}},
		"bad version":  {"m/v1_init.up.sql": {Data: []byte("x")}, "m/v1_init.down.sql": {Data: []byte("x")}},
		"duplicate": {
			"m/000001_a.up.sql": {Data: []byte("x")}, "m/000001_a.down.sql": {Data: []byte("x")},
			"m/01_b.up.sql": {Data: []byte("x")}, "m/01_b.down.sql": {Data: []byte("x")},
		},
	}
	for name, fsys := range tests {
		_, err := loadMigrations(fsys, "m")
		assert.Error(t, err, name)
	}
}
