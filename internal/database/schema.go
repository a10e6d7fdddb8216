package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"shelfswap/internal/config"
	"shelfswap/internal/middleware"

	"gorm.io/gorm"
)

// DB_SCHEMA_MODE values.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

var prodLikeEnvs = []string{"production", "prod", "staging", "stage"}

// SchemaStatus is what `migrate status` prints.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

// schemaPlan is the resolved DB_SCHEMA_MODE for one driver and environment.
type schemaPlan struct {
	mode    string
	sql     bool
	auto    bool
	unsafe  bool // AutoMigrate in a production-like env by explicit opt-in
	envName string
}

// planSchema decides which schema steps run. The embedded SQL is postgres
// dialect, so sqlite databases always use AutoMigrate. Hybrid mode runs
// both steps except in production-like environments, where only SQL runs.
func planSchema(cfg *config.Config) (schemaPlan, error) {
	p := schemaPlan{
		mode:    strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)),
		envName: cfg.Env,
	}
	if p.mode == "" {
		p.mode = SchemaModeHybrid
	}
	if !slices.Contains([]string{SchemaModeHybrid, SchemaModeSQL, SchemaModeAuto}, p.mode) {
		return p, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", p.mode)
	}

	if cfg.DBDriver == config.DriverSQLite {
		p.auto = true
		return p, nil
	}

	prodLike := slices.Contains(prodLikeEnvs, strings.ToLower(strings.TrimSpace(cfg.Env)))
	switch p.mode {
	case SchemaModeSQL:
		p.sql = true
	case SchemaModeHybrid:
		p.sql, p.auto = true, !prodLike
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return p, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		p.auto, p.unsafe = true, prodLike
	}
	return p, nil
}

// ApplySchema brings the database schema up to date per DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.sql {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if !plan.auto {
		return nil
	}

	if plan.unsafe {
		middleware.Logger.Warn("running AutoMigrate in a production-like environment",
			slog.String("env", plan.envName))
	}
	middleware.Logger.Info("running GORM AutoMigrate",
		slog.String("mode", plan.mode),
		slog.String("driver", cfg.DBDriver))
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus reports the plan and, when SQL migrations apply, which
// versions are applied and pending.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               plan.mode,
		Environment:        plan.envName,
		WillRunSQL:         plan.sql,
		WillRunAutoMigrate: plan.auto,
	}
	if !plan.sql {
		return status, nil
	}

	applied, err := ledger{db: db}.versions(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied
	status.PendingMigrations = pendingMigrations(applied, GetMigrations())
	return status, nil
}
