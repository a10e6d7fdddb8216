package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"shelfswap/internal/middleware"

	"gorm.io/gorm"
)

// SchemaMigration is one row of the applied-migrations ledger.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

const createLedgerSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// ledger records which embedded migrations ran against a database.
type ledger struct {
	db *gorm.DB
}

func (l ledger) ensure(ctx context.Context) error {
	if err := l.db.WithContext(ctx).Exec(createLedgerSQL).Error; err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

// versions lists applied versions in ascending order. A missing ledger
// table means nothing ran yet.
func (l ledger) versions(ctx context.Context) ([]int, error) {
	var out []int
	err := l.db.WithContext(ctx).Model(&SchemaMigration{}).Order("version").Pluck("version", &out).Error
	switch {
	case err == nil:
		return out, nil
	case isMissingTable(err):
		return []int{}, nil
	default:
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
}

func isMissingTable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no such table") ||
		(strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"))
}

// apply runs the up script and records the version atomically.
func (l ledger) apply(ctx context.Context, m Migration) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.UpScript).Error; err != nil {
			return fmt.Errorf("apply migration %s: %w", m.String(), err)
		}
		if err := tx.Create(&SchemaMigration{Version: m.Version, Name: m.Name}).Error; err != nil {
			return fmt.Errorf("record migration %s: %w", m.String(), err)
		}
		return nil
	})
}

// revert runs the down script and drops the ledger row atomically.
func (l ledger) revert(ctx context.Context, m Migration) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return fmt.Errorf("roll back migration %s: %w", m.String(), err)
		}
		if err := tx.Where("version = ?", m.Version).Delete(&SchemaMigration{}).Error; err != nil {
			return fmt.Errorf("unrecord migration %s: %w", m.String(), err)
		}
		return nil
	})
}

// pendingMigrations returns the registered migrations missing from applied,
// in version order.
func pendingMigrations(applied []int, registered []Migration) []Migration {
	var out []Migration
	for _, m := range registered {
		if !slices.Contains(applied, m.Version) {
			out = append(out, m)
		}
	}
	return out
}

// validateAppliedVersions fails when the ledger names versions this binary
// does not embed, which means the database is ahead of the code.
func validateAppliedVersions(applied []int, registered []Migration) error {
	var unknown []string
	for _, v := range applied {
		if !slices.ContainsFunc(registered, func(m Migration) bool { return m.Version == v }) {
			unknown = append(unknown, fmt.Sprintf("%06d", v))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return fmt.Errorf("schema_migrations lists versions unknown to this build: %s", strings.Join(unknown, ", "))
}

// RunMigrations applies every pending embedded migration in order.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	l := ledger{db: db}
	if err := l.ensure(ctx); err != nil {
		return err
	}
	applied, err := l.versions(ctx)
	if err != nil {
		return err
	}
	if err := validateAppliedVersions(applied, GetMigrations()); err != nil {
		return err
	}

	for _, m := range pendingMigrations(applied, GetMigrations()) {
		if err := l.apply(ctx, m); err != nil {
			return err
		}
		middleware.Logger.Info("migration applied", slog.String("migration", m.String()))
	}
	return nil
}

// RollbackMigration reverts one applied migration.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m := GetMigrationByVersion(version)
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	l := ledger{db: db}
	applied, err := l.versions(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(applied, version) {
		return fmt.Errorf("migration %d has not been applied", version)
	}

	if err := l.revert(ctx, *m); err != nil {
		return err
	}
	middleware.Logger.Info("migration rolled back", slog.String("migration", m.String()))
	return nil
}
