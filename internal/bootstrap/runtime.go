// Package bootstrap wires the entity store, Redis and object storage from config.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"shelfswap/internal/cache"
	"shelfswap/internal/config"
	"shelfswap/internal/database"
	"shelfswap/internal/middleware"
	"shelfswap/internal/repository"
	"shelfswap/internal/seed"
	"shelfswap/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo inserts the demo catalog; cfg.SeedDemoData also enables it.
	SeedDemo bool
}

// Runtime holds the initialized backends. DB is nil on the memory backend
// and Redis is nil when it is unconfigured or unreachable.
type Runtime struct {
	DB      *gorm.DB
	Store   *repository.Store
	Redis   *redis.Client
	Objects storage.ObjectStore
}

// InitRuntime picks the store backend, connects Redis and object storage
// and optionally seeds demo data.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{}

	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		rt.Store = repository.NewMemoryStore()
		middleware.Logger.Info("using in-memory entity store")
	default:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		rt.DB = db
		rt.Store = repository.NewGormStore(db)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	rt.Redis = cache.GetClient()

	objects, err := NewObjectStore(cfg)
	if err != nil {
		return nil, err
	}
	rt.Objects = objects

	if opts.SeedDemo || cfg.SeedDemoData {
		if _, err := seed.Run(ctx, rt.Store, seed.Options{Demo: true}); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return rt, nil
}

// NewObjectStore returns MinIO when configured and the local upload
// directory otherwise.
func NewObjectStore(cfg *config.Config) (storage.ObjectStore, error) {
	if cfg.UsesMinio() {
		store, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("object storage init failed: %w", err)
		}
		middleware.Logger.Info("using minio object storage", slog.String("bucket", cfg.MinioBucket))
		return store, nil
	}

	store, err := storage.NewLocalStore(cfg.UploadDir, cfg.MediaBaseURL)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Close releases the database pool. Redis is owned by the server.
func (r *Runtime) Close() error {
	if r.DB == nil {
		return nil
	}
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
