package snapshot

import (
	"context"
	"fmt"

	"github.com/NegroHm/uda-apuntes/internal/config"
	"github.com/NegroHm/uda-apuntes/internal/ranking"
)

// NewStoreFromConfig creates the snapshot store named by cfg.SnapshotBackend.
func NewStoreFromConfig(ctx context.Context, cfg *config.Config) (ranking.Store, error) {
	switch cfg.SnapshotBackend {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.SnapshotPath), nil
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	case "postgres":
		return NewPostgresStore(cfg.DatabaseURL)
	case "s3":
		return NewS3Store(ctx, S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
			Key:       cfg.S3Key,
		})
	default:
		return nil, fmt.Errorf("unknown snapshot backend: %s", cfg.SnapshotBackend)
	}
}
