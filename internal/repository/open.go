package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/seafreight/backend/internal/config"
	"github.com/seafreight/backend/internal/storage"
)

// Backend は STORAGE_DRIVER に応じて開いた保存先
type Backend struct {
	Slot Slot
	// DB はヘルスチェック用
	DB DB
	// Files はファイル系ドライバ (file, s3) の場合のみ非 nil
	Files storage.Storage

	closers []func()
}

// Close releases connections opened by OpenBackend.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

type pingSlot interface {
	Slot
	DB
}

// OpenBackend は設定されたドライバの Slot を開く
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{}
	var slot pingSlot

	switch cfg.StorageDriver {
	case config.DriverMemory:
		slot = NewMemorySlot()

	case config.DriverFile:
		files := storage.NewLocalStorage(cfg.StorageDir, "")
		b.Files = files
		slot = NewStorageSlot(files, cfg.StorageKey+".json")

	case config.DriverS3:
		files, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.AwsS3Bucket,
			Region:          cfg.AwsRegion,
			Prefix:          cfg.AwsS3Prefix,
			AccessKeyID:     cfg.AwsAccessKeyID,
			SecretAccessKey: cfg.AwsSecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		b.Files = files
		slot = NewStorageSlot(files, cfg.StorageKey+".json")

	case config.DriverPostgres:
		pool, err := NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		slot = NewPgInvoiceSlot(pool, cfg.StorageKey)

	case config.DriverRedis:
		rdb, err := ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() {
			if err := rdb.Close(); err != nil {
				slog.Warn("redis close failed", "error", err)
			}
		})
		slot = NewRedisInvoiceSlot(rdb, cfg.StorageKey)

	case config.DriverMongo:
		client, db, err := ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDbName)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				slog.Warn("mongo disconnect failed", "error", err)
			}
		})
		slot = NewMongoInvoiceSlot(db, cfg.StorageKey)

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	b.Slot = slot
	b.DB = slot
	slog.Info("storage opened", "driver", cfg.StorageDriver, "key", cfg.StorageKey)
	return b, nil
}
