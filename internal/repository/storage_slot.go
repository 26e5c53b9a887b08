package repository

import (
	"bytes"
	"context"
	"errors"

	"github.com/seafreight/backend/internal/storage"
)

// StorageSlot keeps the blob as a single object in a storage.Storage
// (local directory or S3 bucket).
type StorageSlot struct {
	store storage.Storage
	key   string
}

// NewStorageSlot は key.json にデータを保存する StorageSlot を生成する
func NewStorageSlot(store storage.Storage, key string) *StorageSlot {
	return &StorageSlot{store: store, key: key + ".json"}
}

func (s *StorageSlot) Get(ctx context.Context) ([]byte, error) {
	b, err := s.store.Load(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *StorageSlot) Put(ctx context.Context, data []byte) error {
	_, err := s.store.Save(ctx, s.key, bytes.NewReader(data), "application/json")
	return err
}

// Ping delegates to the underlying storage when it supports it.
func (s *StorageSlot) Ping(ctx context.Context) error {
	if p, ok := s.store.(DB); ok {
		return p.Ping(ctx)
	}
	return nil
}
