package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis creates a Redis client and verifies it with a ping.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// RedisInvoiceSlot keeps the blob under a single Redis string key.
type RedisInvoiceSlot struct {
	client redis.UniversalClient
	key    string
}

// NewRedisInvoiceSlot は RedisInvoiceSlot を生成する
func NewRedisInvoiceSlot(client redis.UniversalClient, key string) *RedisInvoiceSlot {
	return &RedisInvoiceSlot{client: client, key: key}
}

func (s *RedisInvoiceSlot) Get(ctx context.Context) ([]byte, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *RedisInvoiceSlot) Put(ctx context.Context, data []byte) error {
	return s.client.Set(ctx, s.key, data, 0).Err()
}

func (s *RedisInvoiceSlot) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
