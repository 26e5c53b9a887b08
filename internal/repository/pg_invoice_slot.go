package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgInvoiceSlot は Slot の PostgreSQL 実装（invoice_slots テーブルの 1 行）
type PgInvoiceSlot struct {
	pool *pgxpool.Pool
	key  string
}

// NewPgInvoiceSlot は PgInvoiceSlot を生成する
func NewPgInvoiceSlot(pool *pgxpool.Pool, key string) *PgInvoiceSlot {
	return &PgInvoiceSlot{pool: pool, key: key}
}

// Get は保存済みの JSON を返す
func (s *PgInvoiceSlot) Get(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data::text FROM invoice_slots WHERE key = $1`,
		s.key,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Put は JSON を upsert する
func (s *PgInvoiceSlot) Put(ctx context.Context, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO invoice_slots (key, data, updated_at)
		 VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		s.key, string(data),
	)
	return err
}

// Ping は接続を確認する
func (s *PgInvoiceSlot) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
