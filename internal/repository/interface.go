package repository

import (
	"context"

	"github.com/seafreight/backend/internal/model"
)

// DB は保存先の生存確認を行うインターフェース
type DB interface {
	Ping(ctx context.Context) error
}

// Slot は請求書データ 1 件を保持する名前付きの保存領域
// 空の場合 Get は ErrNotFound を返す
type Slot interface {
	Get(ctx context.Context) ([]byte, error)
	Put(ctx context.Context, data []byte) error
}

// InvoiceStore は請求書レコードの永続化インターフェース
type InvoiceStore interface {
	// Load は保存済みレコードを返す。未保存または使用不能な場合は ErrNotFound。
	Load(ctx context.Context) (*model.InvoiceRecord, error)
	Save(ctx context.Context, rec *model.InvoiceRecord) error
}
