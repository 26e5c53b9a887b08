package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("storage: not found")

// Storage はファイル（請求書データ・PDF）の保存・取得・削除を抽象化するインターフェース。
// ローカルファイルシステム実装の他、S3 に差し替え可能。
type Storage interface {
	// Save はファイルを保存し、公開 URL を返す。
	// key はストレージ内の一意パス (例: "exports/INV-2023-001.pdf")。
	Save(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)

	// Load は key に対応するファイルの内容を返す。存在しない場合は ErrNotFound。
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete は key に対応するファイルを削除する。
	Delete(ctx context.Context, key string) error
}
