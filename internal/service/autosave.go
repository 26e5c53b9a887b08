package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/seafreight/backend/internal/model"
	"github.com/seafreight/backend/internal/repository"
)

// SaveStatus は保存状態
type SaveStatus string

const (
	StatusModified SaveStatus = "modified"
	StatusSaving   SaveStatus = "saving"
	StatusSaved    SaveStatus = "saved"
)

// DefaultAutosaveDelay は最後の編集から書き込みまでの待ち時間
const DefaultAutosaveDelay = 2 * time.Second

// Autosaver は編集をまとめて遅延書き込みする。
// Touch のたびにタイマーをリセットし、最後の Touch から delay 経過後に 1 回だけ書き込む。
type Autosaver struct {
	store    repository.InvoiceStore
	snapshot func() *model.InvoiceRecord
	delay    time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	gen      uint64 // Touch ごとに増える
	savedGen uint64 // 最後に書き込みが成功した時点の gen
	status   SaveStatus
	closed   bool

	// writeMu serializes writes to the store.
	writeMu sync.Mutex
}

// NewAutosaver は Autosaver を生成する。snapshot は書き込む時点のレコードを返す。
func NewAutosaver(store repository.InvoiceStore, snapshot func() *model.InvoiceRecord, delay time.Duration) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &Autosaver{
		store:    store,
		snapshot: snapshot,
		delay:    delay,
		status:   StatusSaved,
	}
}

// Touch marks the record modified and (re)starts the debounce timer.
func (a *Autosaver) Touch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.status = StatusModified
	if a.closed {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = a.flush(ctx)
	})
}

// SaveNow writes immediately, bypassing the debounce.
func (a *Autosaver) SaveNow(ctx context.Context) (SaveStatus, error) {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	err := a.write(ctx)
	return a.Status(), err
}

// Status は現在の保存状態を返す
func (a *Autosaver) Status() SaveStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Close stops the timer and flushes pending edits.
func (a *Autosaver) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	return a.flush(ctx)
}

// flush writes only when there are edits not yet saved.
func (a *Autosaver) flush(ctx context.Context) error {
	a.mu.Lock()
	dirty := a.gen != a.savedGen
	a.mu.Unlock()
	if !dirty {
		return nil
	}
	return a.write(ctx)
}

func (a *Autosaver) write(ctx context.Context) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	a.mu.Lock()
	gen := a.gen
	a.status = StatusSaving
	a.mu.Unlock()

	err := a.store.Save(ctx, a.snapshot())

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		slog.Error("autosave failed", "error", err)
		a.status = StatusModified
		return err
	}
	if gen > a.savedGen {
		a.savedGen = gen
	}
	if a.gen == a.savedGen {
		a.status = StatusSaved
	} else {
		a.status = StatusModified
	}
	return nil
}
