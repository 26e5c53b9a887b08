package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/seafreight/backend/internal/model"
)

// SlotInvoiceStore は InvoiceStore の Slot 実装
// 読み込み時にテンプレートとのマージと数値の補正を行う
type SlotInvoiceStore struct {
	slot     Slot
	template func() *model.InvoiceRecord
}

// NewSlotInvoiceStore は SlotInvoiceStore を生成する
// template が nil の場合は現在時刻の DefaultInvoice を使う
func NewSlotInvoiceStore(slot Slot, template func() *model.InvoiceRecord) *SlotInvoiceStore {
	if template == nil {
		template = func() *model.InvoiceRecord { return model.DefaultInvoice(time.Now()) }
	}
	return &SlotInvoiceStore{slot: slot, template: template}
}

// Load returns ErrNotFound both for an empty slot and for a blob that cannot
// be reconciled; the latter is logged and otherwise treated as empty.
func (s *SlotInvoiceStore) Load(ctx context.Context) (*model.InvoiceRecord, error) {
	blob, err := s.slot.Get(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := model.DecodeInvoice(blob, s.template())
	if err != nil {
		slog.Warn("stored invoice unusable, starting from template", "error", err, "bytes", len(blob))
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return rec, nil
}

func (s *SlotInvoiceStore) Save(ctx context.Context, rec *model.InvoiceRecord) error {
	if rec == nil {
		return errors.New("save: nil record")
	}
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("save: encode: %w", err)
	}
	if err := s.slot.Put(ctx, blob); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Ping delegates to the slot when it supports it.
func (s *SlotInvoiceStore) Ping(ctx context.Context) error {
	if p, ok := s.slot.(DB); ok {
		return p.Ping(ctx)
	}
	return nil
}
