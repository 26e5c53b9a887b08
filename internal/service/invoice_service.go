package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/seafreight/backend/internal/model"
	"github.com/seafreight/backend/internal/repository"
)

// InvoiceService は編集中の請求書 1 件を保持し、編集操作を提供するインターフェース
type InvoiceService interface {
	Get(ctx context.Context) *model.InvoiceRecord
	Item(ctx context.Context, id string) (*model.LineItem, error)
	Totals(ctx context.Context) model.Totals
	Status() SaveStatus

	Replace(ctx context.Context, rec *model.InvoiceRecord) (*model.InvoiceRecord, error)
	UpdateFields(ctx context.Context, patch model.InvoicePatch) (*model.InvoiceRecord, error)
	UpdateCompany(ctx context.Context, patch model.CompanyPatch) (*model.InvoiceRecord, error)
	UpdateCustomer(ctx context.Context, patch model.CustomerPatch) (*model.InvoiceRecord, error)
	SetLogo(ctx context.Context, dataURI string) (*model.InvoiceRecord, error)
	ClearLogo(ctx context.Context) (*model.InvoiceRecord, error)

	AddItem(ctx context.Context) (*model.LineItem, error)
	UpdateItem(ctx context.Context, id, field, value string) (*model.LineItem, error)
	RemoveItem(ctx context.Context, id string) error

	// Save writes immediately, bypassing the autosave delay.
	Save(ctx context.Context) (SaveStatus, error)
	// Close flushes pending edits.
	Close(ctx context.Context) error
}

// InvoiceServiceOptions は InvoiceServiceImpl の任意設定
type InvoiceServiceOptions struct {
	AutosaveDelay time.Duration
	// Now は既定テンプレートの日付に使う。nil の場合は time.Now。
	Now func() time.Time
}

// InvoiceServiceImpl は InvoiceService の実装
type InvoiceServiceImpl struct {
	mu       sync.Mutex
	rec      *model.InvoiceRecord
	saver    *Autosaver
	template func() *model.InvoiceRecord
}

// NewInvoiceService は保存済みレコードを読み込んで InvoiceServiceImpl を生成する。
// 読み込めない場合は既定テンプレートから開始する。
func NewInvoiceService(ctx context.Context, store repository.InvoiceStore, opts InvoiceServiceOptions) InvoiceService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &InvoiceServiceImpl{
		template: func() *model.InvoiceRecord { return model.DefaultInvoice(now()) },
	}

	rec, err := store.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		rec = s.template()
	default:
		slog.Error("failed to load stored invoice", "error", err)
		rec = s.template()
	}
	s.rec = rec
	s.saver = NewAutosaver(store, s.snapshot, opts.AutosaveDelay)
	return s
}

func (s *InvoiceServiceImpl) snapshot() *model.InvoiceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Clone()
}

// Get は編集中レコードのコピーを返す
func (s *InvoiceServiceImpl) Get(_ context.Context) *model.InvoiceRecord {
	return s.snapshot()
}

func (s *InvoiceServiceImpl) Item(_ context.Context, id string) (*model.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.rec.ItemIndex(id)
	if i < 0 {
		return nil, ErrItemNotFound
	}
	item := s.rec.Items[i]
	return &item, nil
}

func (s *InvoiceServiceImpl) Totals(_ context.Context) model.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.ComputeTotals(s.rec.Items)
}

func (s *InvoiceServiceImpl) Status() SaveStatus {
	return s.saver.Status()
}

// Replace swaps in a whole record, as when a client pushes its full state.
func (s *InvoiceServiceImpl) Replace(_ context.Context, rec *model.InvoiceRecord) (*model.InvoiceRecord, error) {
	if rec == nil {
		return nil, errors.New("replace: nil record")
	}
	if !rec.Currency.Valid() {
		return nil, ErrInvalidCurrency
	}
	if err := validateDate(rec.Date); err != nil {
		return nil, err
	}
	if err := validateDate(rec.DueDate); err != nil {
		return nil, err
	}
	next := rec.Clone()
	ensureItemIDs(next)

	s.mu.Lock()
	s.rec = next
	out := s.rec.Clone()
	s.mu.Unlock()

	s.saver.Touch()
	return out, nil
}

func (s *InvoiceServiceImpl) UpdateFields(_ context.Context, patch model.InvoicePatch) (*model.InvoiceRecord, error) {
	if patch.Currency != nil && !patch.Currency.Valid() {
		return nil, ErrInvalidCurrency
	}
	if patch.Date != nil {
		if err := validateDate(*patch.Date); err != nil {
			return nil, err
		}
	}
	if patch.DueDate != nil {
		if err := validateDate(*patch.DueDate); err != nil {
			return nil, err
		}
	}

	return s.mutate(func(rec *model.InvoiceRecord) {
		if patch.InvoiceNumber != nil {
			rec.InvoiceNumber = *patch.InvoiceNumber
		}
		if patch.Date != nil {
			rec.Date = *patch.Date
		}
		if patch.DueDate != nil {
			rec.DueDate = *patch.DueDate
		}
		if patch.Currency != nil {
			rec.Currency = *patch.Currency
		}
		if patch.Notes != nil {
			rec.Notes = *patch.Notes
		}
	}), nil
}

func (s *InvoiceServiceImpl) UpdateCompany(_ context.Context, patch model.CompanyPatch) (*model.InvoiceRecord, error) {
	return s.mutate(func(rec *model.InvoiceRecord) {
		c := &rec.Company
		setIf(&c.Name, patch.Name)
		setIf(&c.Address, patch.Address)
		setIf(&c.Email, patch.Email)
		setIf(&c.Phone, patch.Phone)
	}), nil
}

func (s *InvoiceServiceImpl) UpdateCustomer(_ context.Context, patch model.CustomerPatch) (*model.InvoiceRecord, error) {
	return s.mutate(func(rec *model.InvoiceRecord) {
		c := &rec.Customer
		setIf(&c.Name, patch.Name)
		setIf(&c.CompanyName, patch.CompanyName)
		setIf(&c.Address, patch.Address)
		setIf(&c.Email, patch.Email)
		setIf(&c.ReferenceID, patch.ReferenceID)
	}), nil
}

// SetLogo stores an image data URI as the company logo.
func (s *InvoiceServiceImpl) SetLogo(_ context.Context, dataURI string) (*model.InvoiceRecord, error) {
	if !strings.HasPrefix(dataURI, "data:image/") {
		return nil, ErrInvalidImage
	}
	return s.mutate(func(rec *model.InvoiceRecord) {
		logo := dataURI
		rec.Company.LogoURL = &logo
	}), nil
}

func (s *InvoiceServiceImpl) ClearLogo(_ context.Context) (*model.InvoiceRecord, error) {
	return s.mutate(func(rec *model.InvoiceRecord) {
		rec.Company.LogoURL = nil
	}), nil
}

// AddItem appends a blank row.
func (s *InvoiceServiceImpl) AddItem(_ context.Context) (*model.LineItem, error) {
	item := model.NewLineItem()
	s.mutate(func(rec *model.InvoiceRecord) {
		rec.Items = append(rec.Items, item)
	})
	return &item, nil
}

// UpdateItem sets one field of a line item from its text value.
//
// Editing cbm, qty or rate recomputes the amount from all three. Editing the
// amount stores it as typed and marks it overridden; the override holds until
// the next cbm, qty or rate edit. Other fields never touch the amount.
func (s *InvoiceServiceImpl) UpdateItem(_ context.Context, id, field, value string) (*model.LineItem, error) {
	s.mu.Lock()
	i := s.rec.ItemIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, ErrItemNotFound
	}
	item := s.rec.Items[i]
	if err := applyItemField(&item, field, value); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.rec.Items[i] = item
	s.mu.Unlock()

	s.saver.Touch()
	return &item, nil
}

func (s *InvoiceServiceImpl) RemoveItem(_ context.Context, id string) error {
	s.mu.Lock()
	i := s.rec.ItemIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	s.rec.Items = append(s.rec.Items[:i], s.rec.Items[i+1:]...)
	s.mu.Unlock()

	s.saver.Touch()
	return nil
}

func (s *InvoiceServiceImpl) Save(ctx context.Context) (SaveStatus, error) {
	return s.saver.SaveNow(ctx)
}

func (s *InvoiceServiceImpl) Close(ctx context.Context) error {
	return s.saver.Close(ctx)
}

// mutate applies fn under the lock, schedules a save and returns a copy.
func (s *InvoiceServiceImpl) mutate(fn func(rec *model.InvoiceRecord)) *model.InvoiceRecord {
	s.mu.Lock()
	fn(s.rec)
	out := s.rec.Clone()
	s.mu.Unlock()

	s.saver.Touch()
	return out
}

func applyItemField(item *model.LineItem, field, value string) error {
	switch field {
	case "description":
		item.Description = value
	case "unit":
		item.Unit = value
	case "dimensions":
		item.Dimensions = value
	case "weight":
		item.Weight = model.ParseNumber(value)
	case "cbm":
		item.CBM = model.ParseNumber(value)
		item.Recompute()
	case "qty":
		item.Qty = model.ParseNumber(value)
		item.Recompute()
	case "rate":
		item.Rate = model.ParseNumber(value)
		item.Recompute()
	case "amount":
		item.Amount = model.ParseNumber(value)
		item.AmountOverridden = true
	default:
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return nil
}

// ensureItemIDs assigns fresh ids to rows with a missing or repeated id.
func ensureItemIDs(rec *model.InvoiceRecord) {
	seen := make(map[string]bool, len(rec.Items))
	for i := range rec.Items {
		id := rec.Items[i].ID
		if id == "" || seen[id] {
			id = model.NewItemID()
			rec.Items[i].ID = id
		}
		seen[id] = true
	}
}

// validateDate accepts an empty value (a cleared date input) or YYYY-MM-DD.
func validateDate(v string) error {
	if v == "" {
		return nil
	}
	if _, err := time.Parse(model.DateLayout, v); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, v)
	}
	return nil
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
