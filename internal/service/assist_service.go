package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/seafreight/backend/internal/model"
	"github.com/seafreight/backend/pkg/gemini"
)

// Assistant は文章補助のインターフェース。失敗時は入力をそのまま返し、エラーにはしない。
type Assistant interface {
	Enabled() bool
	RefineDescription(ctx context.Context, text string) string
	NextInvoiceNumber(ctx context.Context, current string) string
}

// GeminiAssistant は Gemini を使う Assistant の実装
type GeminiAssistant struct {
	client gemini.Client
	now    func() time.Time
}

// NewGeminiAssistant は GeminiAssistant を生成する。client が nil でも動作する（オフライン）。
func NewGeminiAssistant(client gemini.Client, now func() time.Time) *GeminiAssistant {
	if now == nil {
		now = time.Now
	}
	return &GeminiAssistant{client: client, now: now}
}

// Enabled reports whether a model is reachable in principle.
func (a *GeminiAssistant) Enabled() bool {
	return a.client != nil && a.client.Configured()
}

const refinePrompt = `You are a logistics and sea freight expert assistant.
Refine the following rough cargo description into a professional line item description suitable for a commercial invoice or shipping manifest.
Keep it concise (under 20 words).

Rough Input: %q

Output only the refined description text.`

const nextNumberPrompt = `You are an invoicing assistant.
The previous invoice number was %q.
Generate the next unique and sequential invoice number.

Rules:
1. If the number contains a year (e.g., 2023, 24), update it to the current year (%d) if necessary.
2. If updating the year, reset the sequence number to 001 or similar, unless the format implies a continuous sequence.
3. If no year change is needed, simply increment the sequence.
4. Maintain the exact same style/format (separators, prefixes).

Output ONLY the new invoice number string.`

func (a *GeminiAssistant) RefineDescription(ctx context.Context, text string) string {
	if !a.Enabled() {
		slog.Warn("assist not configured, keeping description")
		return text
	}
	out, err := a.client.GenerateText(ctx, fmt.Sprintf(refinePrompt, text))
	if err != nil {
		slog.Error("failed to refine description", "error", err)
		return text
	}
	if out = strings.TrimSpace(out); out == "" {
		return text
	}
	return out
}

func (a *GeminiAssistant) NextInvoiceNumber(ctx context.Context, current string) string {
	if !a.Enabled() {
		return NextInvoiceNumberOffline(current)
	}
	out, err := a.client.GenerateText(ctx, fmt.Sprintf(nextNumberPrompt, current, a.now().Year()))
	if err != nil {
		slog.Error("failed to generate invoice number", "error", err)
		return current
	}
	if out = strings.TrimSpace(out); out == "" {
		return current
	}
	return out
}

// NextInvoiceNumberOffline increments the trailing digit run of current,
// left-padded to its original width ("INV-009" -> "INV-010", "A-99" -> "A-100").
// Without trailing digits it appends "-NEXT".
func NextInvoiceNumberOffline(current string) string {
	end := len(current)
	start := end
	for start > 0 && current[start-1] >= '0' && current[start-1] <= '9' {
		start--
	}
	if start == end {
		return current + "-NEXT"
	}
	digits := current[start:end]
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return current + "-NEXT"
	}
	next := n.Add(n, big.NewInt(1)).String()
	if len(next) < len(digits) {
		next = strings.Repeat("0", len(digits)-len(next)) + next
	}
	return current[:start] + next
}

// AssistService は文章補助の結果を編集中レコードに反映する。
// 同じ対象への同時呼び出しは ErrAssistPending で拒否する。
type AssistService struct {
	invoices  InvoiceService
	assistant Assistant

	mu      sync.Mutex
	pending map[string]bool
}

// NewAssistService は AssistService を生成する
func NewAssistService(invoices InvoiceService, assistant Assistant) *AssistService {
	return &AssistService{
		invoices:  invoices,
		assistant: assistant,
		pending:   make(map[string]bool),
	}
}

const invoiceNumberKey = "invoice-number"

// Enabled は外部モデルが設定済みかを返す
func (s *AssistService) Enabled() bool {
	return s.assistant.Enabled()
}

// Pending reports whether a call is outstanding for the given item id.
func (s *AssistService) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending["item:"+id]
}

// RefineItem rewrites the description of one line item.
//
// The call outlives ctx: if the caller goes away the result is still applied
// when it arrives, even if the description was edited meanwhile. A removed
// item is skipped. An empty description is returned unchanged.
func (s *AssistService) RefineItem(ctx context.Context, id string) (*model.LineItem, error) {
	item, err := s.invoices.Item(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Description == "" {
		return item, nil
	}

	key := "item:" + id
	if !s.acquire(key) {
		return nil, ErrAssistPending
	}
	text := item.Description

	done := make(chan *model.LineItem, 1)
	go func() {
		bg := context.WithoutCancel(ctx)
		refined := s.assistant.RefineDescription(bg, text)
		updated, err := s.invoices.UpdateItem(bg, id, "description", refined)
		s.release(key)
		if err != nil {
			slog.Warn("refined description dropped", "item", id, "error", err)
			done <- nil
			return
		}
		done <- updated
	}()

	select {
	case updated := <-done:
		if updated == nil {
			return nil, ErrItemNotFound
		}
		return updated, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// NextNumber replaces the invoice number with its successor and returns it.
// An empty number is left alone.
func (s *AssistService) NextNumber(ctx context.Context) (string, error) {
	current := s.invoices.Get(ctx).InvoiceNumber
	if current == "" {
		return "", nil
	}
	if !s.acquire(invoiceNumberKey) {
		return "", ErrAssistPending
	}

	done := make(chan string, 1)
	go func() {
		bg := context.WithoutCancel(ctx)
		next := s.assistant.NextInvoiceNumber(bg, current)
		if _, err := s.invoices.UpdateFields(bg, model.InvoicePatch{InvoiceNumber: &next}); err != nil {
			slog.Error("failed to apply invoice number", "error", err)
		}
		s.release(invoiceNumberKey)
		done <- next
	}()

	select {
	case next := <-done:
		return next, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *AssistService) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[key] {
		return false
	}
	s.pending[key] = true
	return true
}

func (s *AssistService) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
}
