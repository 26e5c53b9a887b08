package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seafreight/backend/internal/model"
	"github.com/seafreight/backend/internal/repository"
	"github.com/seafreight/backend/internal/service"
)

var handlerTestNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// newTestInvoiceService は メモリ上の slot を使う InvoiceService を返す
func newTestInvoiceService(t *testing.T) service.InvoiceService {
	t.Helper()
	store := repository.NewSlotInvoiceStore(repository.NewMemorySlot(), nil)
	svc := service.NewInvoiceService(context.Background(), store, service.InvoiceServiceOptions{
		AutosaveDelay: time.Hour,
		Now:           func() time.Time { return handlerTestNow },
	})
	t.Cleanup(func() { _ = svc.Close(context.Background()) })
	return svc
}

// mockInvoiceService overrides selected InvoiceService methods.
type mockInvoiceService struct {
	service.InvoiceService
	saveFunc func(ctx context.Context) (service.SaveStatus, error)
}

func (m *mockInvoiceService) Save(ctx context.Context) (service.SaveStatus, error) {
	if m.saveFunc != nil {
		return m.saveFunc(ctx)
	}
	return service.StatusSaved, nil
}

type invoiceBody struct {
	Invoice map[string]any `json:"invoice"`
	Totals  struct {
		Subtotal float64 `json:"subtotal"`
		TotalCBM float64 `json:"totalCbm"`
		Total    float64 `json:"total"`
	} `json:"totals"`
	Status string `json:"status"`
}

func decodeInvoiceBody(t *testing.T, rec *httptest.ResponseRecorder) invoiceBody {
	t.Helper()
	var body invoiceBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body["error"]
}

func TestInvoiceHandler_Get(t *testing.T) {
	h := NewInvoiceHandler(newTestInvoiceService(t), 400)
	req := httptest.NewRequest("GET", "/api/invoice", nil)
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeInvoiceBody(t, rec)
	if body.Invoice["invoiceNumber"] != "INV-2023-001" {
		t.Errorf("unexpected invoiceNumber %v", body.Invoice["invoiceNumber"])
	}
	if body.Totals.Subtotal != 2500 {
		t.Errorf("expected subtotal 2500, got %v", body.Totals.Subtotal)
	}
	if body.Status != "saved" {
		t.Errorf("expected status saved, got %q", body.Status)
	}
}

func TestInvoiceHandler_Replace(t *testing.T) {
	svc := newTestInvoiceService(t)
	h := NewInvoiceHandler(svc, 400)
	h.now = func() time.Time { return handlerTestNow }

	payload := `{"invoiceNumber":"INV-2026-010","currency":"GHS","items":[{"id":"a","cbm":"33.2","qty":1,"rate":"abc","amount":150}]}`
	req := httptest.NewRequest("PUT", "/api/invoice", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	h.Replace(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeInvoiceBody(t, rec)
	if body.Totals.Subtotal != 150 || body.Totals.TotalCBM != 33.2 {
		t.Errorf("unexpected totals %+v", body.Totals)
	}
	if body.Status != "modified" {
		t.Errorf("expected status modified, got %q", body.Status)
	}
	got := svc.Get(context.Background())
	if got.Currency != model.CurrencyGHS || got.Company.Name != "Atlantic Sea Freight Ltd" {
		t.Errorf("record not merged over template: %+v", got)
	}
}

func TestInvoiceHandler_ReplaceRejects(t *testing.T) {
	h := NewInvoiceHandler(newTestInvoiceService(t), 400)
	cases := map[string]struct {
		body string
		code string
	}{
		"malformed":    {`{"items": "none"}`, "invalid_record"},
		"not json":     {`nope`, "invalid_record"},
		"bad currency": {`{"currency":"EUR","items":[]}`, "invalid_currency"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("PUT", "/api/invoice", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.Replace(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			if got := decodeError(t, rec); got != tc.code {
				t.Errorf("expected error %q, got %q", tc.code, got)
			}
		})
	}
}

func TestInvoiceHandler_UpdateFields(t *testing.T) {
	h := NewInvoiceHandler(newTestInvoiceService(t), 400)

	req := httptest.NewRequest("PATCH", "/api/invoice", strings.NewReader(`{"invoiceNumber":"INV-7","notes":"Net 30"}`))
	rec := httptest.NewRecorder()
	h.UpdateFields(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeInvoiceBody(t, rec)
	if body.Invoice["invoiceNumber"] != "INV-7" || body.Invoice["notes"] != "Net 30" {
		t.Errorf("patch not applied: %v", body.Invoice)
	}

	req = httptest.NewRequest("PATCH", "/api/invoice", strings.NewReader(`{"currency":"EUR"}`))
	rec = httptest.NewRecorder()
	h.UpdateFields(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	req = httptest.NewRequest("PATCH", "/api/invoice", strings.NewReader(`{`))
	rec = httptest.NewRecorder()
	h.UpdateFields(rec, req)
	if got := decodeError(t, rec); got != "invalid_json" {
		t.Errorf("expected invalid_json, got %q", got)
	}
}

func TestInvoiceHandler_UpdateCompanyAndCustomer(t *testing.T) {
	svc := newTestInvoiceService(t)
	h := NewInvoiceHandler(svc, 400)

	req := httptest.NewRequest("PATCH", "/api/invoice/company", strings.NewReader(`{"phone":"+233 24 000 0000"}`))
	rec := httptest.NewRecorder()
	h.UpdateCompany(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest("PATCH", "/api/invoice/customer", strings.NewReader(`{"name":"Ama Owusu","referenceId":"BKG-55"}`))
	rec = httptest.NewRecorder()
	h.UpdateCustomer(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	got := svc.Get(context.Background())
	if got.Company.Phone != "+233 24 000 0000" || got.Customer.ReferenceID != "BKG-55" {
		t.Errorf("patches not applied: %+v %+v", got.Company, got.Customer)
	}
}

func TestInvoiceHandler_Items(t *testing.T) {
	svc := newTestInvoiceService(t)
	h := NewInvoiceHandler(svc, 400)

	req := httptest.NewRequest("POST", "/api/invoice/items", nil)
	rec := httptest.NewRecorder()
	h.AddItem(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var item model.LineItem
	if err := json.NewDecoder(rec.Body).Decode(&item); err != nil {
		t.Fatalf("decode: %v", err)
	}

	for _, body := range []string{`{"field":"cbm","value":"33.2"}`, `{"field":"rate","value":2500}`} {
		req = httptest.NewRequest("PATCH", "/api/invoice/items/"+item.ID, strings.NewReader(body))
		req.SetPathValue("id", item.ID)
		rec = httptest.NewRecorder()
		h.UpdateItem(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", body, rec.Code)
		}
	}
	var updated model.LineItem
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Amount.Raw() != "83000" {
		t.Errorf("expected amount 83000, got %q", updated.Amount.Raw())
	}

	req = httptest.NewRequest("DELETE", "/api/invoice/items/"+item.ID, nil)
	req.SetPathValue("id", item.ID)
	rec = httptest.NewRecorder()
	h.RemoveItem(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if n := len(svc.Get(context.Background()).Items); n != 1 {
		t.Errorf("expected 1 item left, got %d", n)
	}
}

func TestInvoiceHandler_UpdateItemErrors(t *testing.T) {
	h := NewInvoiceHandler(newTestInvoiceService(t), 400)
	cases := []struct {
		id, body string
		status   int
		code     string
	}{
		{"missing", `{"field":"rate","value":"1"}`, http.StatusNotFound, "item_not_found"},
		{"1", `{"field":"colour","value":"red"}`, http.StatusBadRequest, "invalid_field"},
		{"1", `{"field":"rate","value":{"x":1}}`, http.StatusBadRequest, "invalid_value"},
		{"1", `not json`, http.StatusBadRequest, "invalid_json"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("PATCH", "/api/invoice/items/"+tc.id, strings.NewReader(tc.body))
		req.SetPathValue("id", tc.id)
		rec := httptest.NewRecorder()
		h.UpdateItem(rec, req)
		if rec.Code != tc.status {
			t.Errorf("%s: expected %d, got %d", tc.body, tc.status, rec.Code)
		}
		if got := decodeError(t, rec); got != tc.code {
			t.Errorf("%s: expected %q, got %q", tc.body, tc.code, got)
		}
	}
}

func TestInvoiceHandler_RemoveItemNotFound(t *testing.T) {
	h := NewInvoiceHandler(newTestInvoiceService(t), 400)
	req := httptest.NewRequest("DELETE", "/api/invoice/items/nope", nil)
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()
	h.RemoveItem(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func multipartLogo(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "logo.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write(data)
	if err := mw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestInvoiceHandler_Logo(t *testing.T) {
	svc := newTestInvoiceService(t)
	h := NewInvoiceHandler(svc, 400)

	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	body, ct := multipartLogo(t, "logo", img.Bytes())
	req := httptest.NewRequest("POST", "/api/invoice/logo", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.UploadLogo(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	logo := svc.Get(context.Background()).Company.LogoURL
	if logo == nil || !strings.HasPrefix(*logo, "data:image/png;base64,") {
		t.Fatalf("logo not stored: %v", logo)
	}

	req = httptest.NewRequest("DELETE", "/api/invoice/logo", nil)
	rec = httptest.NewRecorder()
	h.DeleteLogo(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.Get(context.Background()).Company.LogoURL != nil {
		t.Error("logo not cleared")
	}
}

func TestInvoiceHandler_LogoRejects(t *testing.T) {
	h := NewInvoiceHandler(newTestInvoiceService(t), 400)

	body, ct := multipartLogo(t, "logo", []byte("definitely not an image"))
	req := httptest.NewRequest("POST", "/api/invoice/logo", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.UploadLogo(rec, req)
	if got := decodeError(t, rec); rec.Code != http.StatusBadRequest || got != "invalid_image" {
		t.Errorf("expected 400 invalid_image, got %d %q", rec.Code, got)
	}

	body, ct = multipartLogo(t, "image", []byte("x"))
	req = httptest.NewRequest("POST", "/api/invoice/logo", body)
	req.Header.Set("Content-Type", ct)
	rec = httptest.NewRecorder()
	h.UploadLogo(rec, req)
	if got := decodeError(t, rec); got != "logo_required" {
		t.Errorf("expected logo_required, got %q", got)
	}
}

func TestInvoiceHandler_SaveAndStatus(t *testing.T) {
	svc := newTestInvoiceService(t)
	h := NewInvoiceHandler(svc, 400)

	if _, err := svc.AddItem(context.Background()); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/invoice/status", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)
	if !strings.Contains(rec.Body.String(), `"modified"`) {
		t.Errorf("expected modified, got %s", rec.Body.String())
	}

	req = httptest.NewRequest("POST", "/api/invoice/save", nil)
	rec = httptest.NewRecorder()
	h.Save(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"saved"`) {
		t.Errorf("expected 200 saved, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestInvoiceHandler_SaveFailure(t *testing.T) {
	mock := &mockInvoiceService{
		InvoiceService: newTestInvoiceService(t),
		saveFunc: func(ctx context.Context) (service.SaveStatus, error) {
			return service.StatusModified, errors.New("disk full")
		},
	}
	h := NewInvoiceHandler(mock, 400)

	req := httptest.NewRequest("POST", "/api/invoice/save", nil)
	rec := httptest.NewRecorder()
	h.Save(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "save_failed" || body["status"] != "modified" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestFieldValue(t *testing.T) {
	cases := map[string]string{
		`"12."`: "12.",
		`33.2`: "33.2",
		`-4`:   "-4",
		`null`: "",
		`""`:   "",
		`1e3`:  "1e3",
	}
	for in, want := range cases {
		got, ok := fieldValue(json.RawMessage(in))
		if !ok || got != want {
			t.Errorf("fieldValue(%s) = %q, %v; want %q", in, got, ok, want)
		}
	}
	for _, in := range []string{`true`, `[]`, `{}`} {
		if _, ok := fieldValue(json.RawMessage(in)); ok {
			t.Errorf("fieldValue(%s) should fail", in)
		}
	}
}
