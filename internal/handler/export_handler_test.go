package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/seafreight/backend/internal/model"
)

type mockHTMLRenderer struct {
	renderFunc func(rec *model.InvoiceRecord) (string, error)
}

func (m *mockHTMLRenderer) RenderHTML(rec *model.InvoiceRecord) (string, error) {
	return m.renderFunc(rec)
}

type mockPDFRenderer struct {
	renderFunc func(rec *model.InvoiceRecord, w io.Writer) error
}

func (m *mockPDFRenderer) RenderPDF(rec *model.InvoiceRecord, w io.Writer) error {
	return m.renderFunc(rec, w)
}

// memStorage is an in-memory storage.Storage.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
}

func (m *memStorage) Save(_ context.Context, key string, data io.Reader, _ string) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	return "mem://" + key, nil
}

func (m *memStorage) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[key], nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func fakePDF(rec *model.InvoiceRecord, w io.Writer) error {
	_, err := io.WriteString(w, "%PDF-1.3 "+rec.InvoiceNumber)
	return err
}

func fixedFilename(rec *model.InvoiceRecord) string {
	return rec.InvoiceNumber + ".pdf"
}

func TestExportHandler_Preview(t *testing.T) {
	html := &mockHTMLRenderer{renderFunc: func(rec *model.InvoiceRecord) (string, error) {
		return "<h1>" + rec.InvoiceNumber + "</h1>", nil
	}}
	h := NewExportHandler(newTestInvoiceService(t), html, &mockPDFRenderer{renderFunc: fakePDF}, fixedFilename, nil)

	req := httptest.NewRequest("GET", "/api/invoice/preview", nil)
	rec := httptest.NewRecorder()
	h.Preview(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected content type %q", ct)
	}
	if rec.Body.String() != "<h1>INV-2023-001</h1>" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestExportHandler_PreviewError(t *testing.T) {
	html := &mockHTMLRenderer{renderFunc: func(*model.InvoiceRecord) (string, error) {
		return "", errors.New("template broke")
	}}
	h := NewExportHandler(newTestInvoiceService(t), html, &mockPDFRenderer{renderFunc: fakePDF}, fixedFilename, nil)

	req := httptest.NewRequest("GET", "/api/invoice/preview", nil)
	rec := httptest.NewRecorder()
	h.Preview(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestExportHandler_PDF(t *testing.T) {
	archive := &memStorage{objects: map[string][]byte{}}
	h := NewExportHandler(newTestInvoiceService(t), &mockHTMLRenderer{}, &mockPDFRenderer{renderFunc: fakePDF}, fixedFilename, archive)

	req := httptest.NewRequest("GET", "/api/invoice/pdf", nil)
	rec := httptest.NewRecorder()
	h.PDF(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=INV-2023-001.pdf" {
		t.Errorf("unexpected disposition %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if got := archive.objects["exports/INV-2023-001.pdf"]; !bytes.Equal(got, rec.Body.Bytes()) {
		t.Errorf("archived copy differs: %q", got)
	}
}

func TestExportHandler_PDFArchiveFailureStillDownloads(t *testing.T) {
	archive := &memStorage{objects: map[string][]byte{}, saveErr: errors.New("bucket gone")}
	h := NewExportHandler(newTestInvoiceService(t), &mockHTMLRenderer{}, &mockPDFRenderer{renderFunc: fakePDF}, fixedFilename, archive)

	req := httptest.NewRequest("GET", "/api/invoice/pdf", nil)
	rec := httptest.NewRecorder()
	h.PDF(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestExportHandler_PDFError(t *testing.T) {
	pdf := &mockPDFRenderer{renderFunc: func(*model.InvoiceRecord, io.Writer) error {
		return errors.New("font missing")
	}}
	h := NewExportHandler(newTestInvoiceService(t), &mockHTMLRenderer{}, pdf, fixedFilename, nil)

	req := httptest.NewRequest("GET", "/api/invoice/pdf", nil)
	rec := httptest.NewRecorder()
	h.PDF(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "export_failed" || !strings.Contains(body["message"], "Save as PDF") {
		t.Errorf("unexpected body %v", body)
	}
}
