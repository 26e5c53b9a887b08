package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/seafreight/backend/internal/model"
	"github.com/seafreight/backend/internal/service"
	"github.com/seafreight/backend/internal/storage"
)

// HTMLRenderer は印刷用 HTML を生成するインターフェース
type HTMLRenderer interface {
	RenderHTML(rec *model.InvoiceRecord) (string, error)
}

// PDFRenderer は PDF を生成するインターフェース
type PDFRenderer interface {
	RenderPDF(rec *model.InvoiceRecord, w io.Writer) error
}

// ExportHandler はプレビューと PDF 出力の HTTP ハンドラ
type ExportHandler struct {
	invoices service.InvoiceService
	html     HTMLRenderer
	pdf      PDFRenderer
	filename func(rec *model.InvoiceRecord) string
	// archive は出力した PDF の保存先。nil の場合は保存しない。
	archive storage.Storage
}

// NewExportHandler は ExportHandler を生成する。archive は nil 可。
func NewExportHandler(invoices service.InvoiceService, html HTMLRenderer, pdf PDFRenderer, filename func(*model.InvoiceRecord) string, archive storage.Storage) *ExportHandler {
	return &ExportHandler{invoices: invoices, html: html, pdf: pdf, filename: filename, archive: archive}
}

// Preview handles GET /api/invoice/preview.
func (h *ExportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	doc, err := h.html.RenderHTML(h.invoices.Get(r.Context()))
	if err != nil {
		slog.Error("preview render failed", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "render_failed"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, doc)
}

// PDF handles GET /api/invoice/pdf.
func (h *ExportHandler) PDF(w http.ResponseWriter, r *http.Request) {
	rec := h.invoices.Get(r.Context())

	var buf bytes.Buffer
	if err := h.pdf.RenderPDF(rec, &buf); err != nil {
		slog.Error("pdf export failed", "error", err, "invoice_number", rec.InvoiceNumber)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "export_failed",
			"message": "Could not generate PDF. Please try using the Print button and selecting 'Save as PDF'.",
		})
		return
	}

	name := h.filename(rec)
	if h.archive != nil {
		h.archivePDF(r.Context(), name, buf.Bytes())
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	_, _ = w.Write(buf.Bytes())
}

// archivePDF stores a copy of the export. Failures are logged only; the
// download still succeeds.
func (h *ExportHandler) archivePDF(ctx context.Context, name string, data []byte) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	key := path.Join("exports", name)
	url, err := h.archive.Save(ctx, key, bytes.NewReader(data), "application/pdf")
	if err != nil {
		slog.Error("pdf archive failed", "error", err, "key", key)
		return
	}
	slog.Info("pdf archived", "key", key, "url", url, "bytes", len(data))
}
