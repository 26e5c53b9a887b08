package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/seafreight/backend/internal/model"
	"github.com/seafreight/backend/internal/service"
)

// maxRecordBytes bounds a full-record PUT; a logo data URI is the bulk of it.
const maxRecordBytes = 8 << 20

// InvoiceHandler は編集中の請求書の HTTP ハンドラ
type InvoiceHandler struct {
	svc              service.InvoiceService
	logoMaxDimension int
	now              func() time.Time
}

// NewInvoiceHandler は InvoiceHandler を生成する
func NewInvoiceHandler(svc service.InvoiceService, logoMaxDimension int) *InvoiceHandler {
	return &InvoiceHandler{svc: svc, logoMaxDimension: logoMaxDimension, now: time.Now}
}

type invoiceResponse struct {
	Invoice *model.InvoiceRecord `json:"invoice"`
	Totals  model.Totals         `json:"totals"`
	Status  service.SaveStatus   `json:"status"`
}

func (h *InvoiceHandler) writeInvoice(w http.ResponseWriter, rec *model.InvoiceRecord) {
	_ = json.NewEncoder(w).Encode(invoiceResponse{
		Invoice: rec,
		Totals:  model.ComputeTotals(rec.Items),
		Status:  h.svc.Status(),
	})
}

// Get handles GET /api/invoice.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeInvoice(w, h.svc.Get(r.Context()))
}

// Replace handles PUT /api/invoice. The body is reconciled against the default
// template the same way a stored record is.
func (h *InvoiceHandler) Replace(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRecordBytes))
	if err != nil {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "too_large"})
		return
	}
	rec, err := model.DecodeInvoice(body, model.DefaultInvoice(h.now()))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_record"})
		return
	}

	out, err := h.svc.Replace(r.Context(), rec)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeInvoice(w, out)
}

// UpdateFields handles PATCH /api/invoice.
func (h *InvoiceHandler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var patch model.InvoicePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_json"})
		return
	}
	rec, err := h.svc.UpdateFields(r.Context(), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeInvoice(w, rec)
}

// UpdateCompany handles PATCH /api/invoice/company.
func (h *InvoiceHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var patch model.CompanyPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_json"})
		return
	}
	rec, err := h.svc.UpdateCompany(r.Context(), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeInvoice(w, rec)
}

// UpdateCustomer handles PATCH /api/invoice/customer.
func (h *InvoiceHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var patch model.CustomerPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_json"})
		return
	}
	rec, err := h.svc.UpdateCustomer(r.Context(), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeInvoice(w, rec)
}

// UploadLogo handles POST /api/invoice/logo (multipart field "logo").
func (h *InvoiceHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxLogoBytes+(1<<20))
	file, _, err := r.FormFile("logo")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "logo_required"})
		return
	}
	defer file.Close()

	dataURI, err := service.ProcessLogo(file, h.logoMaxDimension)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rec, err := h.svc.SetLogo(r.Context(), dataURI)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeInvoice(w, rec)
}

// DeleteLogo handles DELETE /api/invoice/logo.
func (h *InvoiceHandler) DeleteLogo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	rec, err := h.svc.ClearLogo(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.writeInvoice(w, rec)
}

// AddItem handles POST /api/invoice/items.
func (h *InvoiceHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	item, err := h.svc.AddItem(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(item)
}

// UpdateItem handles PATCH /api/invoice/items/{id} with {"field": ..., "value": ...}.
// value may be a JSON string or number; numbers keep their literal text.
func (h *InvoiceHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req struct {
		Field string          `json:"field"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_json"})
		return
	}
	value, ok := fieldValue(req.Value)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_value"})
		return
	}

	item, err := h.svc.UpdateItem(r.Context(), r.PathValue("id"), req.Field, value)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(item)
}

// RemoveItem handles DELETE /api/invoice/items/{id}.
func (h *InvoiceHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveItem(r.Context(), r.PathValue("id")); err != nil {
		w.Header().Set("Content-Type", "application/json")
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Save handles POST /api/invoice/save: an immediate write.
func (h *InvoiceHandler) Save(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	status, err := h.svc.Save(r.Context())
	if err != nil {
		// the failure is already logged and reflected in the status
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "save_failed", "status": string(status)})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": string(status)})
}

// Status handles GET /api/invoice/status.
func (h *InvoiceHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": string(h.svc.Status())})
}

// fieldValue returns the text of a JSON string or number; null is "".
func fieldValue(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return "", true
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		return n.String(), true
	default:
		return "", false
	}
}

// writeServiceError maps service errors to status codes. The Content-Type
// header must already be set.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, service.ErrItemNotFound):
		status, code = http.StatusNotFound, "item_not_found"
	case errors.Is(err, service.ErrInvalidField):
		status, code = http.StatusBadRequest, "invalid_field"
	case errors.Is(err, service.ErrInvalidCurrency):
		status, code = http.StatusBadRequest, "invalid_currency"
	case errors.Is(err, service.ErrInvalidDate):
		status, code = http.StatusBadRequest, "invalid_date"
	case errors.Is(err, service.ErrInvalidImage):
		status, code = http.StatusBadRequest, "invalid_image"
	case errors.Is(err, service.ErrAssistPending):
		status, code = http.StatusConflict, "assist_pending"
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to send
		return
	default:
		slog.Error("request failed", "error", err)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
