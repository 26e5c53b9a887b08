package handler

import (
	"encoding/json"
	"net/http"

	"github.com/seafreight/backend/internal/service"
)

// AssistHandler は文章補助の HTTP ハンドラ
type AssistHandler struct {
	assist *service.AssistService
}

// NewAssistHandler は AssistHandler を生成する
func NewAssistHandler(assist *service.AssistService) *AssistHandler {
	return &AssistHandler{assist: assist}
}

// RefineItem handles POST /api/invoice/items/{id}/refine.
func (h *AssistHandler) RefineItem(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	item, err := h.assist.RefineItem(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(item)
}

// NextNumber handles POST /api/invoice/next-number.
func (h *AssistHandler) NextNumber(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	next, err := h.assist.NextNumber(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"invoiceNumber": next})
}
