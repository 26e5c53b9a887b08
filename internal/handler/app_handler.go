package handler

import (
	"encoding/json"
	"net/http"

	"github.com/seafreight/backend/internal/model"
)

// AppHandler はフロントエンドの起動時設定を返すハンドラ
type AppHandler struct {
	assistEnabled func() bool
	suggestions   model.Suggestions
}

// NewAppHandler は AppHandler を生成する
func NewAppHandler(assistEnabled func() bool, suggestions model.Suggestions) *AppHandler {
	return &AppHandler{assistEnabled: assistEnabled, suggestions: suggestions}
}

// Config handles GET /api/config. Credentials are never sent to the browser.
func (h *AppHandler) Config(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"assistEnabled": h.assistEnabled()})
}

// Suggestions handles GET /api/suggestions.
func (h *AppHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_ = json.NewEncoder(w).Encode(h.suggestions)
}
