package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// StaticConfig holds configuration for the StaticHandler.
type StaticConfig struct {
	// Dir is the built frontend (vite dist). Corresponds to STATIC_DIR.
	Dir string
}

// StaticHandler serves the single-page frontend. Paths that do not name a file
// get index.html so client-side routes work on reload.
type StaticHandler struct {
	cfg   StaticConfig
	files http.Handler
}

// NewStaticHandler creates a StaticHandler with the given configuration.
func NewStaticHandler(cfg StaticConfig) *StaticHandler {
	return &StaticHandler{cfg: cfg, files: http.FileServer(http.Dir(cfg.Dir))}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not_found"})
		return
	}

	clean := path.Clean("/" + r.URL.Path)
	if clean != "/" {
		info, err := os.Stat(filepath.Join(h.cfg.Dir, filepath.FromSlash(clean)))
		if err == nil && !info.IsDir() {
			h.files.ServeHTTP(w, r)
			return
		}
	}
	h.serveIndex(w, r)
}

func (h *StaticHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	indexPath := filepath.Join(h.cfg.Dir, "index.html")
	data, err := os.ReadFile(indexPath)
	if err != nil {
		slog.Error("failed to read index.html", "error", err, "path", indexPath)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(data)
}
