package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seafreight/backend/internal/config"
	"github.com/seafreight/backend/internal/handler"
	"github.com/seafreight/backend/internal/logging"
	"github.com/seafreight/backend/internal/model"
	"github.com/seafreight/backend/internal/render"
	"github.com/seafreight/backend/internal/repository"
	"github.com/seafreight/backend/internal/service"
	"github.com/seafreight/backend/internal/storage"
	"github.com/seafreight/backend/pkg/gemini"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("failed to load config", "error", err)
	}

	ctx := context.Background()

	backend, err := repository.OpenBackend(ctx, cfg)
	if err != nil {
		logging.Fatal("failed to open storage", "driver", cfg.StorageDriver, "error", err)
	}
	defer backend.Close()

	store := repository.NewSlotInvoiceStore(backend.Slot, nil)
	invoices := service.NewInvoiceService(ctx, store, service.InvoiceServiceOptions{
		AutosaveDelay: cfg.AutosaveDelay,
	})

	// Gemini 設定（未設定の場合はオフラインのフォールバックのみ）
	geminiClient, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:        cfg.GeminiAPIKey,
		Backend:       cfg.GeminiBackend,
		Model:         cfg.GeminiModel,
		Project:       cfg.GoogleCloudProject,
		Location:      cfg.GoogleCloudLocation,
		RatePerMinute: cfg.AssistRatePerMinute,
	})
	if err != nil {
		slog.Warn("gemini disabled", "error", err)
		geminiClient, _ = gemini.NewClient(ctx, gemini.Config{})
	}
	assist := service.NewAssistService(invoices, service.NewGeminiAssistant(geminiClient, time.Now))

	// 出力した PDF の保存先（EXPORT_ARCHIVE=true の場合のみ）
	var archive storage.Storage
	if cfg.ExportArchive {
		archive = backend.Files
		if archive == nil {
			archive = storage.NewLocalStorage(cfg.StorageDir, "")
		}
	}

	h := handler.New(backend.DB, cfg.FrontendURL)
	invoiceHandler := handler.NewInvoiceHandler(invoices, cfg.LogoMaxDimension)
	assistHandler := handler.NewAssistHandler(assist)
	exportHandler := handler.NewExportHandler(invoices, render.NewHTMLRenderer(), render.NewPDFRenderer(), render.PDFFilename, archive)
	appHandler := handler.NewAppHandler(assist.Enabled, model.DefaultSuggestions())
	staticHandler := handler.NewStaticHandler(handler.StaticConfig{Dir: cfg.StaticDir})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/config", appHandler.Config)
	mux.HandleFunc("GET /api/suggestions", appHandler.Suggestions)

	// 請求書 API
	mux.HandleFunc("GET /api/invoice", invoiceHandler.Get)
	mux.HandleFunc("PUT /api/invoice", invoiceHandler.Replace)
	mux.HandleFunc("PATCH /api/invoice", invoiceHandler.UpdateFields)
	mux.HandleFunc("PATCH /api/invoice/company", invoiceHandler.UpdateCompany)
	mux.HandleFunc("PATCH /api/invoice/customer", invoiceHandler.UpdateCustomer)
	mux.HandleFunc("POST /api/invoice/logo", invoiceHandler.UploadLogo)
	mux.HandleFunc("DELETE /api/invoice/logo", invoiceHandler.DeleteLogo)
	mux.HandleFunc("POST /api/invoice/save", invoiceHandler.Save)
	mux.HandleFunc("GET /api/invoice/status", invoiceHandler.Status)

	// 明細行
	mux.HandleFunc("POST /api/invoice/items", invoiceHandler.AddItem)
	mux.HandleFunc("PATCH /api/invoice/items/{id}", invoiceHandler.UpdateItem)
	mux.HandleFunc("DELETE /api/invoice/items/{id}", invoiceHandler.RemoveItem)

	// 文章補助
	mux.HandleFunc("POST /api/invoice/items/{id}/refine", assistHandler.RefineItem)
	mux.HandleFunc("POST /api/invoice/next-number", assistHandler.NextNumber)

	// プレビュー・PDF
	mux.HandleFunc("GET /api/invoice/preview", exportHandler.Preview)
	mux.HandleFunc("GET /api/invoice/pdf", exportHandler.PDF)

	// SPA (everything else)
	mux.Handle("/", staticHandler)

	rateLimiter := handler.NewRateLimiter(cfg.RateLimitPerMinute)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.RequestLogger(handler.SecurityHeaders(rateLimiter.Middleware(h.CORS(mux)))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// assist calls may take up to the Gemini client timeout
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr, "storage", cfg.StorageDriver, "assist", assist.Enabled())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	// pending edits are flushed before the storage connection closes
	if err := invoices.Close(shutdownCtx); err != nil {
		slog.Error("final save failed", "error", err)
	}
	slog.Info("server stopped")
}
