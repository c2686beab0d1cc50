package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/brieflyhq/briefly/internal/ai"
	"github.com/brieflyhq/briefly/internal/auth"
	"github.com/brieflyhq/briefly/internal/billing"
	"github.com/brieflyhq/briefly/internal/config"
	"github.com/brieflyhq/briefly/internal/database"
	"github.com/brieflyhq/briefly/internal/handlers"
	"github.com/brieflyhq/briefly/internal/paypal"
	"github.com/brieflyhq/briefly/internal/routes"
	"github.com/brieflyhq/briefly/internal/storage"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 0. --- Configuration & Logging ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupLogger(cfg)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. --- Database ---
	db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	briefs := database.NewBriefStore(db)
	responses := database.NewResponseStore(db)
	users := database.NewUserStore(db)

	// 2. --- Billing ---
	catalog, err := billing.DefaultCatalog()
	if err != nil {
		return fmt.Errorf("load plan catalog: %w", err)
	}
	if !cfg.PayPalEnabled() {
		slog.Warn("PayPal credentials are not set; subscription calls will fail")
	}
	if cfg.PayPalWebhookID == "" {
		slog.Warn("PAYPAL_WEBHOOK_ID is not set; webhook signatures are not verified")
	}
	gateway := paypal.New(paypal.Config{
		BaseURL:      cfg.PayPalAPIBase,
		ClientID:     cfg.PayPalClientID,
		ClientSecret: cfg.PayPalClientSecret,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	})
	billingService := billing.NewService(catalog,
		database.NewPlanStore(db), database.NewSubscriptionStore(db), users, gateway,
		billing.Options{
			ReturnURL: cfg.PayPalReturnURL,
			CancelURL: cfg.PayPalCancelURL,
			WebhookID: cfg.PayPalWebhookID,
		})

	// 3. --- Application Setup ---
	tokens := auth.NewTokens(cfg.Secret(), auth.DefaultTTL)
	app := &handlers.Handlers{
		Briefs:    briefs,
		Responses: responses,
		Users:     users,
		Storage:   storage.NewLocal(cfg.StorageDir, cfg.BaseURL),
		Tokens:    tokens,
		Billing:   billingService,
		BaseURL:   cfg.BaseURL,
	}

	// 4. --- AI Service (optional) ---
	if cfg.GeminiAPIKey != "" {
		aiService, err := ai.NewAIService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return fmt.Errorf("init AI service: %w", err)
		}
		defer aiService.Close()
		app.AI = aiService
	} else {
		slog.Info("GEMINI_API_KEY is not set; question suggestions are disabled")
	}

	// --- Router Setup ---
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.SetupRouter(app, tokens, cfg.CORSOrigin),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	// --- Start Server ---
	slog.Info("starting Briefly API server", "port", cfg.Port, "base_url", cfg.BaseURL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server closed")
	return nil
}
