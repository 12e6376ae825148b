package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/kasa/internal/config"
	"github.com/MrJamesThe3rd/kasa/internal/database"
	"github.com/MrJamesThe3rd/kasa/internal/events/kafka"
	"github.com/MrJamesThe3rd/kasa/internal/export"
	kasaHttp "github.com/MrJamesThe3rd/kasa/internal/http"
	exportHandler "github.com/MrJamesThe3rd/kasa/internal/http/export"
	"github.com/MrJamesThe3rd/kasa/internal/http/importcsv"
	"github.com/MrJamesThe3rd/kasa/internal/http/middleware"
	receiptHandler "github.com/MrJamesThe3rd/kasa/internal/http/receipt"
	userHandler "github.com/MrJamesThe3rd/kasa/internal/http/user"
	"github.com/MrJamesThe3rd/kasa/internal/importer"
	"github.com/MrJamesThe3rd/kasa/internal/logging"
	"github.com/MrJamesThe3rd/kasa/internal/receipt"
	receiptStore "github.com/MrJamesThe3rd/kasa/internal/receipt/store"
	"github.com/MrJamesThe3rd/kasa/internal/user"
	userStore "github.com/MrJamesThe3rd/kasa/internal/user/store"
)

type eventPublisher interface {
	receipt.Publisher
	Close() error
}

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(cfg.App.Name, cfg.App.LogLevel, cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.ConnectionString(), database.PoolConfig{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	var publisher eventPublisher = kafka.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		slog.Info("publishing receipt events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Warn("failed to close event publisher", "error", err)
		}
	}()

	var (
		userService    = user.NewService(userStore.New(db), cfg.Auth.BcryptCost)
		receiptService = receipt.NewService(receiptStore.New(db), publisher)
		importService  = importer.NewService()
		exportService  = export.NewService(receiptService)
	)

	limiter := middleware.NewIPRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	})
	go limiter.Run(ctx)

	var (
		usersH    = userHandler.NewHandler(userService, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		receiptsH = receiptHandler.NewHandler(receiptService, importService, cfg.Receipt.DefaultWidth, cfg.Receipt.MaxWidth)
		importsH  = importcsv.NewHandler(importService)
		exportsH  = exportHandler.NewHandler(exportService, cfg.Receipt.DefaultWidth, cfg.Receipt.MaxWidth)
	)

	router := kasaHttp.New(usersH, receiptsH, importsH, exportsH, kasaHttp.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Auth:           middleware.Auth(cfg.Auth.JWTSecret, userService),
		RateLimit:      limiter.Middleware,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "addr", srv.Addr, "env", cfg.App.Env)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	return nil
}
