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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"financas/internal/cache"
	"financas/internal/config"
	apphttp "financas/internal/http"
	"financas/internal/log"
	"financas/internal/notify"
	"financas/internal/service"
	"financas/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.ComponentApp, log.Config{Level: slog.LevelInfo})
	log.SetDefault(logger)

	logger.Info("Starting financas")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional; without it cache invalidation stays instance-local.
	var notifier *notify.Client
	if cfg.AMQPURL != "" {
		notifier, err = notify.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer notifier.Close()
		logger.Info("AMQP change notifications enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	snapshots := cache.NewSnapshotCache(cfg.CacheMaxUsers, cfg.CacheTTL)

	var ledgerNotifier service.Notifier
	if notifier != nil {
		ledgerNotifier = notifier
	}
	ledger := service.NewLedger(repo, snapshots, ledgerNotifier, logger)
	accounts := service.NewAccounts(repo, cfg.SessionTTL, cfg.WebhookDefaultPassword, logger)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, accounts, cfg.SecureCookies)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if notifier != nil {
		g.Go(func() error {
			err := notifier.Run(ctx, func(msg *notify.ChangeMessage) error {
				ledger.Invalidate(msg.UserID)
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	// Periodic housekeeping: expired sessions and stale snapshots.
	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := accounts.SweepSessions(ctx); err != nil {
					logger.Error("Session sweep failed", "error", err)
				}
				if n := snapshots.CleanExpired(); n > 0 {
					logger.Debug("Snapshot cache cleanup", "removed", n)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
