package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rgoodwin/tasktally/internal/archive"
	"github.com/rgoodwin/tasktally/internal/config"
	"github.com/rgoodwin/tasktally/internal/database"
	"github.com/rgoodwin/tasktally/internal/dates"
	"github.com/rgoodwin/tasktally/internal/logging"
	"github.com/rgoodwin/tasktally/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	clock, err := dates.NewClock(cfg.TimeZone)
	if err != nil {
		log.Fatalf("invalid time zone %q: %v", cfg.TimeZone, err)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	archiveCfg := archive.Config{
		Endpoint:      cfg.Snapshot.S3Endpoint,
		Bucket:        cfg.Snapshot.S3Bucket,
		Region:        cfg.Snapshot.S3Region,
		AccessKey:     cfg.Snapshot.S3AccessKey,
		SecretKey:     cfg.Snapshot.S3SecretKey,
		Passphrase:    cfg.Snapshot.Passphrase,
		RetentionDays: cfg.Snapshot.RetentionDays,
		DBPath:        cfg.DBPath,
	}

	srv := server.New(db, clock, archiveCfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Hourly housekeeping: expire rate-limit windows, enforce snapshot retention
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
				if err := srv.ArchiveManager().Cleanup(ctx); err != nil {
					logger.Warn("snapshot cleanup", "error", err)
				}
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("tasktally listening", "port", cfg.Port, "db", cfg.DBPath, "tz", cfg.TimeZone)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
