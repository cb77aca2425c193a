package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/avosetta/shelterbook/internal/handler"
	"github.com/avosetta/shelterbook/internal/imagepipe"
	"github.com/avosetta/shelterbook/internal/repository/sqlite"
	"github.com/avosetta/shelterbook/internal/service"
	"github.com/avosetta/shelterbook/internal/storage"
)

func main() {
	logOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, logOpts)))

	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "shelterbook.db")
	storageRoot := envOrDefault("STORAGE_ROOT", "data/images")

	// The pipeline configuration is an explicit value built once here
	// and handed to the constructor; nothing reads it globally.
	cfg := imagepipe.DefaultConfig()
	cfg.MaxReceivedBytes = envBytes("MAX_UPLOAD_BYTES", cfg.MaxReceivedBytes)
	cfg.TargetBytes = envBytes("IMAGE_BUDGET_BYTES", cfg.TargetBytes)
	if cfg.TargetBytes > cfg.MaxReceivedBytes {
		slog.Error("IMAGE_BUDGET_BYTES must not exceed MAX_UPLOAD_BYTES",
			"budget", cfg.TargetBytes, "ceiling", cfg.MaxReceivedBytes)
		os.Exit(1)
	}

	maxPerOwner := int(envBytes("MAX_IMAGES_PER_ANIMAL", 20))
	maxOwnerBytes := envBytes("MAX_BYTES_PER_ANIMAL", 50<<20)

	db, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	files, err := storage.New(storageRoot)
	if err != nil {
		slog.Error("failed to initialize storage root", "error", err)
		os.Exit(1)
	}
	slog.Info("storage root ready", "root", files.Root())

	assets := sqlite.NewImageAssetRepository(db, maxPerOwner, maxOwnerBytes)
	animals := sqlite.NewAnimalRepository(db)
	imageService := service.NewImageService(imagepipe.New(cfg), files, assets, animals)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, imageService)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func envBytes(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil || parsed <= 0 {
		slog.Error("invalid value, expected a positive integer", "key", key, "value", v)
		os.Exit(1)
	}
	return parsed
}
