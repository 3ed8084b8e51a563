package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/bqlens/internal/api"
	"github.com/timmy/bqlens/internal/api/middleware"
	"github.com/timmy/bqlens/internal/config"
	"github.com/timmy/bqlens/internal/gcp"
	"github.com/timmy/bqlens/internal/logger"
	"github.com/timmy/bqlens/internal/repository"
	"github.com/timmy/bqlens/internal/service"
	"github.com/timmy/bqlens/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bqlens: %v\n", err)
		os.Exit(1)
	}
}

// run holds the whole lifecycle so deferred cleanup (the log writer flush)
// executes on every exit path, including startup failures.
func run() error {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize logger
	log := logger.NewDefault()
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}

	// Initialize repositories
	sessionRepo := repository.NewSessionRepository(db)
	jobCacheRepo := repository.NewJobCacheRepository(db, cfg.Cache.JobTTL)
	snapshotRepo := repository.NewSnapshotRepository(db)

	ctx := context.Background()

	// Drop stale cache and session rows from previous runs
	if n, err := jobCacheRepo.Purge(ctx); err != nil {
		log.Warnf("Job cache purge failed: %v", err)
	} else if n > 0 {
		log.Infof("Purged %d expired job cache rows", n)
	}
	if n, err := sessionRepo.ClearExpired(ctx); err != nil {
		log.Warnf("Session cleanup failed: %v", err)
	} else if n > 0 {
		log.Infof("Cleared %d expired sessions", n)
	}

	// Initialize Google API collaborators
	oauth := gcp.NewOAuth(cfg.Google.ClientID, cfg.Google.ClientSecret,
		cfg.Google.RedirectURL, cfg.Google.Scopes)
	client := gcp.NewClient(nil)

	// Initialize snapshot storage when a bucket is configured
	var snapshotService *service.SnapshotService
	if cfg.Storage.Bucket != "" {
		objectStorage, err := storage.New(&storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			return fmt.Errorf("initialize snapshot storage: %w", err)
		}
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure snapshot bucket: %w", err)
		}
		snapshotService = service.NewSnapshotService(objectStorage, snapshotRepo)
		log.Infof("Snapshot export enabled: bucket=%s", cfg.Storage.Bucket)
	} else {
		snapshotService = service.NewSnapshotService(nil, snapshotRepo)
		log.Info("Snapshot export disabled, no bucket configured")
	}

	// Initialize services
	planService := service.NewPlanService(client, jobCacheRepo)

	// Setup router
	router := api.SetupRouter(&api.RouterConfig{
		Mode: cfg.Server.Mode,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
		SessionTTL: cfg.Cache.SessionTTL,
		OAuth:      oauth,
		Sessions:   sessionRepo,
		Plans:      planService,
		Snapshots:  snapshotService,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting API server: port=%d, mode=%s", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("start server: %w", err)
	case <-quit:
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("Server exited")
	return nil
}
