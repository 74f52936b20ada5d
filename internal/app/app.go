package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rentstack/assettrack-backend/internal/adapter/postgres"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/audit"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/detection"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/item"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/movement"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/product"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/tag"
	"github.com/rentstack/assettrack-backend/internal/auth"
	"github.com/rentstack/assettrack-backend/internal/config"
	"github.com/rentstack/assettrack-backend/internal/service/inventory"
	"github.com/rentstack/assettrack-backend/internal/service/rfid"
	"github.com/rentstack/assettrack-backend/internal/transport/middleware"
	"github.com/rentstack/assettrack-backend/internal/transport/rest"
	"github.com/rentstack/assettrack-backend/migrations"
)

// Run is the application entry point. It loads configuration, connects to
// the database, applies migrations, wires repositories, services, and the
// HTTP transport, then serves until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	if err := postgres.Migrate(ctx, cfg.Database.DSN, migrations.FS); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	// Repositories.
	itemRepo := item.New(pool)
	movementRepo := movement.New(pool)
	tagRepo := tag.New(pool)
	detectionRepo := detection.New(pool)
	productRepo := product.New(pool)
	auditRepo := audit.New(pool)
	txManager := postgres.NewTxManager(pool)

	// Services.
	inventorySvc := inventory.NewService(logger, itemRepo, movementRepo, tagRepo, auditRepo, txManager, cfg.Inventory)
	rfidSvc := rfid.NewService(logger, tagRepo, detectionRepo, itemRepo, auditRepo, txManager, cfg.RFID)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)

	rateLimiter := middleware.NewRateLimiter(time.Minute)
	defer rateLimiter.Stop()

	router := rest.NewRouter(rest.RouterDeps{
		Health:              rest.NewHealthHandler(pool, BuildVersion()),
		Inventory:           rest.NewInventoryHandler(inventorySvc, logger),
		RFID:                rest.NewRFIDHandler(rfidSvc, logger),
		Products:            rest.NewProductsHandler(productRepo, logger),
		RateLimiter:         rateLimiter,
		IngestRatePerMinute: cfg.RFID.IngestRatePerMinute,
	})

	handler := middleware.Chain(
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
		middleware.Auth(jwtManager),
	)(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("stopped")
	return nil
}
