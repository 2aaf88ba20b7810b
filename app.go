package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"sciencefair-registration/config"
	"sciencefair-registration/db"
	"sciencefair-registration/handlers"
	"sciencefair-registration/metrics"
	"sciencefair-registration/ratelimit"
)

const shutdownTimeout = 10 * time.Second

// app holds the backends built from the configuration.
type app struct {
	store   db.Store
	limiter ratelimit.Limiter
	closers []func() error
	logger  *zap.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{logger: logger}

	var rdb *redis.Client
	var counter db.Counter
	var rs *db.RedisService
	if cfg.Redis.Enabled() {
		var err error
		rdb, err = db.InitializeRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		rs = db.NewRedisService(rdb, cfg.Redis.Prefix, logger)
		counter = rs
	}

	switch cfg.Sheets.Backend {
	case config.BackendMock:
		logger.Warn("using mock sheets store, registrations are not persisted")
		a.store = db.NewMockStore(logger)
	case config.BackendXLSX:
		wb, err := db.OpenWorkbook(cfg.Sheets.WorkbookPath, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, wb.Close)
		a.store = db.NewSheetService(wb, counter, logger)
	case config.BackendGoogle:
		gs, err := db.NewGoogleSheetsStore(ctx, cfg.Sheets.SpreadsheetID, db.GoogleCredentials{
			KeyPath:   cfg.Sheets.ServiceAccountKeyPath,
			KeyBase64: cfg.Sheets.ServiceAccountKeyBase64,
		}, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.store = db.NewSheetService(gs, counter, logger)
	default:
		a.Close()
		return nil, fmt.Errorf("unknown sheets backend %q", cfg.Sheets.Backend)
	}

	if rs != nil {
		a.store = db.NewCachedStore(a.store, rs, cfg.Redis.CacheTTL)
		a.limiter = ratelimit.NewRedisLimiter(rdb, cfg.Redis.Prefix+"ratelimit:", cfg.RateLimit.Max, cfg.RateLimit.Window)
	} else {
		a.limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
	}
	return a, nil
}

// Close releases backends in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("closing backend failed", zap.Error(err))
		}
	}
	a.closers = nil
}

// runServer serves until SIGINT/SIGTERM, then drains for shutdownTimeout.
func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	handler := handlers.NewAPIHandler(a.store, cfg, logger, metrics.New())
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.NewRouter(handler, a.limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server is running",
			zap.String("addr", srv.Addr),
			zap.String("backend", cfg.Sheets.Backend),
			zap.Bool("redis", cfg.Redis.Enabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
