package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/item-service/backend/internal/config"
	"github.com/zhouzirui/item-service/backend/internal/handler"
	"github.com/zhouzirui/item-service/backend/internal/logging"
	"github.com/zhouzirui/item-service/backend/internal/model/item"
	"github.com/zhouzirui/item-service/backend/internal/service/feed"
	"github.com/zhouzirui/item-service/backend/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := start(ctx)
	stop()
	if err != nil {
		log.Fatalf("item service: %v", err)
	}
}

// start builds the service and blocks until ctx is done or the server fails.
// Deferred flushes run before it returns so main can exit non-zero safely.
func start(ctx context.Context) error {
	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Debug("no .env file loaded, using system environment only", zap.Error(envErr))
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		logger.Error("failed to set up telemetry", zap.Error(err))
		return fmt.Errorf("set up telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	store := item.NewMemoryStore(logger.Named("store"))
	hub := feed.NewHub(cfg.Feed.Buffer, logger.Named("feed"))
	defer hub.Close()

	router, err := handler.NewRouter(store, hub, logger)
	if err != nil {
		logger.Error("failed to build router", zap.Error(err))
		return fmt.Errorf("build router: %w", err)
	}

	if err := run(ctx, cfg.Server, router, hub, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		return fmt.Errorf("run server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func run(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, hub *feed.Hub, logger *zap.Logger) error {
	ln, err := net.Listen("tcp", serverCfg.Addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("item service listening", zap.String("addr", ln.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		return serve(gctx, srv, ln, serverCfg.ShutdownTimeout)
	})
	return g.Wait()
}

func serve(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
