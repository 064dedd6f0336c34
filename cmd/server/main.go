package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/inkframe/eink-renderer/internal/cache"
	"github.com/inkframe/eink-renderer/internal/config"
	"github.com/inkframe/eink-renderer/internal/content"
	"github.com/inkframe/eink-renderer/internal/device"
	"github.com/inkframe/eink-renderer/internal/handlers"
	"github.com/inkframe/eink-renderer/internal/notify"
	"github.com/inkframe/eink-renderer/internal/render"
	"github.com/inkframe/eink-renderer/internal/resource"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	// The self origin is read by every render request; set it before serving.
	resource.InitSelf(cfg.Server.Port, cfg.Server.TLS)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional geocode cache
	var geo content.GeoCache
	if cfg.Redis.Addr != "" {
		geocode := cache.NewGeocode(cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err := geocode.Ping(ctx); err != nil {
			logger.Warn("Geocode cache unreachable, proceeding without it", zap.Error(err))
		} else {
			geo = geocode
			defer geocode.Close()
		}
	}

	// Device registry; sources are constructed eagerly here
	registry, err := device.Load(ctx, cfg.Devices.File, device.Deps{
		Logger:   logger,
		Geo:      geo,
		Backoff:  cfg.Fetch.Backoff,
		Deadline: cfg.Fetch.Deadline,
	})
	if err != nil {
		logger.Fatal("Failed to load device registry", zap.Error(err))
	}
	logger.Info("Devices registered", zap.Strings("ids", registry.IDs()))

	// Headless browser
	renderer, err := render.New(render.Config{
		Width:       cfg.Render.Width,
		Height:      cfg.Render.Height,
		SettleDelay: cfg.Render.SettleDelay,
		Timeout:     cfg.Render.Timeout,
		Grayscale:   cfg.Render.Grayscale,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to start render instance", zap.Error(err))
	}
	defer renderer.Close() //nolint:errcheck

	// Optional render-event publisher
	var notifier *notify.Publisher
	if cfg.AMQP.URL != "" {
		notifier, err = notify.New(notify.Config{
			URL:        cfg.AMQP.URL,
			Exchange:   cfg.AMQP.Exchange,
			RoutingKey: cfg.AMQP.RoutingKey,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect render event publisher", zap.Error(err))
		}
		defer notifier.Close() //nolint:errcheck
	}

	// HTTP server
	mux := http.NewServeMux()
	screenHandler := handlers.NewScreenHandler(registry, renderer, notifier, logger)
	screenHandler.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", zap.Error(err))
			cancel()
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	logger.Info("Server shutdown complete")
}

// newLogger builds a production logger at the configured level.
func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	parsed, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg.Level = parsed
	return cfg.Build()
}
