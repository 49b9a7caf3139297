package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"baedal/internal/amqp"
	"baedal/internal/cache"
	"baedal/internal/cli"
	"baedal/internal/config"
	"baedal/internal/core"
	apphttp "baedal/internal/http"
	"baedal/internal/log"
	"baedal/internal/services"
	"baedal/internal/store"
)

func main() {
	cfg, logger, err := cli.Bootstrap(log.ComponentApp)
	if err == nil {
		err = run(cfg, logger)
	}
	if err != nil {
		logger.Error("Server exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext()
	defer stop()

	persistence, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := persistence.Cleanup(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	entries, err := store.Open(ctx, persistence.Persister, store.WithLogger(logger))
	if err != nil {
		return err
	}

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		return err
	}

	summaries := cache.NewLRUCache[any](cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
	opts := []services.ServiceOption{
		services.WithServiceLogger(logger),
		services.WithSummaryCache(summaries),
		services.WithSettingsSaver(func(s core.Settings) error {
			return config.SaveSettings(cfg.SettingsFile, s)
		}),
	}

	// Change notifications are optional; without a broker the backup worker
	// still runs on its timer.
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without notifications", log.FieldError, err)
		} else {
			defer client.Close()
			opts = append(opts, services.WithPublisher(client))
		}
	}
	svc := services.NewLedgerService(entries, settings, opts...)

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(summaries)
	cacheManager.StartCleanup(cfg.SummaryCacheTTL)
	defer cacheManager.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              persistence.Ready,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting baedal server",
			"port", cfg.Port,
			log.FieldBackend, persistence.Type.String(),
			"entries", entries.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
