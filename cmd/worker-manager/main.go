// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"listing-workers/internal/common/camunda"
	"listing-workers/internal/common/config"
	"listing-workers/internal/common/logger"
	"listing-workers/internal/common/observability"
	"listing-workers/internal/httpapi"
	"listing-workers/internal/mapper"
	"listing-workers/internal/service"
	querylistings "listing-workers/internal/workers/listing/query-listings"
	"listing-workers/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("Starting listing workers", map[string]interface{}{
		"version": cfg.App.Version,
		"source":  cfg.Listings.Source,
	})

	obsOpts := []observability.Option{observability.WithLogger(log)}
	if cfg.Tracing.Enabled {
		obsOpts = append(obsOpts, observability.WithJaeger(cfg.Tracing.JaegerEndpoint, cfg.Tracing.SampleRatio))
	}
	obs := observability.New(cfg.App.Name, obsOpts...)
	defer obs.Shutdown()

	ctx := context.Background()
	checks := map[string]httpapi.HealthCheck{}

	source, closeSource, err := buildSource(ctx, cfg, log, checks)
	if err != nil {
		zapLog.Fatal("listing source failed", zap.Error(err))
	}
	defer closeSource()

	svc := service.New(service.Config{
		SourceName:   cfg.Listings.Source,
		QueryTimeout: config.GetDuration(cfg.Listings.QueryTimeout),
	}, source, mapper.NewListingMapper(), obs, log)

	// --- Zeebe worker ---
	var workers []*camunda.CamundaWorker
	if cfg.Camunda.Enabled {
		var zeebe *camunda.Client
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFromApp(cfg.Camunda))
			return err
		}, 10, 2*time.Second, log, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		checks["zeebe"] = zeebe.HealthCheck

		workerCfg := querylistings.LoadConfig(cfg, loadRegistry(cfg.Registry.Path, log))
		if workerCfg.Enabled {
			handler, err := querylistings.NewHandler(workerCfg, svc, log)
			if err != nil {
				zapLog.Fatal("failed to create query-listings handler", zap.Error(err))
			}
			workers = append(workers, camunda.NewWorker(zeebe.GetClient(), querylistings.TaskType, camunda.WorkerOptions{
				MaxJobsActive: workerCfg.MaxJobsActive,
				Timeout:       workerCfg.Timeout,
			}, handler, log))
		} else {
			log.Info("worker disabled", map[string]interface{}{"taskType": querylistings.TaskType})
		}
	}

	// --- HTTP API, health and metrics ---
	var server *http.Server
	if cfg.HTTP.Enabled {
		server = &http.Server{
			Addr: cfg.HTTP.Address,
			Handler: httpapi.NewRouter(httpapi.Deps{
				Service:            svc,
				Checks:             checks,
				RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
				Logger:             log,
			}),
			ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
			WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout),
		}
		go func() {
			log.Info("HTTP server listening", map[string]interface{}{"address": cfg.HTTP.Address})
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("HTTP server failed", map[string]interface{}{"error": err})
			}
		}()
	}

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received, stopping workers...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Error stopping HTTP server", map[string]interface{}{"error": err})
		}
	}

	log.Info("Listing workers stopped gracefully", nil)
}

// loadRegistry returns nil when no registry is configured or it cannot be
// read; workers then use their built-in schemas.
func loadRegistry(path string, log logger.Logger) *registry.ActivityRegistry {
	if path == "" {
		return nil
	}
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		log.Warn("activity registry unavailable, using built-in schemas", map[string]interface{}{
			"path":  path,
			"error": err,
		})
		return nil
	}
	return reg
}
