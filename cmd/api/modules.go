package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/marcelsud/webhook-inspector/captures"
	"github.com/marcelsud/webhook-inspector/config"
	"github.com/marcelsud/webhook-inspector/generator"
	"github.com/marcelsud/webhook-inspector/generator/gemini"
	"github.com/marcelsud/webhook-inspector/internal/http/chi"
	"github.com/marcelsud/webhook-inspector/internal/logger"
	"github.com/marcelsud/webhook-inspector/internal/storage"
	"github.com/marcelsud/webhook-inspector/metrics"
	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/marcelsud/webhook-inspector/webhook/redis"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const shutdownTimeout = 30 * time.Second

var configModule = fx.Module("config",
	fx.Provide(config.GetConfig),
	fx.Provide(func(cfg *config.Config) zerolog.Logger {
		return logger.New("webhook-inspector", cfg.LogLevel, cfg.LogFormat)
	}),
)

var storageModule = fx.Module("storage",
	fx.Provide(newRepository),
	fx.Provide(func(repo webhook.Repository) webhook.Reader { return repo }),
	fx.Provide(func(repo webhook.Repository) webhook.Counter { return repo }),
)

var feedModule = fx.Module("feed",
	fx.Provide(newFeed),
	// untyped nil when the feed is disabled, never a nil *redis.Feed
	fx.Provide(func(feed *redis.Feed) webhook.Publisher {
		if feed == nil {
			return nil
		}
		return feed
	}),
	fx.Provide(func(feed *redis.Feed) metrics.FeedLength {
		if feed == nil {
			return nil
		}
		return feed
	}),
)

var metricsModule = fx.Module("metrics",
	fx.Provide(func(counter webhook.Counter, feed metrics.FeedLength) metrics.Collector {
		return metrics.NewStoreCollector(counter, feed)
	}),
	fx.Provide(newExporter),
)

var serviceModule = fx.Module("service",
	fx.Provide(func(repo webhook.Repository, publisher webhook.Publisher, log zerolog.Logger) webhook.UseCase {
		return webhook.NewService(repo, publisher, log)
	}),
	fx.Provide(newGenerator),
	fx.Provide(func(cfg *config.Config, reader webhook.Reader, gen generator.Generator, log zerolog.Logger) generator.UseCase {
		return generator.NewBridge(reader, gen, cfg.GenerationTimeout(), log)
	}),
	fx.Provide(newCaptureLoader),
)

var serverModule = fx.Module("server",
	fx.Invoke(newServer),
)

func newRepository(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) (webhook.Repository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", cfg.StorageDriver).Msg("storage ready")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return repo.Close(ctx)
		},
	})
	return repo, nil
}

func newFeed(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) (*redis.Feed, error) {
	if !cfg.FeedEnabled() {
		log.Info().Msg("REDIS_ADDR not set, live feed disabled")
		return nil, nil
	}

	feed, err := redis.NewFeed(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.FeedStream, cfg.FeedMaxLen)
	if err != nil {
		return nil, err
	}
	log.Info().Str("addr", cfg.RedisAddr).Str("stream", feed.Stream()).Msg("live feed enabled")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return feed.Close(ctx)
		},
	})
	return feed, nil
}

func newExporter(lc fx.Lifecycle, collector metrics.Collector) (*metrics.OTelExporter, error) {
	exporter, err := metrics.NewOTelExporter(collector)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: exporter.Shutdown,
	})
	return exporter, nil
}

func newGenerator(cfg *config.Config, log zerolog.Logger) (generator.Generator, error) {
	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set, /api/generate answers with a placeholder")
		return generator.Static{Text: placeholderSchema}, nil
	}

	gen, err := gemini.New(context.Background(), gemini.Options{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("model", gen.Model()).Msg("gemini generator ready")
	return gen, nil
}

const placeholderSchema = `// GEMINI_API_KEY is not configured, no schema was generated
import { z } from 'zod'

export const webhookSchema = z.unknown()
`

func newCaptureLoader(cfg *config.Config, log zerolog.Logger) (*captures.Loader, error) {
	loader := captures.NewLoader()
	if err := loader.LoadOrDefault(cfg.CapturesFile); err != nil {
		return nil, err
	}
	for _, route := range loader.List() {
		log.Info().Str("path", route.Path).Strs("methods", route.Methods).Int("status", route.StatusCode).Msg("capture route")
	}
	return loader, nil
}

func newServer(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	webhookService webhook.UseCase,
	generatorService generator.UseCase,
	loader *captures.Loader,
	exporter *metrics.OTelExporter,
	log zerolog.Logger,
) {
	router := chi.WebhookHandlers(context.Background(), webhookService, generatorService, loader, chi.Options{
		Logger:       log,
		PageSize:     cfg.PageSize,
		MaxBodyBytes: cfg.CaptureMaxBodyBytes,
		Timeout:      cfg.GenerationTimeout() + 30*time.Second,
		Recorder:     exporter,
		Metrics:      exporter.ServeHTTP(),
	})

	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.GenerationTimeout() + 45*time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Str("addr", srv.Addr).Msg("listening")
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("http server stopped")
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("shutting down server")
			ctxTimeout, stop := context.WithTimeout(ctx, shutdownTimeout)
			defer stop()
			if err := srv.Shutdown(ctxTimeout); err != nil {
				return fmt.Errorf("forcing server close: %w", err)
			}
			return nil
		},
	})
}
