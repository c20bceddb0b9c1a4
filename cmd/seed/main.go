package main

import (
	"context"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/marcelsud/webhook-inspector/config"
	"github.com/marcelsud/webhook-inspector/internal/logger"
	"github.com/marcelsud/webhook-inspector/internal/storage"
)

const total = 60

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New("webhook-seed", cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo, err := storage.OpenDurable(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("opening storage")
		os.Exit(1)
	}
	defer repo.Close(ctx)

	if err := repo.Clear(ctx); err != nil {
		log.Error().Err(err).Msg("clearing webhooks")
		os.Exit(1)
	}

	samples, err := stripeEvents(gofakeit.New(0), total, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("building samples")
		os.Exit(1)
	}
	for _, wh := range samples {
		if _, err := repo.Insert(ctx, wh); err != nil {
			log.Error().Err(err).Str("webhook_id", wh.ID).Msg("inserting webhook")
			os.Exit(1)
		}
	}

	log.Info().Int("count", len(samples)).Str("driver", cfg.StorageDriver).Msg("seed inserted webhooks")
}
