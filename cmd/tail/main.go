package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcelsud/webhook-inspector/config"
	"github.com/marcelsud/webhook-inspector/internal/logger"
	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/marcelsud/webhook-inspector/webhook/redis"
)

// group is shared by every tail process, so concurrent tails split the feed
const group = "tail"

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	log := logger.New("webhook-tail", cfg.LogLevel, cfg.LogFormat)

	if !cfg.FeedEnabled() {
		log.Error().Msg("REDIS_ADDR is not set, there is no feed to follow")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	feed, err := redis.NewFeed(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.FeedStream, cfg.FeedMaxLen)
	if err != nil {
		log.Error().Err(err).Msg("connecting to feed")
		os.Exit(1)
	}
	defer feed.Close(context.Background())

	hostname, _ := os.Hostname()
	consumer := fmt.Sprintf("%s-%d", hostname, os.Getpid())
	log.Info().Str("stream", feed.Stream()).Str("consumer", consumer).Msg("following captures")

	if err := feed.Follow(ctx, group, consumer, printer(os.Stdout)); err != nil {
		log.Error().Err(err).Msg("following feed")
		os.Exit(1)
	}
}

// printer writes one line per capture
func printer(w io.Writer) func(webhook.Summary) error {
	return func(s webhook.Summary) error {
		_, err := fmt.Fprintf(w, "%s  %-7s %s  %s\n",
			s.CreatedAt.Local().Format(time.TimeOnly), s.Method, s.Pathname, s.ID)
		return err
	}
}
