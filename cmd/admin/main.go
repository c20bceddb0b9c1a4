package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/marcelsud/webhook-inspector/config"
	"github.com/marcelsud/webhook-inspector/internal/storage"
	"github.com/marcelsud/webhook-inspector/webhook"
)

/*
Admin CLI - maintenance operations on the webhook store

	go run ./cmd/admin count
	go run ./cmd/admin clear

Uses the same STORAGE_DRIVER / POSTGRES_* / SQLITE_PATH settings as the API.
Clearing is never reachable over HTTP.
*/

func main() {
	if len(os.Args) != 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Printf("❌ Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, err := storage.OpenDurable(ctx, cfg)
	if err != nil {
		fmt.Printf("❌ Error opening %s storage: %v\n", cfg.StorageDriver, err)
		os.Exit(1)
	}
	defer repo.Close(ctx)

	if err := run(ctx, os.Args[1], repo); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, repo webhook.Repository) error {
	switch command {
	case "count":
		total, err := repo.Count(ctx)
		if err != nil {
			return err
		}
		lastHour, err := repo.CountSince(ctx, time.Now().Add(-time.Hour))
		if err != nil {
			return err
		}
		fmt.Printf("📊 %d webhooks stored, %d in the last hour\n", total, lastHour)
	case "clear":
		total, err := repo.Count(ctx)
		if err != nil {
			return err
		}
		if err := repo.Clear(ctx); err != nil {
			return err
		}
		fmt.Printf("🗑️  Removed %d webhooks\n", total)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func usage() {
	fmt.Println("usage: admin <count|clear>")
}
