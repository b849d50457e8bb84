package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spacesedan/threadflow/config"
	"github.com/spacesedan/threadflow/internal/clients"
	"github.com/spacesedan/threadflow/internal/comments"
	"github.com/spacesedan/threadflow/internal/db"
	"github.com/spacesedan/threadflow/internal/logging"
	"github.com/spacesedan/threadflow/internal/models"
	"github.com/spacesedan/threadflow/internal/processing"
	"github.com/spacesedan/threadflow/internal/render"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	if err := run(); err != nil {
		slog.Error("Crawl failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	opts := processing.CrawlOptions{
		BackfillPasses: intFromEnv("BACKFILL_PASSES", 1),
		UseCache:       os.Getenv("CACHE_ENABLED") == "true",
		Publish:        os.Getenv("KAFKA_ENABLED") == "true",
		Archive:        os.Getenv("ARCHIVE_ENABLED") == "true",
	}

	if opts.Publish {
		for attempt := 1; ; attempt++ {
			err := clients.InitKafka()
			if err == nil {
				break
			}
			if attempt >= 5 {
				return fmt.Errorf("kafka init: %w", err)
			}

			slog.Warn("Kafka init failed, retrying...", slog.String("error", err.Error()))
			time.Sleep(5 * time.Second)
		}
		defer clients.CloseKafka()
	}
	if opts.UseCache {
		clients.InitValkey()
		defer clients.CloseValkey()
	}
	if opts.Archive {
		db.InitDynamoDB()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := clients.GetRedditClient()
	client := comments.NewClient(fetcher, fetcher.BaseURL)

	result, err := crawl(ctx, client, os.Args[1:], opts)
	if err != nil {
		return err
	}
	return output(result)
}

// crawl takes link ids from the command line, or falls back to listing them
// from LISTING_URL when none are given.
func crawl(ctx context.Context, client *comments.Client, linkIDs []string, opts processing.CrawlOptions) (models.CommentMap, error) {
	if len(linkIDs) == 0 {
		listingURL := os.Getenv("LISTING_URL")
		if listingURL == "" {
			return nil, fmt.Errorf("no link ids given and LISTING_URL is not set")
		}
		return processing.CrawlListing(ctx, client, listingURL, opts)
	}

	result := make(models.CommentMap)
	for _, linkID := range linkIDs {
		commentMap, err := processing.CrawlLink(ctx, client, linkID, opts)
		if err != nil {
			return nil, fmt.Errorf("crawl link %s: %w", linkID, err)
		}
		for id, record := range commentMap {
			result[id] = record
		}
	}
	return result, nil
}

func output(result models.CommentMap) error {
	switch os.Getenv("OUTPUT_FORMAT") {
	case "html":
		_, err := os.Stdout.Write(render.HTML(result))
		return err
	default:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Println(string(data))
		return err
	}
}

func intFromEnv(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}
