package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spacesedan/threadflow/internal/clients"
	"github.com/spacesedan/threadflow/internal/comments"
	"github.com/spacesedan/threadflow/internal/db"
	"github.com/spacesedan/threadflow/internal/models"
	"github.com/spacesedan/threadflow/internal/utils"
)

type CrawlOptions struct {
	// How many FillMissing passes to run after the initial flatten. Each
	// pass resolves at most 20 missing children, so deep threads converge
	// over several passes.
	BackfillPasses int

	UseCache bool
	Publish  bool
	Archive  bool
}

// CrawlLink fetches, flattens and backfills one link's comment tree, then
// pushes the result through whichever sinks are enabled.
func CrawlLink(ctx context.Context, client *comments.Client, linkID string, opts CrawlOptions) (models.CommentMap, error) {
	if opts.UseCache {
		if cached, ok := lookupCachedComments(ctx, linkID); ok {
			return cached, nil
		}
	}

	commentMap, err := client.AllComments(ctx, linkID)
	if err != nil {
		return nil, err
	}

	for pass := 0; pass < opts.BackfillPasses; pass++ {
		before := len(commentMap)
		commentMap, err = client.FillMissing(ctx, commentMap, linkID)
		if err != nil {
			return nil, err
		}
		if len(commentMap) == before {
			break
		}
	}

	slog.Info("[Crawler] Flattened comment tree",
		slog.String("link_id", linkID),
		slog.Int("comments", len(commentMap)))

	if opts.UseCache {
		storeCachedComments(ctx, linkID, commentMap)
	}
	if opts.Publish {
		publishComments(linkID, commentMap)
	}
	if opts.Archive {
		if err := db.StoreCommentBatch(ctx, linkID, recordsOf(commentMap)); err != nil {
			slog.Warn("[Crawler] Failed to archive comments",
				slog.String("link_id", linkID),
				slog.String("error", err.Error()))
		}
	}

	return commentMap, nil
}

// CrawlListing lists link ids from a listing URL and crawls each one,
// skipping links already marked processed when caching is on. The per-link
// maps are unioned into one result.
func CrawlListing(ctx context.Context, client *comments.Client, listingURL string, opts CrawlOptions) (models.CommentMap, error) {
	linkIDs, err := client.ListLinkIDs(ctx, listingURL)
	if err != nil {
		return nil, err
	}

	result := make(models.CommentMap)
	for _, linkID := range linkIDs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if opts.UseCache && clients.GetValkeyClient().IsLinkProcessed(ctx, linkID) {
			slog.Info("[Crawler] Skipping already processed link",
				slog.String("link_id", linkID))
			continue
		}

		commentMap, err := CrawlLink(ctx, client, linkID, opts)
		if err != nil {
			return nil, fmt.Errorf("crawl link %s: %w", linkID, err)
		}
		for id, record := range commentMap {
			result[id] = record
		}
	}
	return result, nil
}

func lookupCachedComments(ctx context.Context, linkID string) (models.CommentMap, bool) {
	data, ok := clients.GetValkeyClient().GetCachedComments(ctx, linkID)
	if !ok {
		return nil, false
	}

	var cached models.CommentMap
	if err := json.Unmarshal(data, &cached); err != nil {
		slog.Warn("[Crawler] Dropping unreadable cache entry",
			slog.String("link_id", linkID),
			slog.String("error", err.Error()))
		return nil, false
	}

	slog.Info("[Crawler] Cache hit",
		slog.String("link_id", linkID),
		slog.Int("comments", len(cached)))
	return cached, true
}

func storeCachedComments(ctx context.Context, linkID string, commentMap models.CommentMap) {
	data, err := json.Marshal(commentMap)
	if err != nil {
		slog.Warn("[Crawler] Failed to encode comments for cache",
			slog.String("link_id", linkID),
			slog.String("error", err.Error()))
		return
	}

	if err := clients.GetValkeyClient().CacheComments(ctx, linkID, data); err != nil {
		slog.Warn("[Crawler] Failed to cache comments",
			slog.String("link_id", linkID),
			slog.String("error", err.Error()))
		return
	}

	if err := clients.GetValkeyClient().MarkLinkProcessed(ctx, linkID); err != nil {
		slog.Warn("[Crawler] Failed to mark link processed",
			slog.String("link_id", linkID),
			slog.String("error", err.Error()))
	}
}

// publishComments pushes records to Kafka in small batches so a huge thread
// does not turn into one giant produce burst.
func publishComments(linkID string, commentMap models.CommentMap) {
	buffer := utils.NewBatchBuffer[models.CommentRecord]()

	flush := func() {
		batch := buffer.GetAndClear()
		if batch == nil {
			return
		}
		if err := clients.PublishCommentBatch(linkID, batch); err != nil {
			slog.Warn("[Crawler] Failed to publish comment batch",
				slog.String("link_id", linkID),
				slog.String("error", err.Error()))
		}
	}

	for _, record := range commentMap {
		buffer.Add(record)
		if buffer.Size() >= utils.BATCH_SIZE {
			flush()
		}
	}
	flush()
}

func recordsOf(commentMap models.CommentMap) []models.CommentRecord {
	records := make([]models.CommentRecord, 0, len(commentMap))
	for _, record := range commentMap {
		records = append(records, record)
	}
	return records
}
