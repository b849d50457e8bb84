package comments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spacesedan/threadflow/internal/models"
)

// FetchCommentThreads returns the top-level comment nodes of a link's
// thread, each possibly rooting a subtree of nested replies. The API
// responds with a two-element array: the post's own listing (discarded) and
// the comment listing.
func (c *Client) FetchCommentThreads(ctx context.Context, linkID string) ([]models.RawCommentNode, error) {
	u := fmt.Sprintf("%s/comments/%s/.json", c.baseURL, linkID)

	body, err := c.fetcher.Get(ctx, u, nil)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	if len(elems) < 2 {
		return nil, shapeErrorf("thread %s: got %d top-level elements, want 2", linkID, len(elems))
	}

	var listing models.CommentListing
	if err := json.Unmarshal(elems[1], &listing); err != nil {
		return nil, shapeErrorf("thread %s: comment listing: %v", linkID, err)
	}

	roots := make([]models.RawCommentNode, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		roots = append(roots, child.Data)
	}
	return roots, nil
}

// AllComments fetches a link's comment threads and flattens them into one
// map. Backfilling replies the API held back is a separate, explicit step
// (FillMissing); it is never chained automatically.
func (c *Client) AllComments(ctx context.Context, linkID string) (models.CommentMap, error) {
	roots, err := c.FetchCommentThreads(ctx, linkID)
	if err != nil {
		return nil, err
	}
	return Flatten(roots)
}
