package comments

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spacesedan/threadflow/internal/models"
)

// ListLinkIDs fetches a listing page and returns the ids of its child links
// in the order the API returned them. No dedup is applied.
func (c *Client) ListLinkIDs(ctx context.Context, listingURL string) ([]string, error) {
	u := strings.TrimSuffix(listingURL, "/") + "/.json"

	body, err := c.fetcher.Get(ctx, u, nil)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}

	var listing models.CommentListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	if listing.Data.Children == nil {
		return nil, shapeErrorf("listing %s is missing data.children", u)
	}

	ids := make([]string, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		ids = append(ids, child.Data.ID)
	}
	return ids, nil
}
