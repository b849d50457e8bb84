package comments

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spacesedan/threadflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threadResponse builds the two-element array the comments endpoint answers
// with: the post's own listing followed by the comment listing.
func threadResponse(t *testing.T, roots ...models.RawCommentNode) []byte {
	t.Helper()

	things := make([]models.Thing, 0, len(roots))
	for _, root := range roots {
		things = append(things, models.Thing{Kind: "t1", Data: root})
	}

	postListing := models.CommentListing{Kind: "Listing"}
	commentListing := models.CommentListing{
		Kind: "Listing",
		Data: models.ListingData{Children: things},
	}

	body, err := json.Marshal([]any{postListing, commentListing})
	require.NoError(t, err)
	return body
}

func listingResponse(t *testing.T, ids ...string) []byte {
	t.Helper()

	children := make([]models.Thing, 0, len(ids))
	for _, id := range ids {
		children = append(children, models.Thing{Kind: "t3", Data: models.RawCommentNode{ID: id}})
	}

	body, err := json.Marshal(models.CommentListing{
		Kind: "Listing",
		Data: models.ListingData{Children: children},
	})
	require.NoError(t, err)
	return body
}

func TestListLinkIDs(t *testing.T) {
	fetcher := &fakeFetcher{
		getResponses: map[string][]byte{
			"https://www.reddit.com/r/golang/.json": listingResponse(t, "l1", "l2", "l3", "l1"),
		},
	}
	client := NewClient(fetcher, "https://www.reddit.com")

	ids, err := client.ListLinkIDs(context.Background(), "https://www.reddit.com/r/golang")
	require.NoError(t, err)

	// API order preserved, duplicates kept.
	assert.Equal(t, []string{"l1", "l2", "l3", "l1"}, ids)
}

func TestListLinkIDsMissingChildren(t *testing.T) {
	fetcher := &fakeFetcher{
		getResponses: map[string][]byte{
			"https://www.reddit.com/r/golang/.json": []byte(`{"kind": "Listing", "data": {}}`),
		},
	}
	client := NewClient(fetcher, "https://www.reddit.com")

	_, err := client.ListLinkIDs(context.Background(), "https://www.reddit.com/r/golang")
	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
}

func TestListLinkIDsFetchFailure(t *testing.T) {
	wrapped := errors.New("boom")
	fetcher := &fakeFetcher{getErr: wrapped}
	client := NewClient(fetcher, "https://www.reddit.com")

	_, err := client.ListLinkIDs(context.Background(), "https://www.reddit.com/r/golang")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, wrapped)
}

func TestListLinkIDsUndecodableBody(t *testing.T) {
	fetcher := &fakeFetcher{
		getResponses: map[string][]byte{
			"https://www.reddit.com/r/golang/.json": []byte(`<html>rate limited</html>`),
		},
	}
	client := NewClient(fetcher, "https://www.reddit.com")

	_, err := client.ListLinkIDs(context.Background(), "https://www.reddit.com/r/golang")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
}

func TestFetchCommentThreads(t *testing.T) {
	root := testNode(t, "a", "t3_l1", "hi", 1, 0, "u1",
		testNode(t, "b", "t1_a", "nested", 0, 0, "u2"),
	)

	fetcher := &fakeFetcher{
		getResponses: map[string][]byte{
			"https://www.reddit.com/comments/l1/.json": threadResponse(t, root),
		},
	}
	client := NewClient(fetcher, "https://www.reddit.com")

	roots, err := client.FetchCommentThreads(context.Background(), "l1")
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "a", roots[0].ID)
	assert.NotEmpty(t, roots[0].Replies, "raw replies must survive the fetch")
}

func TestFetchCommentThreadsShortResponse(t *testing.T) {
	fetcher := &fakeFetcher{
		getResponses: map[string][]byte{
			"https://www.reddit.com/comments/l1/.json": []byte(`[{"kind": "Listing"}]`),
		},
	}
	client := NewClient(fetcher, "https://www.reddit.com")

	_, err := client.FetchCommentThreads(context.Background(), "l1")
	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
}

func TestFetchCommentThreadsUndecodableBody(t *testing.T) {
	fetcher := &fakeFetcher{
		getResponses: map[string][]byte{
			"https://www.reddit.com/comments/l1/.json": []byte(`{"kind": "Listing"}`),
		},
	}
	client := NewClient(fetcher, "https://www.reddit.com")

	_, err := client.FetchCommentThreads(context.Background(), "l1")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
}

func TestAllComments(t *testing.T) {
	first := testNode(t, "a", "t3_l1", "hi", 1, 0, "u1",
		testNode(t, "b", "t1_a", "", 0, 0, "u2"),
		testNode(t, "c", "t1_a", "reply", 0, 0, "u3"),
	)
	second := testNode(t, "d", "t3_l1", "other thread", 2, 0, "u4")

	fetcher := &fakeFetcher{
		getResponses: map[string][]byte{
			"https://www.reddit.com/comments/l1/.json": threadResponse(t, first, second),
		},
	}
	client := NewClient(fetcher, "https://www.reddit.com")

	out, err := client.AllComments(context.Background(), "l1")
	require.NoError(t, err)

	assert.Len(t, out, 3)
	assert.Equal(t, []string{"b", "c"}, out["a"].Replies)
	assert.NotContains(t, out, "b")
	assert.Contains(t, out, "d")
}
