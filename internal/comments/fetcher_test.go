package comments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"testing"

	"github.com/spacesedan/threadflow/internal/models"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned bodies and records every call so tests can
// assert on exactly which requests the core issued.
type fakeFetcher struct {
	getResponses map[string][]byte
	getErr       error
	postResponse []byte
	postErr      error

	getURLs    []string
	postURLs   []string
	postParams []url.Values
}

func (f *fakeFetcher) Get(_ context.Context, rawURL string, _ url.Values) ([]byte, error) {
	f.getURLs = append(f.getURLs, rawURL)
	if f.getErr != nil {
		return nil, f.getErr
	}
	body, ok := f.getResponses[rawURL]
	if !ok {
		return nil, fmt.Errorf("no stubbed response for %s", rawURL)
	}
	return body, nil
}

func (f *fakeFetcher) Post(_ context.Context, rawURL string, params url.Values) ([]byte, error) {
	f.postURLs = append(f.postURLs, rawURL)
	f.postParams = append(f.postParams, params)
	if f.postErr != nil {
		return nil, f.postErr
	}
	return f.postResponse, nil
}

// testNode builds an API-shaped comment node, nesting children inside a
// marshaled replies listing the way the live API does. Leaves get the
// API's empty-string replies.
func testNode(t *testing.T, id, parentID, body string, ups, downs int, author string, children ...models.RawCommentNode) models.RawCommentNode {
	t.Helper()

	node := models.RawCommentNode{
		ID:       id,
		ParentID: parentID,
		Body:     body,
		Ups:      ups,
		Downs:    downs,
		Author:   author,
	}

	if len(children) == 0 {
		node.Replies = json.RawMessage(`""`)
		return node
	}

	things := make([]models.Thing, 0, len(children))
	for _, child := range children {
		things = append(things, models.Thing{Kind: "t1", Data: child})
	}
	raw, err := json.Marshal(models.CommentListing{
		Kind: "Listing",
		Data: models.ListingData{Children: things},
	})
	require.NoError(t, err)
	node.Replies = raw
	return node
}

// moreChildrenEnvelope wraps a comment batch in the jquery command envelope
// the morechildren endpoint responds with: filler commands up to index 10,
// then the command whose args carry the batch.
func moreChildrenEnvelope(t *testing.T, things []models.Thing) []byte {
	t.Helper()

	batch, err := json.Marshal(things)
	require.NoError(t, err)

	commands := make([]any, 0, 11)
	for i := 0; i < 10; i++ {
		commands = append(commands, []any{i, i + 1, "attr", "find"})
	}
	commands = append(commands, []any{10, 11, "call", []any{json.RawMessage(batch)}})

	envelope, err := json.Marshal(map[string]any{"jquery": commands})
	require.NoError(t, err)
	return envelope
}
