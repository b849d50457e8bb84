package comments

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/spacesedan/threadflow/internal/models"
)

const (
	// MAX_BACKFILL_IDS caps how many missing children a single morechildren
	// call may request.
	MAX_BACKFILL_IDS = 20

	// The morechildren endpoint answers with a list of jquery update
	// commands; the fresh comment batch is the first call argument of the
	// command at this index.
	morechildrenCommandIdx = 10
	morechildrenArgsIdx    = 3
)

// FillMissing resolves reply references that have no record in comments. It
// requests at most MAX_BACKFILL_IDS missing ids in one POST and returns a
// new map that is the union of comments and the fetched records. Existing
// keys are never overwritten or removed; when nothing is missing, no network
// call is made and comments is returned as-is.
func (c *Client) FillMissing(ctx context.Context, comments models.CommentMap, linkID string) (models.CommentMap, error) {
	missing := missingReplyIDs(comments)
	if len(missing) == 0 {
		return comments, nil
	}
	if len(missing) > MAX_BACKFILL_IDS {
		missing = missing[:MAX_BACKFILL_IDS]
	}

	u := c.baseURL + "/api/morechildren.json"
	params := url.Values{}
	params.Set("children", strings.Join(missing, ","))
	params.Set("link_id", "t3_"+linkID)

	body, err := c.fetcher.Post(ctx, u, params)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}

	fetched, err := parseMoreChildren(u, body)
	if err != nil {
		return nil, err
	}

	out := make(models.CommentMap, len(comments)+len(fetched))
	for id, rec := range comments {
		out[id] = rec
	}
	for i := range fetched {
		node := &fetched[i]
		if node.Body == "" {
			continue
		}
		if _, exists := out[node.ID]; exists {
			continue
		}
		rec, _, err := newRecord(node)
		if err != nil {
			return nil, err
		}
		out[rec.ID] = rec
	}
	return out, nil
}

// missingReplyIDs collects reply references with no record in the map. Order
// follows map iteration and is deliberately unspecified; callers may only
// rely on every returned id being absent from comments.
func missingReplyIDs(comments models.CommentMap) []string {
	seen := make(map[string]struct{})
	var missing []string
	for _, rec := range comments {
		for _, id := range rec.Replies {
			if _, ok := comments[id]; ok {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			missing = append(missing, id)
		}
	}
	return missing
}

// parseMoreChildren digs the comment batch out of the jquery command
// envelope the morechildren endpoint responds with.
func parseMoreChildren(u string, body []byte) ([]models.RawCommentNode, error) {
	var envelope models.MoreChildrenResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	if len(envelope.Jquery) <= morechildrenCommandIdx {
		return nil, shapeErrorf("morechildren: %d jquery commands, want more than %d",
			len(envelope.Jquery), morechildrenCommandIdx)
	}

	var command []json.RawMessage
	if err := json.Unmarshal(envelope.Jquery[morechildrenCommandIdx], &command); err != nil {
		return nil, shapeErrorf("morechildren: command %d: %v", morechildrenCommandIdx, err)
	}
	if len(command) <= morechildrenArgsIdx {
		return nil, shapeErrorf("morechildren: command %d has %d elements, want more than %d",
			morechildrenCommandIdx, len(command), morechildrenArgsIdx)
	}

	var args []json.RawMessage
	if err := json.Unmarshal(command[morechildrenArgsIdx], &args); err != nil {
		return nil, shapeErrorf("morechildren: command %d arguments: %v", morechildrenCommandIdx, err)
	}
	if len(args) == 0 {
		return nil, shapeErrorf("morechildren: command %d has no argument payload", morechildrenCommandIdx)
	}

	var things []models.Thing
	if err := json.Unmarshal(args[0], &things); err != nil {
		return nil, shapeErrorf("morechildren: comment batch: %v", err)
	}

	nodes := make([]models.RawCommentNode, 0, len(things))
	for _, thing := range things {
		nodes = append(nodes, thing.Data)
	}
	return nodes, nil
}
