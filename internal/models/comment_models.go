package models

import "encoding/json"

// CommentListing is the envelope the API wraps every collection in.
type CommentListing struct {
	Kind string      `json:"kind"`
	Data ListingData `json:"data"`
}

type ListingData struct {
	After    string  `json:"after"`
	Children []Thing `json:"children"`
}

// Thing is one kind-tagged entry inside a listing ("t1" for comments,
// "t3" for links).
type Thing struct {
	Kind string         `json:"kind"`
	Data RawCommentNode `json:"data"`
}

// RawCommentNode mirrors the API's nested shape for a single comment.
// Replies stays raw because the API sends "" for leaves and a nested
// CommentListing otherwise; callers decode it on demand.
type RawCommentNode struct {
	ID       string          `json:"id"`
	ParentID string          `json:"parent_id"`
	Body     string          `json:"body"`
	Ups      int             `json:"ups"`
	Downs    int             `json:"downs"`
	Author   string          `json:"author"`
	Replies  json.RawMessage `json:"replies,omitempty"`
}

// CommentRecord is the flattened, addressable form of one comment. Parent is
// empty when the raw parent kind is not a comment. Replies holds the ids of
// the node's direct raw children only; an id listed here may have no record
// in the map it came from (the API truncates deep threads, and empty-body
// nodes are filtered while their ids stay referenced).
type CommentRecord struct {
	ID      string   `json:"id"`
	Parent  string   `json:"parent,omitempty"`
	Replies []string `json:"replies"`
	Body    string   `json:"body"`
	Ups     int      `json:"ups"`
	Downs   int      `json:"downs"`
	Author  string   `json:"author"`
}

// CommentMap indexes comment records by id. It is never guaranteed complete.
type CommentMap map[string]CommentRecord

// MoreChildrenResponse is the jquery command envelope returned by the
// morechildren endpoint. Each command is itself a JSON array; the comment
// batch lives at a fixed position inside one of them.
type MoreChildrenResponse struct {
	Jquery []json.RawMessage `json:"jquery"`
}
