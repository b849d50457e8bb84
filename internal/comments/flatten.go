package comments

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/spacesedan/threadflow/internal/models"
)

// Flatten walks each root's comment tree in pre-order and indexes every
// surviving node by id. Pure transformation, no I/O.
//
// A node's reply ids are captured from the raw replies field before the
// empty-body filter runs, so a replies list may reference a child that never
// makes it into the map. Empty-body nodes (how the API renders deleted
// comments) are dropped from the map, but their subtrees are still visited.
// Weird, but we get empty comments in the output otherwise.
func Flatten(roots []models.RawCommentNode) (models.CommentMap, error) {
	out := make(models.CommentMap)
	for i := range roots {
		if err := flattenInto(out, &roots[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func flattenInto(out models.CommentMap, node *models.RawCommentNode) error {
	rec, children, err := newRecord(node)
	if err != nil {
		return err
	}

	if node.Body != "" {
		out[rec.ID] = rec
	}

	for i := range children {
		if err := flattenInto(out, &children[i]); err != nil {
			return err
		}
	}
	return nil
}

// newRecord projects a raw node down to its CommentRecord, returning the raw
// children alongside so traversal can continue after the replies field has
// been discarded.
func newRecord(node *models.RawCommentNode) (models.CommentRecord, []models.RawCommentNode, error) {
	children, err := rawChildren(node)
	if err != nil {
		return models.CommentRecord{}, nil, err
	}

	rec := models.CommentRecord{
		ID:      node.ID,
		Parent:  parentCommentID(node.ParentID),
		Replies: make([]string, 0, len(children)),
		Body:    node.Body,
		Ups:     node.Ups,
		Downs:   node.Downs,
		Author:  node.Author,
	}
	for i := range children {
		rec.Replies = append(rec.Replies, children[i].ID)
	}
	return rec, children, nil
}

// parentCommentID extracts the comment id from a "<kind>_<id>" fullname.
// Only t1 (comment) parents count; anything else means the node sits
// directly under the link.
func parentCommentID(fullname string) string {
	kind, id, ok := strings.Cut(fullname, "_")
	if !ok || kind != "t1" {
		return ""
	}
	return id
}

// rawChildren decodes a node's replies field. The API sends "" (or omits the
// field entirely) for leaves and a nested listing object otherwise.
func rawChildren(node *models.RawCommentNode) ([]models.RawCommentNode, error) {
	raw := bytes.TrimSpace(node.Replies)
	if len(raw) == 0 || bytes.Equal(raw, []byte(`""`)) || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] != '{' {
		return nil, shapeErrorf("comment %s: replies is neither empty nor a listing", node.ID)
	}

	var listing models.CommentListing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, shapeErrorf("comment %s: replies listing: %v", node.ID, err)
	}

	children := make([]models.RawCommentNode, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		children = append(children, child.Data)
	}
	return children, nil
}
