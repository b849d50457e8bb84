package render

import (
	"strings"
	"testing"

	"github.com/spacesedan/threadflow/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestHTMLNestsReplies(t *testing.T) {
	comments := models.CommentMap{
		"a": {ID: "a", Replies: []string{"c"}, Body: "top *level*", Ups: 5, Author: "u1"},
		"c": {ID: "c", Parent: "a", Replies: []string{}, Body: "nested", Ups: 1, Author: "u2"},
	}

	out := string(HTML(comments))

	assert.Contains(t, out, `id="comment-a"`)
	assert.Contains(t, out, `id="comment-c"`)
	assert.Contains(t, out, "<em>level</em>", "markdown bodies should be rendered")
	assert.Less(t, strings.Index(out, `id="comment-a"`), strings.Index(out, `id="comment-c"`))
}

func TestHTMLRendersDanglingRepliesAsStubs(t *testing.T) {
	comments := models.CommentMap{
		"a": {ID: "a", Replies: []string{"gone"}, Body: "hi", Author: "u1"},
	}

	out := string(HTML(comments))
	assert.Contains(t, out, `data-id="gone"`)
	assert.Contains(t, out, "load more comments")
}

func TestHTMLOrphansRenderAtTopLevel(t *testing.T) {
	comments := models.CommentMap{
		"c": {ID: "c", Parent: "missing", Replies: []string{}, Body: "orphan", Author: "u2"},
	}

	out := string(HTML(comments))
	assert.Contains(t, out, `id="comment-c"`)
}

func TestHTMLEscapesMetadata(t *testing.T) {
	comments := models.CommentMap{
		"a": {ID: "a", Replies: []string{}, Body: "hi", Author: "<script>alert(1)</script>"},
	}

	out := string(HTML(comments))
	assert.NotContains(t, out, "<script>")
}
