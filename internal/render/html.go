package render

import (
	"bytes"
	"fmt"
	"html"
	"sort"

	"github.com/russross/blackfriday/v2"
	"github.com/spacesedan/threadflow/internal/models"
)

// HTML renders a flattened comment map as nested HTML. Comment bodies are
// markdown and go through blackfriday; reply references with no record in
// the map (held back by the API or filtered as deleted) render as stubs.
func HTML(comments models.CommentMap) []byte {
	var buf bytes.Buffer

	buf.WriteString("<div class=\"comments\">\n")
	for _, id := range rootIDs(comments) {
		renderComment(&buf, comments, id)
	}
	buf.WriteString("</div>\n")

	return buf.Bytes()
}

// rootIDs returns the ids rendered at the top level: records with no comment
// parent, plus orphans whose parent record is absent from the map. Sorted
// for deterministic output.
func rootIDs(comments models.CommentMap) []string {
	var roots []string
	for id, record := range comments {
		if record.Parent == "" {
			roots = append(roots, id)
			continue
		}
		if _, ok := comments[record.Parent]; !ok {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

func renderComment(buf *bytes.Buffer, comments models.CommentMap, id string) {
	record, ok := comments[id]
	if !ok {
		fmt.Fprintf(buf, "<div class=\"comment-stub\" data-id=\"%s\">load more comments</div>\n",
			html.EscapeString(id))
		return
	}

	fmt.Fprintf(buf, "<div class=\"comment\" id=\"comment-%s\">\n", html.EscapeString(record.ID))
	fmt.Fprintf(buf, "<div class=\"comment-meta\">%s (+%d/-%d)</div>\n",
		html.EscapeString(record.Author), record.Ups, record.Downs)
	buf.WriteString("<div class=\"comment-body\">\n")
	buf.Write(blackfriday.Run([]byte(record.Body), blackfriday.WithNoExtensions()))
	buf.WriteString("</div>\n")

	if len(record.Replies) > 0 {
		buf.WriteString("<div class=\"comment-replies\">\n")
		for _, child := range record.Replies {
			renderComment(buf, comments, child)
		}
		buf.WriteString("</div>\n")
	}

	buf.WriteString("</div>\n")
}
