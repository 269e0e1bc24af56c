package render

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	sanitize = bluemonday.UGCPolicy()
)

// HTML converts a rendered Markdown document to sanitized HTML
func HTML(document string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(document), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return sanitize.Sanitize(buf.String()), nil
}
