package converter

import (
	"context"
	"fmt"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
)

// htmlConverter sanitizes HTML and converts it to markdown.
// Google Docs exports arrive here as text/html.
type htmlConverter struct {
	policy    *bluemonday.Policy
	converter *md.Converter
}

// NewHTMLConverter creates an HTML to markdown converter
func NewHTMLConverter() Converter {
	// UGC keeps headings, lists, tables and links; scripts, styles and
	// event handlers are stripped before conversion.
	policy := bluemonday.UGCPolicy()

	return &htmlConverter{
		policy:    policy,
		converter: md.NewConverter("", true, nil),
	}
}

func (c *htmlConverter) Convert(ctx context.Context, input []byte) (string, error) {
	sanitized := c.policy.SanitizeBytes(input)

	markdown, err := c.converter.ConvertBytes(sanitized)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return string(markdown), nil
}

func (c *htmlConverter) MimeTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (c *htmlConverter) Name() string {
	return "html"
}
