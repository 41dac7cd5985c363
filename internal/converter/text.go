package converter

import (
	"context"
	"strings"
	"unicode/utf8"
)

// textConverter passes plain text, markdown and CSV through unchanged.
type textConverter struct{}

// NewTextConverter creates a passthrough converter
func NewTextConverter() Converter {
	return &textConverter{}
}

// Convert drops a UTF-8 BOM and replaces invalid byte sequences
func (c *textConverter) Convert(ctx context.Context, input []byte) (string, error) {
	s := strings.TrimPrefix(string(input), "\ufeff")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\ufffd")
	}
	return s, nil
}

func (c *textConverter) MimeTypes() []string {
	return []string{"text/plain", "text/markdown", "text/x-markdown", "text/csv", "text/tab-separated-values"}
}

func (c *textConverter) Name() string {
	return "plaintext"
}
