package converter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryConvert(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	tests := []struct {
		name     string
		mimeType string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "plain text passthrough",
			mimeType: "text/plain; charset=utf-8",
			input:    "\ufeffhello\nworld",
			contains: []string{"hello\nworld"},
			excludes: []string{"\ufeff"},
		},
		{
			name:     "csv passthrough",
			mimeType: "text/csv",
			input:    "a,b\n1,2",
			contains: []string{"a,b\n1,2"},
		},
		{
			name:     "html to markdown",
			mimeType: "text/html",
			input:    `<h1>Scope</h1><p>Phase <strong>one</strong></p><script>alert(1)</script>`,
			contains: []string{"# Scope", "**one**"},
			excludes: []string{"alert", "<script>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Convert(ctx, tt.mimeType, []byte(tt.input))
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestRegistryUnsupported(t *testing.T) {
	r := NewRegistry()

	assert.False(t, r.Supports("application/pdf"))
	assert.True(t, r.Supports("TEXT/HTML"))

	_, err := r.Convert(context.Background(), "application/pdf", []byte("%PDF"))
	assert.Error(t, err)
}
