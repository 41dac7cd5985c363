// Package converter turns source file bodies into markdown text for prompts.
package converter

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"sync"
)

// Converter turns one content type into markdown
type Converter interface {
	Convert(ctx context.Context, input []byte) (string, error)
	// MimeTypes lists the media types handled, without parameters
	MimeTypes() []string
	Name() string
}

// Registry routes content by media type. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]Converter
}

// NewRegistry creates a registry with the standard converters registered
func NewRegistry() *Registry {
	r := &Registry{converters: make(map[string]Converter)}
	r.Register(NewTextConverter())
	r.Register(NewHTMLConverter())
	return r
}

// Register associates a converter with its media types, replacing earlier ones
func (r *Registry) Register(c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mt := range c.MimeTypes() {
		r.converters[strings.ToLower(mt)] = c
	}
}

// Supports reports whether a converter exists for mimeType
func (r *Registry) Supports(mimeType string) bool {
	return r.lookup(mimeType) != nil
}

func (r *Registry) lookup(mimeType string) Converter {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = mimeType
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.converters[strings.ToLower(mediaType)]
}

// Convert picks the converter for mimeType and runs it
func (r *Registry) Convert(ctx context.Context, mimeType string, content []byte) (string, error) {
	c := r.lookup(mimeType)
	if c == nil {
		return "", fmt.Errorf("unsupported content type: %s", mimeType)
	}
	return c.Convert(ctx, content)
}
