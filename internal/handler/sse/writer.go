package sse

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// ErrStreamingUnsupported is returned when the ResponseWriter cannot flush
var ErrStreamingUnsupported = errors.New("streaming unsupported")

// Writer serializes SSE frames onto one response. Safe for concurrent use
// by the event loop and the keep-alive goroutine.
type Writer struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	nextID  int
}

// NewWriter sets the SSE headers and returns a writer for w
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Writer{w: w, flusher: flusher}, nil
}

// WriteEvent writes one event frame with a sequential id
func (s *Writer) WriteEvent(eventType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	return s.writeFrame(strconv.Itoa(s.nextID), eventType, data)
}

// WriteEventID writes one event frame with a caller-chosen id, which a
// reconnecting client echoes back as Last-Event-ID
func (s *Writer) WriteEventID(id, eventType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeFrame(id, eventType, data)
}

func (s *Writer) writeFrame(id, eventType string, data []byte) error {
	var b strings.Builder
	fmt.Fprintf(&b, "id: %s\n", id)
	fmt.Fprintf(&b, "event: %s\n", eventType)
	for _, line := range strings.Split(string(data), "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	if _, err := fmt.Fprint(s.w, b.String()); err != nil {
		return fmt.Errorf("write event failed: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// WriteKeepAlive writes an SSE comment (: keepalive) and flushes
func (s *Writer) WriteKeepAlive() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprint(s.w, ": keepalive\n\n"); err != nil {
		return fmt.Errorf("write keepalive failed: %w", err)
	}
	s.flusher.Flush()
	return nil
}
