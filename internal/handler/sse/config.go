package sse

import "time"

// Config holds configuration for SSE connections
type Config struct {
	// KeepAliveInterval is how often to send keep-alive comments so proxies
	// do not close an idle stream
	KeepAliveInterval time.Duration

	// PollInterval is how often document state is re-read
	PollInterval time.Duration
}

// DefaultConfig returns the default SSE configuration
func DefaultConfig() *Config {
	return &Config{
		KeepAliveInterval: 10 * time.Second,
		PollInterval:      500 * time.Millisecond,
	}
}
