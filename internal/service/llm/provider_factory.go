package llm

import (
	"fmt"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/providers/anthropic"
	"github.com/haowjy/meridian-llm-go/providers/lorem"

	"lisa/internal/config"
)

// ProviderFactory creates LLM provider instances from configuration
type ProviderFactory struct {
	config *config.Config
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config) *ProviderFactory {
	return &ProviderFactory{config: cfg}
}

// GetProvider returns the provider for name.
//
// Supported providers:
//   - "anthropic" - Claude models via Anthropic API
//   - "lorem" - mock provider for development and tests (no API key required)
func (f *ProviderFactory) GetProvider(name string) (llmprovider.Provider, error) {
	switch name {
	case "anthropic":
		if f.config.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
		provider, err := anthropic.NewProvider(f.config.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create Anthropic provider: %w", err)
		}
		return provider, nil

	case "lorem":
		return lorem.NewProvider(), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}

// Configured returns the provider named by LLM_PROVIDER
func (f *ProviderFactory) Configured() (llmprovider.Provider, error) {
	return f.GetProvider(f.config.LLMProvider)
}
