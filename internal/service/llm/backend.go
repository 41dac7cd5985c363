// Package llm adapts meridian-llm-go providers to the generation backend.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	llmprovider "github.com/haowjy/meridian-llm-go"

	"lisa/internal/domain/services"
)

const blockTypeText = "text"

// Backend implements services.GenerationBackend over one provider
type Backend struct {
	provider     llmprovider.Provider
	defaultModel string
	logger       *slog.Logger
}

// NewBackend creates a backend; defaultModel is used when a request names none
func NewBackend(provider llmprovider.Provider, defaultModel string, logger *slog.Logger) *Backend {
	return &Backend{
		provider:     provider,
		defaultModel: defaultModel,
		logger:       logger.With("component", "llm", "provider", provider.Name().String()),
	}
}

// Generate sends the effective prompt as the system prompt and the rendered
// sources as the single user message.
func (b *Backend) Generate(ctx context.Context, req *services.GenerationRequest) (*services.GenerationResult, error) {
	model := b.pickModel(req.Model)

	params := &llmprovider.RequestParams{}
	if req.Prompt != "" {
		system := req.Prompt
		params.System = &system
	}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		params.MaxTokens = &maxTokens
	}

	userText := BuildUserMessage(req)
	libReq := &llmprovider.GenerateRequest{
		Messages: []llmprovider.Message{{
			Role:   "user",
			Blocks: []*llmprovider.Block{{BlockType: blockTypeText, TextContent: &userText}},
		}},
		Model:  model,
		Params: params,
	}

	resp, err := b.provider.GenerateResponse(ctx, libReq)
	if err != nil {
		return nil, fmt.Errorf("generate with %s: %w", model, err)
	}

	content := collectText(resp.Blocks)
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("generate with %s: empty response (stop reason %q)", model, resp.StopReason)
	}

	b.logger.Info("generation finished",
		"model", resp.Model,
		"document_type", req.DocumentType,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"stop_reason", resp.StopReason,
	)

	return &services.GenerationResult{
		Content:      content,
		Model:        resp.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}, nil
}

// pickModel falls back to the default when the requested model is unset or
// not served by the provider
func (b *Backend) pickModel(requested string) string {
	if requested == "" || requested == b.defaultModel {
		return b.defaultModel
	}
	if !b.provider.SupportsModel(requested) {
		b.logger.Warn("model not supported by provider, using default",
			"requested", requested,
			"default", b.defaultModel,
		)
		return b.defaultModel
	}
	return requested
}

func collectText(blocks []*llmprovider.Block) string {
	var parts []string
	for _, block := range blocks {
		if block == nil || block.BlockType != blockTypeText || block.TextContent == nil {
			continue
		}
		parts = append(parts, *block.TextContent)
	}
	return strings.Join(parts, "")
}
