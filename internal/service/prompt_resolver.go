package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
	"lisa/internal/domain/services"
)

// PromptLayerSeparator joins the non-empty prompt layers
const PromptLayerSeparator = "\n\n"

// promptResolver implements services.PromptResolver
type promptResolver struct {
	promptRepo repositories.PromptRepository
}

// NewPromptResolver creates a resolver over the prompt repository
func NewPromptResolver(promptRepo repositories.PromptRepository) services.PromptResolver {
	return &promptResolver{promptRepo: promptRepo}
}

// ResolveEffectivePrompt joins L0, L1(group) and L2(group, type) in that
// order, skipping layers that are absent or blank.
func (r *promptResolver) ResolveEffectivePrompt(ctx context.Context, groupID string, docType models.DocumentType) (string, error) {
	layers := make([]string, 0, 3)

	l0, err := r.promptRepo.GetL0(ctx)
	if err := optionalLayer(err, "l0"); err != nil {
		return "", err
	}
	if l0 != nil {
		layers = append(layers, l0.Content)
	}

	l1, err := r.promptRepo.GetL1(ctx, groupID)
	if err := optionalLayer(err, "l1"); err != nil {
		return "", err
	}
	if l1 != nil {
		layers = append(layers, l1.Content)
	}

	l2, err := r.promptRepo.GetL2(ctx, groupID, docType)
	if err := optionalLayer(err, "l2"); err != nil {
		return "", err
	}
	if l2 != nil {
		layers = append(layers, l2.Content)
	}

	present := layers[:0]
	for _, layer := range layers {
		if strings.TrimSpace(layer) != "" {
			present = append(present, layer)
		}
	}
	return strings.Join(present, PromptLayerSeparator), nil
}

// optionalLayer swallows not-found; other storage errors propagate
func optionalLayer(err error, layer string) error {
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("resolve %s prompt: %w", layer, err)
}
