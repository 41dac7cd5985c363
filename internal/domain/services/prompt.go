package services

import (
	"context"

	"lisa/internal/domain/models"
)

// PromptService reads and upserts the L0/L1/L2 prompt layers.
// Getters return domain.ErrNotFound for a layer that was never saved.
type PromptService interface {
	GetL0(ctx context.Context) (*models.L0Prompt, error)
	PutL0(ctx context.Context, session *models.Session, content string) (*models.L0Prompt, error)

	GetL1(ctx context.Context, groupID string) (*models.L1Prompt, error)
	PutL1(ctx context.Context, session *models.Session, groupID, content string) (*models.L1Prompt, error)

	ListL2(ctx context.Context, groupID string) ([]models.L2Prompt, error)
	GetL2(ctx context.Context, groupID string, docType models.DocumentType) (*models.L2Prompt, error)
	PutL2(ctx context.Context, session *models.Session, groupID string, docType models.DocumentType, content string) (*models.L2Prompt, error)
}

// PromptResolver composes the effective prompt for a generation
type PromptResolver interface {
	// ResolveEffectivePrompt joins the non-empty L0, L1 and L2 layers in that
	// order. Missing layers are treated as empty, never as an error.
	ResolveEffectivePrompt(ctx context.Context, groupID string, docType models.DocumentType) (string, error)
}
