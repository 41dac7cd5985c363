package repositories

import (
	"context"

	"lisa/internal/domain/models"
)

// PromptRepository stores the three prompt layers.
// Getters return domain.ErrNotFound for a layer that was never saved.
type PromptRepository interface {
	GetL0(ctx context.Context) (*models.L0Prompt, error)
	UpsertL0(ctx context.Context, prompt *models.L0Prompt) error

	GetL1(ctx context.Context, groupID string) (*models.L1Prompt, error)
	UpsertL1(ctx context.Context, prompt *models.L1Prompt) error

	GetL2(ctx context.Context, groupID string, docType models.DocumentType) (*models.L2Prompt, error)
	UpsertL2(ctx context.Context, prompt *models.L2Prompt) error
	// ListL2 returns a group's L2 prompts ordered by document_type
	ListL2(ctx context.Context, groupID string) ([]models.L2Prompt, error)
}
