package repositories

import (
	"context"

	"lisa/internal/domain/models"
)

// ProjectRepository defines data access operations for projects
type ProjectRepository interface {
	// Create creates a new project and returns it with generated ID and timestamps
	Create(ctx context.Context, project *models.Project) error

	// GetByID retrieves a project by ID
	GetByID(ctx context.Context, id string) (*models.Project, error)

	// ListByGroup retrieves a group's projects, ordered by updated_at DESC.
	// A nil status matches every status.
	ListByGroup(ctx context.Context, groupID string, status *models.ProjectStatus) ([]models.Project, error)

	// Update replaces a project's mutable fields
	Update(ctx context.Context, project *models.Project) error

	// Delete removes a project and its documents
	Delete(ctx context.Context, id string) error
}
