package repositories

import (
	"context"

	"lisa/internal/domain/models"
)

// GroupRepository defines data access operations for groups
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	// List retrieves all groups ordered by name
	List(ctx context.Context) ([]models.Group, error)
	Update(ctx context.Context, group *models.Group) error
	// Delete removes a group together with its projects and prompts
	Delete(ctx context.Context, id string) error
}
