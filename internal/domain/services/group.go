package services

import (
	"context"

	"lisa/internal/domain/models"
)

// CreateGroupRequest represents a request to create a group
type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Admins      []string `json:"admins"`
}

// UpdateGroupRequest replaces the provided fields; nil fields are left unchanged
type UpdateGroupRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Admins      *[]string `json:"admins"`

	// ClearDescription sets description to NULL
	ClearDescription bool `json:"-"`
}

// GroupService defines business logic operations for groups
type GroupService interface {
	CreateGroup(ctx context.Context, session *models.Session, req *CreateGroupRequest) (*models.Group, error)
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	UpdateGroup(ctx context.Context, session *models.Session, id string, req *UpdateGroupRequest) (*models.Group, error)
	// DeleteGroup cascades to projects, documents and prompts
	DeleteGroup(ctx context.Context, session *models.Session, id string) error
}
