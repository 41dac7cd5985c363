package services

import (
	"context"

	"lisa/internal/domain/models"
)

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	GroupID        string               `json:"-"`
	Name           string               `json:"name"`
	Status         models.ProjectStatus `json:"status"`
	Tags           []string             `json:"tags"`
	DriveFolderIDs []string             `json:"google_drive_folder_ids"`
}

// UpdateProjectRequest is a partial update; nil fields are left unchanged
type UpdateProjectRequest struct {
	Name           *string               `json:"name"`
	Status         *models.ProjectStatus `json:"status"`
	Tags           *[]string             `json:"tags"`
	DriveFolderIDs *[]string             `json:"google_drive_folder_ids"`
}

// ProjectService defines business logic operations for projects
type ProjectService interface {
	CreateProject(ctx context.Context, session *models.Session, req *CreateProjectRequest) (*models.Project, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	// ListProjects lists a group's projects, optionally filtered by status
	ListProjects(ctx context.Context, groupID string, status *models.ProjectStatus) ([]models.Project, error)
	UpdateProject(ctx context.Context, session *models.Session, id string, req *UpdateProjectRequest) (*models.Project, error)
	// DeleteProject removes the project and its documents
	DeleteProject(ctx context.Context, session *models.Session, id string) error
}
