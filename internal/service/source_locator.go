package service

import (
	"context"

	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
	"lisa/internal/domain/services"
)

// sourceLocator implements services.SourceLocator
type sourceLocator struct {
	projectRepo repositories.ProjectRepository
}

// NewSourceLocator creates a locator over the project repository
func NewSourceLocator(projectRepo repositories.ProjectRepository) services.SourceLocator {
	return &sourceLocator{projectRepo: projectRepo}
}

// ResolveSources returns one reference per Drive folder in project order.
// Accessibility is checked when the sources are fetched, not here.
func (l *sourceLocator) ResolveSources(ctx context.Context, projectID string) ([]models.SourceRef, error) {
	project, err := l.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	refs := make([]models.SourceRef, len(project.DriveFolderIDs))
	for i, folderID := range project.DriveFolderIDs {
		refs[i] = models.SourceRef{
			Kind:     models.SourceKindDriveFolder,
			FolderID: folderID,
			Position: i,
		}
	}
	return refs, nil
}
