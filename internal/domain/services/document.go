package services

import (
	"context"

	"lisa/internal/domain/models"
)

// GenerationEngine admits and runs document generation jobs
type GenerationEngine interface {
	// StartGeneration admits a job and returns the new generating document
	// before any work is done.
	StartGeneration(ctx context.Context, session *models.Session, projectID string, docType models.DocumentType) (*models.Document, error)

	// Regenerate starts a new version of an existing document's type.
	// The original document is never modified.
	Regenerate(ctx context.Context, session *models.Session, projectID, documentID string) (*models.Document, error)

	// Cancel stops an in-flight job; the document ends failed.
	Cancel(ctx context.Context, session *models.Session, projectID, documentID string) (*models.Document, error)
}

// DocumentService is the read side of the pipeline plus the info sheet
type DocumentService interface {
	ListDocuments(ctx context.Context, projectID string, filter models.DocumentFilter) ([]models.Document, error)
	// GetDocument returns domain.ErrNotFound unless the document belongs to the project
	GetDocument(ctx context.Context, projectID, documentID string) (*models.Document, error)

	GetInfoSheet(ctx context.Context, projectID string) (*models.ProjectInfoSheet, error)
	// PutInfoSheet records a manual edit as a new completed version
	PutInfoSheet(ctx context.Context, session *models.Session, projectID, content string) (*models.ProjectInfoSheet, error)
}
