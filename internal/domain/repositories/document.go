package repositories

import (
	"context"
	"time"

	"lisa/internal/domain/models"
)

// DocumentRepository is the storage behind the version ledger.
// Implementations must make Reserve atomic per (project_id, document_type).
type DocumentRepository interface {
	// Reserve inserts doc as the next version for its (project, type).
	// It fails with a *domain.ConflictError if a generating document already
	// exists for that key. On success doc.ID, doc.Version and doc.CreatedAt are set.
	Reserve(ctx context.Context, doc *models.Document) error

	// MaxVersion returns the highest version issued for (project, type), 0 if none
	MaxVersion(ctx context.Context, projectID string, docType models.DocumentType) (int, error)

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// List returns documents matching the filter, newest version first
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error)

	// TopCompleted returns up to limit completed documents for (project, type),
	// highest version first
	TopCompleted(ctx context.Context, projectID string, docType models.DocumentType, limit int) ([]models.Document, error)

	// UpdateProgress raises progress of a generating document.
	// Non-increasing values and terminal documents are ignored.
	UpdateProgress(ctx context.Context, id string, progress int) error

	// Complete transitions a generating document to completed.
	// Returns domain.ErrAlreadyTerminal if the document is not generating.
	Complete(ctx context.Context, id string, result *models.DocumentResult) error

	// Fail transitions a generating document to failed.
	// Returns domain.ErrAlreadyTerminal if the document is not generating.
	Fail(ctx context.Context, id string, reason string, at time.Time) error

	// ListGeneratingBefore returns generating documents created before the cutoff
	ListGeneratingBefore(ctx context.Context, cutoff time.Time) ([]models.Document, error)
}
