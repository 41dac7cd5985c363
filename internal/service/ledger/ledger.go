// Package ledger keeps the version history of generated documents per
// (project, document_type).
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
)

// Ledger serializes reservations per key in-process and delegates durable
// atomicity to the repository.
type Ledger struct {
	docRepo repositories.DocumentRepository
	locks   *KeyedMutex
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a ledger over the document repository
func New(docRepo repositories.DocumentRepository, logger *slog.Logger) *Ledger {
	return &Ledger{
		docRepo: docRepo,
		locks:   NewKeyedMutex(),
		logger:  logger.With("component", "ledger"),
		now:     time.Now,
	}
}

// Key identifies one document history
func Key(projectID string, docType models.DocumentType) string {
	return projectID + "/" + string(docType)
}

// NextVersion returns 1 + the highest version issued, or 1
func (l *Ledger) NextVersion(ctx context.Context, projectID string, docType models.DocumentType) (int, error) {
	maxVersion, err := l.docRepo.MaxVersion(ctx, projectID, docType)
	if err != nil {
		return 0, fmt.Errorf("next version for %s: %w", Key(projectID, docType), err)
	}
	return maxVersion + 1, nil
}

// Lock holds the in-process lock for a key. Callers that check
// preconditions before Reserve take it first and pass the held key to Reserve.
func (l *Ledger) Lock(projectID string, docType models.DocumentType) func() {
	return l.locks.Lock(Key(projectID, docType))
}

// Reserve records a new generating document as the next version. The caller
// must hold Lock for the document's key.
func (l *Ledger) Reserve(ctx context.Context, projectID string, docType models.DocumentType, createdBy string) (*models.Document, error) {
	progress := 0
	doc := &models.Document{
		ProjectID:    projectID,
		DocumentType: docType,
		Status:       models.DocumentStatusGenerating,
		Progress:     &progress,
		CreatedBy:    createdBy,
		CreatedAt:    l.now(),
	}
	if err := l.docRepo.Reserve(ctx, doc); err != nil {
		return nil, err
	}

	l.logger.Info("version reserved",
		"document_id", doc.ID,
		"project_id", projectID,
		"document_type", docType,
		"version", doc.Version,
	)
	return doc, nil
}

// RecordCompleted appends an already-completed version, used for manual
// edits. The caller must hold Lock for the key.
func (l *Ledger) RecordCompleted(ctx context.Context, projectID string, docType models.DocumentType, createdBy, content string) (*models.Document, error) {
	doc, err := l.Reserve(ctx, projectID, docType, createdBy)
	if err != nil {
		return nil, err
	}

	// The version is taken; finish it even if the caller goes away, and never
	// leave a job-less generating row blocking the key.
	writeCtx := context.WithoutCancel(ctx)
	result := &models.DocumentResult{Content: content, CompletedAt: l.now()}
	if err := l.docRepo.Complete(writeCtx, doc.ID, result); err != nil {
		if failErr := l.docRepo.Fail(writeCtx, doc.ID, "manual edit not saved", l.now()); failErr != nil {
			l.logger.Error("releasing reserved version failed",
				"document_id", doc.ID,
				"error", failErr,
			)
		}
		return nil, fmt.Errorf("complete document %s: %w", doc.ID, err)
	}
	return l.docRepo.GetByID(writeCtx, doc.ID)
}

// Latest returns the highest-version completed document, nil if none.
// Two completed documents sharing that version is an invariant violation.
func (l *Ledger) Latest(ctx context.Context, projectID string, docType models.DocumentType) (*models.Document, error) {
	docs, err := l.docRepo.TopCompleted(ctx, projectID, docType, 2)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	if len(docs) == 2 && docs[0].Version == docs[1].Version {
		l.logger.Error("duplicate completed version",
			"project_id", projectID,
			"document_type", docType,
			"version", docs[0].Version,
			"document_ids", []string{docs[0].ID, docs[1].ID},
		)
		return nil, fmt.Errorf("%s version %d completed twice: %w", Key(projectID, docType), docs[0].Version, domain.ErrLedgerInvariant)
	}
	return &docs[0], nil
}

// History returns a project's documents newest first. Empty docType or
// status match everything.
func (l *Ledger) History(ctx context.Context, projectID string, docType models.DocumentType, status models.DocumentStatus) ([]models.Document, error) {
	return l.docRepo.List(ctx, models.DocumentFilter{
		ProjectID:    projectID,
		DocumentType: docType,
		Status:       status,
	})
}
