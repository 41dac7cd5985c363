package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
)

// DocumentRepository implements repositories.DocumentRepository.
// The store lock makes Reserve atomic across all keys.
type DocumentRepository struct {
	store *Store
	now   func() time.Time
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(store *Store) repositories.DocumentRepository {
	return &DocumentRepository{store: store, now: time.Now}
}

func (r *DocumentRepository) Reserve(ctx context.Context, doc *models.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.projects[doc.ProjectID]; !ok {
		return fmt.Errorf("project %s: %w", doc.ProjectID, domain.ErrNotFound)
	}

	maxVersion := 0
	for _, d := range r.store.documents {
		if d.ProjectID != doc.ProjectID || d.DocumentType != doc.DocumentType {
			continue
		}
		if d.Status == models.DocumentStatusGenerating {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("%s generation already in progress (version %d)", doc.DocumentType, d.Version),
				ResourceType: "document",
				ResourceID:   d.ID,
			}
		}
		if d.Version > maxVersion {
			maxVersion = d.Version
		}
	}

	doc.ID = r.store.newID()
	doc.Version = maxVersion + 1
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = r.now()
	}
	r.store.documents[doc.ID] = doc.Clone()
	return nil
}

func (r *DocumentRepository) MaxVersion(ctx context.Context, projectID string, docType models.DocumentType) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	maxVersion := 0
	for _, d := range r.store.documents {
		if d.ProjectID == projectID && d.DocumentType == docType && d.Version > maxVersion {
			maxVersion = d.Version
		}
	}
	return maxVersion, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	d, ok := r.store.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return d.Clone(), nil
}

func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	docs := []models.Document{}
	for _, d := range r.store.documents {
		if filter.ProjectID != "" && d.ProjectID != filter.ProjectID {
			continue
		}
		if filter.DocumentType != "" && d.DocumentType != filter.DocumentType {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		docs = append(docs, *d.Clone())
	}
	sortNewestFirst(docs)
	return docs, nil
}

func (r *DocumentRepository) TopCompleted(ctx context.Context, projectID string, docType models.DocumentType, limit int) ([]models.Document, error) {
	docs, err := r.List(ctx, models.DocumentFilter{
		ProjectID:    projectID,
		DocumentType: docType,
		Status:       models.DocumentStatusCompleted,
	})
	if err != nil {
		return nil, err
	}
	sortByVersion(docs)
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (r *DocumentRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	d, ok := r.store.documents[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	if d.Status != models.DocumentStatusGenerating {
		return nil
	}
	if d.Progress != nil && *d.Progress >= progress {
		return nil
	}
	p := progress
	d.Progress = &p
	return nil
}

func (r *DocumentRepository) Complete(ctx context.Context, id string, result *models.DocumentResult) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	d, err := r.generatingLocked(id)
	if err != nil {
		return err
	}
	content := result.Content
	progress := 100
	completedAt := result.CompletedAt
	d.Status = models.DocumentStatusCompleted
	d.Content = &content
	d.Progress = &progress
	d.CompletedAt = &completedAt
	if result.URL != nil {
		url := *result.URL
		d.URL = &url
	}
	return nil
}

func (r *DocumentRepository) Fail(ctx context.Context, id string, reason string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	d, err := r.generatingLocked(id)
	if err != nil {
		return err
	}
	d.Status = models.DocumentStatusFailed
	d.Error = &reason
	d.CompletedAt = &at
	return nil
}

func (r *DocumentRepository) ListGeneratingBefore(ctx context.Context, cutoff time.Time) ([]models.Document, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	docs := []models.Document{}
	for _, d := range r.store.documents {
		if d.Status == models.DocumentStatusGenerating && d.CreatedAt.Before(cutoff) {
			docs = append(docs, *d.Clone())
		}
	}
	sortNewestFirst(docs)
	return docs, nil
}

func (r *DocumentRepository) generatingLocked(id string) (*models.Document, error) {
	d, ok := r.store.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	if d.Status != models.DocumentStatusGenerating {
		return nil, fmt.Errorf("document %s is %s: %w", id, d.Status, domain.ErrAlreadyTerminal)
	}
	return d, nil
}

// sortNewestFirst orders by created_at desc, then version desc
func sortNewestFirst(docs []models.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].Version > docs[j].Version
	})
}

// sortByVersion orders by version desc, then created_at desc
func sortByVersion(docs []models.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Version != docs[j].Version {
			return docs[i].Version > docs[j].Version
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
}
