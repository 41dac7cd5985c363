package memory

import (
	"context"
	"fmt"
	"sort"

	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
)

// PromptRepository implements repositories.PromptRepository
type PromptRepository struct {
	store *Store
}

// NewPromptRepository creates a new prompt repository
func NewPromptRepository(store *Store) repositories.PromptRepository {
	return &PromptRepository{store: store}
}

func (r *PromptRepository) GetL0(ctx context.Context) (*models.L0Prompt, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if r.store.l0 == nil {
		return nil, fmt.Errorf("l0 prompt: %w", domain.ErrNotFound)
	}
	p := *r.store.l0
	return &p, nil
}

func (r *PromptRepository) UpsertL0(ctx context.Context, prompt *models.L0Prompt) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.l0 != nil {
		prompt.ID = r.store.l0.ID
	} else {
		prompt.ID = r.store.newID()
	}
	p := *prompt
	r.store.l0 = &p
	return nil
}

func (r *PromptRepository) GetL1(ctx context.Context, groupID string) (*models.L1Prompt, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored, ok := r.store.l1[groupID]
	if !ok {
		return nil, fmt.Errorf("l1 prompt for group %s: %w", groupID, domain.ErrNotFound)
	}
	p := *stored
	return &p, nil
}

func (r *PromptRepository) UpsertL1(ctx context.Context, prompt *models.L1Prompt) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.groups[prompt.GroupID]; !ok {
		return fmt.Errorf("group %s: %w", prompt.GroupID, domain.ErrNotFound)
	}
	if existing, ok := r.store.l1[prompt.GroupID]; ok {
		prompt.ID = existing.ID
	} else {
		prompt.ID = r.store.newID()
	}
	p := *prompt
	r.store.l1[prompt.GroupID] = &p
	return nil
}

func (r *PromptRepository) GetL2(ctx context.Context, groupID string, docType models.DocumentType) (*models.L2Prompt, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored, ok := r.store.l2[l2Key{groupID: groupID, docType: docType}]
	if !ok {
		return nil, fmt.Errorf("l2 prompt for group %s type %s: %w", groupID, docType, domain.ErrNotFound)
	}
	p := *stored
	return &p, nil
}

func (r *PromptRepository) UpsertL2(ctx context.Context, prompt *models.L2Prompt) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.groups[prompt.GroupID]; !ok {
		return fmt.Errorf("group %s: %w", prompt.GroupID, domain.ErrNotFound)
	}
	key := l2Key{groupID: prompt.GroupID, docType: prompt.DocumentType}
	if existing, ok := r.store.l2[key]; ok {
		prompt.ID = existing.ID
	} else {
		prompt.ID = r.store.newID()
	}
	p := *prompt
	r.store.l2[key] = &p
	return nil
}

func (r *PromptRepository) ListL2(ctx context.Context, groupID string) ([]models.L2Prompt, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	prompts := []models.L2Prompt{}
	for key, p := range r.store.l2 {
		if key.groupID == groupID {
			prompts = append(prompts, *p)
		}
	}
	sort.Slice(prompts, func(i, j int) bool { return prompts[i].DocumentType < prompts[j].DocumentType })
	return prompts, nil
}
