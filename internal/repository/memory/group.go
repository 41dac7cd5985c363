package memory

import (
	"context"
	"fmt"
	"sort"

	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
)

// GroupRepository implements repositories.GroupRepository
type GroupRepository struct {
	store *Store
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(store *Store) repositories.GroupRepository {
	return &GroupRepository{store: store}
}

func cloneGroup(g *models.Group) *models.Group {
	c := *g
	c.Admins = cloneStrings(g.Admins)
	if g.Description != nil {
		d := *g.Description
		c.Description = &d
	}
	return &c
}

func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.groups {
		if existing.Name == group.Name {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("group '%s' already exists", group.Name),
				ResourceType: "group",
				ResourceID:   existing.ID,
			}
		}
	}

	group.ID = r.store.newID()
	r.store.groups[group.ID] = cloneGroup(group)
	return nil
}

func (r *GroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	g, ok := r.store.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
	}
	return cloneGroup(g), nil
}

func (r *GroupRepository) List(ctx context.Context) ([]models.Group, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	groups := make([]models.Group, 0, len(r.store.groups))
	for _, g := range r.store.groups {
		groups = append(groups, *cloneGroup(g))
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

func (r *GroupRepository) Update(ctx context.Context, group *models.Group) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.groups[group.ID]; !ok {
		return fmt.Errorf("group %s: %w", group.ID, domain.ErrNotFound)
	}
	for _, existing := range r.store.groups {
		if existing.ID != group.ID && existing.Name == group.Name {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("group name '%s' already exists", group.Name),
				ResourceType: "group",
				ResourceID:   existing.ID,
			}
		}
	}
	r.store.groups[group.ID] = cloneGroup(group)
	return nil
}

// Delete cascades to the group's projects, their documents, and L1/L2 prompts
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.groups[id]; !ok {
		return fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
	}
	delete(r.store.groups, id)
	for pid, p := range r.store.projects {
		if p.GroupID == id {
			r.store.deleteProjectLocked(pid)
		}
	}
	delete(r.store.l1, id)
	for key := range r.store.l2 {
		if key.groupID == id {
			delete(r.store.l2, key)
		}
	}
	return nil
}
