package memory

import (
	"context"
	"fmt"
	"sort"

	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
)

// ProjectRepository implements repositories.ProjectRepository
type ProjectRepository struct {
	store *Store
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(store *Store) repositories.ProjectRepository {
	return &ProjectRepository{store: store}
}

func cloneProject(p *models.Project) *models.Project {
	c := *p
	c.Tags = cloneStrings(p.Tags)
	c.DriveFolderIDs = cloneStrings(p.DriveFolderIDs)
	return &c
}

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.groups[project.GroupID]; !ok {
		return fmt.Errorf("group %s: %w", project.GroupID, domain.ErrNotFound)
	}
	project.ID = r.store.newID()
	r.store.projects[project.ID] = cloneProject(project)
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return cloneProject(p), nil
}

func (r *ProjectRepository) ListByGroup(ctx context.Context, groupID string, status *models.ProjectStatus) ([]models.Project, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	projects := []models.Project{}
	for _, p := range r.store.projects {
		if p.GroupID != groupID {
			continue
		}
		if status != nil && p.Status != *status {
			continue
		}
		projects = append(projects, *cloneProject(p))
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	return projects, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.projects[project.ID]; !ok {
		return fmt.Errorf("project %s: %w", project.ID, domain.ErrNotFound)
	}
	r.store.projects[project.ID] = cloneProject(project)
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.projects[id]; !ok {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	r.store.deleteProjectLocked(id)
	return nil
}

// deleteProjectLocked removes a project and its documents. Caller holds mu.
func (s *Store) deleteProjectLocked(id string) {
	delete(s.projects, id)
	for docID, d := range s.documents {
		if d.ProjectID == id {
			delete(s.documents, docID)
		}
	}
}
