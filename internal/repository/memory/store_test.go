package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lisa/internal/domain"
	"lisa/internal/domain/models"
)

func seedProject(t *testing.T, store *Store) *models.Project {
	t.Helper()
	ctx := context.Background()

	group := &models.Group{Name: "Sales", Admins: []string{"alice"}}
	require.NoError(t, NewGroupRepository(store).Create(ctx, group))

	project := &models.Project{
		GroupID:        group.ID,
		Name:           "Acme",
		Status:         models.ProjectStatusActive,
		DriveFolderIDs: []string{"folder-1"},
	}
	require.NoError(t, NewProjectRepository(store).Create(ctx, project))
	return project
}

func reserve(t *testing.T, repo interface {
	Reserve(context.Context, *models.Document) error
}, projectID string) *models.Document {
	t.Helper()
	doc := &models.Document{
		ProjectID:    projectID,
		DocumentType: models.DocumentTypeProposal,
		Status:       models.DocumentStatusGenerating,
	}
	require.NoError(t, repo.Reserve(context.Background(), doc))
	return doc
}

func TestReserveAssignsSequentialVersions(t *testing.T) {
	store := NewStore()
	project := seedProject(t, store)
	repo := NewDocumentRepository(store)
	ctx := context.Background()

	first := reserve(t, repo, project.ID)
	assert.Equal(t, 1, first.Version)
	require.NoError(t, repo.Fail(ctx, first.ID, "boom", time.Now()))

	second := reserve(t, repo, project.ID)
	assert.Equal(t, 2, second.Version)

	maxVersion, err := repo.MaxVersion(ctx, project.ID, models.DocumentTypeProposal)
	require.NoError(t, err)
	assert.Equal(t, 2, maxVersion)
}

func TestReserveRejectsSecondGenerating(t *testing.T) {
	store := NewStore()
	project := seedProject(t, store)
	repo := NewDocumentRepository(store)

	first := reserve(t, repo, project.ID)

	err := repo.Reserve(context.Background(), &models.Document{
		ProjectID:    project.ID,
		DocumentType: models.DocumentTypeProposal,
		Status:       models.DocumentStatusGenerating,
	})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.ID, conflict.ResourceID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// other types are independent
	other := &models.Document{
		ProjectID:    project.ID,
		DocumentType: models.DocumentTypeQuotation,
		Status:       models.DocumentStatusGenerating,
	}
	require.NoError(t, repo.Reserve(context.Background(), other))
	assert.Equal(t, 1, other.Version)
}

func TestReserveConcurrentAdmitsOne(t *testing.T) {
	store := NewStore()
	project := seedProject(t, store)
	repo := NewDocumentRepository(store)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Reserve(context.Background(), &models.Document{
				ProjectID:    project.ID,
				DocumentType: models.DocumentTypeProposal,
				Status:       models.DocumentStatusGenerating,
			})
			if err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, admitted)
}

func TestReserveUnknownProject(t *testing.T) {
	repo := NewDocumentRepository(NewStore())
	err := repo.Reserve(context.Background(), &models.Document{
		ProjectID:    "missing",
		DocumentType: models.DocumentTypeProposal,
		Status:       models.DocumentStatusGenerating,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTerminalDocumentsAreImmutable(t *testing.T) {
	store := NewStore()
	project := seedProject(t, store)
	repo := NewDocumentRepository(store)
	ctx := context.Background()

	doc := reserve(t, repo, project.ID)
	require.NoError(t, repo.UpdateProgress(ctx, doc.ID, 40))
	require.NoError(t, repo.Complete(ctx, doc.ID, &models.DocumentResult{Content: "done", CompletedAt: time.Now()}))

	assert.ErrorIs(t, repo.Fail(ctx, doc.ID, "late", time.Now()), domain.ErrAlreadyTerminal)
	assert.ErrorIs(t, repo.Complete(ctx, doc.ID, &models.DocumentResult{Content: "again"}), domain.ErrAlreadyTerminal)
	require.NoError(t, repo.UpdateProgress(ctx, doc.ID, 50))

	got, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusCompleted, got.Status)
	require.NotNil(t, got.Content)
	assert.Equal(t, "done", *got.Content)
	require.NotNil(t, got.Progress)
	assert.Equal(t, 100, *got.Progress)
	assert.Nil(t, got.Error)
}

func TestUpdateProgressNeverDecreases(t *testing.T) {
	store := NewStore()
	project := seedProject(t, store)
	repo := NewDocumentRepository(store)
	ctx := context.Background()

	doc := reserve(t, repo, project.ID)
	require.NoError(t, repo.UpdateProgress(ctx, doc.ID, 60))
	require.NoError(t, repo.UpdateProgress(ctx, doc.ID, 30))

	got, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Progress)
	assert.Equal(t, 60, *got.Progress)
}

func TestGetByIDReturnsCopy(t *testing.T) {
	store := NewStore()
	project := seedProject(t, store)
	repo := NewDocumentRepository(store)
	ctx := context.Background()

	doc := reserve(t, repo, project.ID)
	got, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	got.Status = models.DocumentStatusFailed

	again, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusGenerating, again.Status)
}

func TestTopCompletedOrdersByVersion(t *testing.T) {
	store := NewStore()
	project := seedProject(t, store)
	repo := NewDocumentRepository(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		doc := reserve(t, repo, project.ID)
		require.NoError(t, repo.Complete(ctx, doc.ID, &models.DocumentResult{Content: "v", CompletedAt: time.Now()}))
	}

	top, err := repo.TopCompleted(ctx, project.ID, models.DocumentTypeProposal, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 3, top[0].Version)
	assert.Equal(t, 2, top[1].Version)
}

func TestGroupDeleteCascades(t *testing.T) {
	store := NewStore()
	project := seedProject(t, store)
	docs := NewDocumentRepository(store)
	prompts := NewPromptRepository(store)
	ctx := context.Background()

	doc := reserve(t, docs, project.ID)
	require.NoError(t, prompts.UpsertL1(ctx, &models.L1Prompt{GroupID: project.GroupID, Content: "l1"}))

	require.NoError(t, NewGroupRepository(store).Delete(ctx, project.GroupID))

	_, err := NewProjectRepository(store).GetByID(ctx, project.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = docs.GetByID(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = prompts.GetL1(ctx, project.GroupID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGroupNameConflict(t *testing.T) {
	store := NewStore()
	repo := NewGroupRepository(store)
	ctx := context.Background()

	first := &models.Group{Name: "Sales", Admins: []string{"alice"}}
	require.NoError(t, repo.Create(ctx, first))

	err := repo.Create(ctx, &models.Group{Name: "Sales", Admins: []string{"bob"}})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.ID, conflict.ResourceID)
}
