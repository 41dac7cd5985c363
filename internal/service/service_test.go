package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lisa/internal/doctypes"
	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
	"lisa/internal/domain/services"
	"lisa/internal/repository/memory"
	serviceAuth "lisa/internal/service/auth"
	"lisa/internal/service/ledger"
)

var (
	admin = &models.Session{UserID: "root", IsSystemAdmin: true}
	alice = &models.Session{UserID: "alice"}
	bob   = &models.Session{UserID: "bob"}
)

type fixture struct {
	groups     services.GroupService
	projects   services.ProjectService
	prompts    services.PromptService
	documents  services.DocumentService
	resolver   services.PromptResolver
	locator    services.SourceLocator
	promptRepo repositories.PromptRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()

	groupRepo := memory.NewGroupRepository(store)
	projectRepo := memory.NewProjectRepository(store)
	promptRepo := memory.NewPromptRepository(store)
	docRepo := memory.NewDocumentRepository(store)
	txManager := memory.NewTransactionManager()

	catalog, err := doctypes.NewCatalog()
	require.NoError(t, err)

	authorizer := serviceAuth.NewGroupAdminAuthorizer(groupRepo)
	return &fixture{
		groups:     NewGroupService(groupRepo, txManager, authorizer, logger),
		projects:   NewProjectService(projectRepo, groupRepo, txManager, authorizer, logger),
		prompts:    NewPromptService(promptRepo, groupRepo, catalog, authorizer, logger),
		documents:  NewDocumentService(projectRepo, docRepo, ledger.New(docRepo, logger), catalog, authorizer, logger),
		resolver:   NewPromptResolver(promptRepo),
		locator:    NewSourceLocator(projectRepo),
		promptRepo: promptRepo,
	}
}

func (f *fixture) group(t *testing.T, name string, admins ...string) *models.Group {
	t.Helper()
	g, err := f.groups.CreateGroup(context.Background(), admin, &services.CreateGroupRequest{
		Name:   name,
		Admins: admins,
	})
	require.NoError(t, err)
	return g
}

func (f *fixture) project(t *testing.T, groupID string, folders ...string) *models.Project {
	t.Helper()
	p, err := f.projects.CreateProject(context.Background(), alice, &services.CreateProjectRequest{
		GroupID:        groupID,
		Name:           "Acme",
		DriveFolderIDs: folders,
	})
	require.NoError(t, err)
	return p
}

func TestResolveEffectivePromptJoinsLayers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "Sales", "alice")

	_, err := f.prompts.PutL0(ctx, admin, "corporate")
	require.NoError(t, err)
	_, err = f.prompts.PutL1(ctx, alice, g.ID, "group")
	require.NoError(t, err)
	_, err = f.prompts.PutL2(ctx, alice, g.ID, models.DocumentTypeProposal, "proposal")
	require.NoError(t, err)

	prompt, err := f.resolver.ResolveEffectivePrompt(ctx, g.ID, models.DocumentTypeProposal)
	require.NoError(t, err)
	assert.Equal(t, "corporate\n\ngroup\n\nproposal", prompt)

	// no L2 for quotation
	prompt, err = f.resolver.ResolveEffectivePrompt(ctx, g.ID, models.DocumentTypeQuotation)
	require.NoError(t, err)
	assert.Equal(t, "corporate\n\ngroup", prompt)
}

func TestResolveEffectivePromptSkipsBlankLayers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "Sales", "alice")

	// written straight to the repository, the service rejects blank content
	require.NoError(t, f.promptRepo.UpsertL1(ctx, &models.L1Prompt{GroupID: g.ID, Content: "  \n "}))
	require.NoError(t, f.promptRepo.UpsertL2(ctx, &models.L2Prompt{GroupID: g.ID, DocumentType: models.DocumentTypeProposal, Content: "only"}))

	prompt, err := f.resolver.ResolveEffectivePrompt(ctx, g.ID, models.DocumentTypeProposal)
	require.NoError(t, err)
	assert.Equal(t, "only", prompt)
}

func TestResolveEffectivePromptEmpty(t *testing.T) {
	f := newFixture(t)
	g := f.group(t, "Sales", "alice")

	prompt, err := f.resolver.ResolveEffectivePrompt(context.Background(), g.ID, models.DocumentTypeProposal)
	require.NoError(t, err)
	assert.Empty(t, prompt)
}

func TestPromptAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "Sales", "alice")

	_, err := f.prompts.PutL0(ctx, alice, "x")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.prompts.PutL1(ctx, bob, g.ID, "x")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.prompts.PutL1(ctx, nil, g.ID, "x")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.prompts.PutL2(ctx, alice, g.ID, "memo", "x")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.prompts.PutL1(ctx, alice, g.ID, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.prompts.GetL1(ctx, g.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGroupLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.groups.CreateGroup(ctx, alice, &services.CreateGroupRequest{Name: "Sales", Admins: []string{"alice"}})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.groups.CreateGroup(ctx, admin, &services.CreateGroupRequest{Name: "Sales"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	desc := "  team  "
	g, err := f.groups.CreateGroup(ctx, admin, &services.CreateGroupRequest{
		Name:        " Sales ",
		Description: &desc,
		Admins:      []string{"alice", " alice", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "Sales", g.Name)
	require.NotNil(t, g.Description)
	assert.Equal(t, "team", *g.Description)
	assert.Equal(t, []string{"alice"}, g.Admins)

	_, err = f.groups.CreateGroup(ctx, admin, &services.CreateGroupRequest{Name: "Sales", Admins: []string{"bob"}})
	assert.ErrorIs(t, err, domain.ErrConflict)

	admins := []string{"alice", "bob"}
	updated, err := f.groups.UpdateGroup(ctx, admin, g.ID, &services.UpdateGroupRequest{
		Admins:           &admins,
		ClearDescription: true,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Description)
	assert.Equal(t, admins, updated.Admins)

	require.NoError(t, f.groups.DeleteGroup(ctx, admin, g.ID))
	_, err = f.groups.GetGroup(ctx, g.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProjectValidationAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "Sales", "alice")

	_, err := f.projects.CreateProject(ctx, alice, &services.CreateProjectRequest{GroupID: g.ID, Name: "Acme"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.projects.CreateProject(ctx, alice, &services.CreateProjectRequest{GroupID: "missing", Name: "Acme", DriveFolderIDs: []string{"f"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p := f.project(t, g.ID, "f1", "f1", "f2")
	assert.Equal(t, models.ProjectStatusActive, p.Status)
	assert.Equal(t, []string{"f1", "f2"}, p.DriveFolderIDs)

	bogus := models.ProjectStatus("paused")
	_, err = f.projects.UpdateProject(ctx, alice, p.ID, &services.UpdateProjectRequest{Status: &bogus})
	assert.ErrorIs(t, err, domain.ErrValidation)

	archived := models.ProjectStatusArchived
	updated, err := f.projects.UpdateProject(ctx, alice, p.ID, &services.UpdateProjectRequest{Status: &archived})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusArchived, updated.Status)

	list, err := f.projects.ListProjects(ctx, g.ID, &archived)
	require.NoError(t, err)
	require.Len(t, list, 1)

	active := models.ProjectStatusActive
	list, err = f.projects.ListProjects(ctx, g.ID, &active)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSourceLocatorKeepsFolderOrder(t *testing.T) {
	f := newFixture(t)
	g := f.group(t, "Sales", "alice")
	p := f.project(t, g.ID, "b", "a", "c")

	refs, err := f.locator.ResolveSources(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, refs, 3)
	for i, want := range []string{"b", "a", "c"} {
		assert.Equal(t, want, refs[i].FolderID)
		assert.Equal(t, i, refs[i].Position)
		assert.Equal(t, models.SourceKindDriveFolder, refs[i].Kind)
	}

	_, err = f.locator.ResolveSources(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestInfoSheetAppendsVersions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "Sales", "alice", "bob")
	p := f.project(t, g.ID, "f")

	_, err := f.documents.GetInfoSheet(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.documents.PutInfoSheet(ctx, alice, p.ID, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	first, err := f.documents.PutInfoSheet(ctx, alice, p.ID, "v1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	second, err := f.documents.PutInfoSheet(ctx, bob, p.ID, "v2")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	sheet, err := f.documents.GetInfoSheet(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", sheet.Content)
	assert.Equal(t, "bob", sheet.UpdatedBy)

	docs, err := f.documents.ListDocuments(ctx, p.ID, models.DocumentFilter{DocumentType: models.DocumentTypeProjectInfoSheet})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestDocumentScopedToProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "Sales", "alice")
	p1 := f.project(t, g.ID, "f")
	p2 := f.project(t, g.ID, "f")

	sheet, err := f.documents.PutInfoSheet(ctx, alice, p1.ID, "content")
	require.NoError(t, err)

	_, err = f.documents.GetDocument(ctx, p2.ID, sheet.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	doc, err := f.documents.GetDocument(ctx, p1.ID, sheet.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusCompleted, doc.Status)

	_, err = f.documents.ListDocuments(ctx, p1.ID, models.DocumentFilter{Status: "bogus"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.documents.ListDocuments(ctx, p1.ID, models.DocumentFilter{DocumentType: "memo"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProjectWritesRequireAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.group(t, "Sales", "bob")
	p := f.project(t, g.ID, "f")
	carol := &models.Session{UserID: "carol"}

	name := "Renamed"
	_, err := f.projects.UpdateProject(ctx, carol, p.ID, &services.UpdateProjectRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.documents.PutInfoSheet(ctx, carol, p.ID, "content")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, f.projects.DeleteProject(ctx, carol, p.ID), domain.ErrForbidden)

	// alice created the project, bob administers its group
	_, err = f.projects.UpdateProject(ctx, alice, p.ID, &services.UpdateProjectRequest{Name: &name})
	require.NoError(t, err)
	_, err = f.documents.PutInfoSheet(ctx, bob, p.ID, "content")
	require.NoError(t, err)

	renamed, err := f.projects.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Name)

	require.NoError(t, f.projects.DeleteProject(ctx, admin, p.ID))
	_, err = f.projects.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
