package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lisa/internal/doctypes"
	"lisa/internal/domain/models"
	"lisa/internal/domain/services"
	"lisa/internal/drive"
	"lisa/internal/handler/sse"
	"lisa/internal/httputil"
	"lisa/internal/repository/memory"
	"lisa/internal/service"
	serviceAuth "lisa/internal/service/auth"
	"lisa/internal/service/generation"
	"lisa/internal/service/ledger"
)

// gate holds every backend call until opened
type gate chan struct{}

func (g gate) Generate(ctx context.Context, req *services.GenerationRequest) (*services.GenerationResult, error) {
	select {
	case <-g:
		return &services.GenerationResult{Content: "generated " + string(req.DocumentType)}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	session *models.Session
	backend gate
}

var (
	admin  = &models.Session{UserID: "admin", IsSystemAdmin: true}
	member = &models.Session{UserID: "member"}
)

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithSSE(t, &sse.Config{KeepAliveInterval: time.Second, PollInterval: 5 * time.Millisecond})
}

func newTestServerWithSSE(t *testing.T, sseConfig *sse.Config) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.NewStore()
	groupRepo := memory.NewGroupRepository(store)
	projectRepo := memory.NewProjectRepository(store)
	docRepo := memory.NewDocumentRepository(store)
	promptRepo := memory.NewPromptRepository(store)
	txManager := memory.NewTransactionManager()

	catalog, err := doctypes.NewCatalog()
	require.NoError(t, err)

	authorizer := serviceAuth.NewGroupAdminAuthorizer(groupRepo)
	docLedger := ledger.New(docRepo, logger)
	backend := make(gate)

	engine := generation.NewEngine(generation.Dependencies{
		Projects:   projectRepo,
		Documents:  docRepo,
		Ledger:     docLedger,
		Catalog:    catalog,
		Resolver:   service.NewPromptResolver(promptRepo),
		Locator:    service.NewSourceLocator(projectRepo),
		Fetcher:    drive.ReferenceFetcher{},
		Backend:    backend,
		Authorizer: authorizer,
	}, generation.Options{Timeout: 5 * time.Second, ProgressInterval: 10 * time.Millisecond}, logger)

	docService := service.NewDocumentService(projectRepo, docRepo, docLedger, catalog, authorizer, logger)

	mux := http.NewServeMux()
	RegisterRoutes(mux, &Handlers{
		Groups:        NewGroupHandler(service.NewGroupService(groupRepo, txManager, authorizer, logger), logger),
		Projects:      NewProjectHandler(service.NewProjectService(projectRepo, groupRepo, txManager, authorizer, logger), logger),
		Prompts:       NewPromptHandler(service.NewPromptService(promptRepo, groupRepo, catalog, authorizer, logger), logger),
		Documents:     NewDocumentHandler(docService, engine, logger),
		Events:        NewEventsHandler(docService, engine, sseConfig, logger),
		DocumentTypes: NewDocumentTypesHandler(catalog),
		Health:        NewHealthHandler(CheckerFunc(store.Ping), nil, logger),
	})

	ts := &testServer{t: t, backend: backend, session: admin}
	ts.handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ts.session != nil {
			r = httputil.WithSession(r, ts.session)
		}
		mux.ServeHTTP(w, r)
	})
	t.Cleanup(func() {
		select {
		case <-backend:
		default:
			close(backend)
		}
	})
	return ts
}

func (ts *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, APIPrefix+path, reader)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// seedProject creates a group administered by member and one project in it
func (ts *testServer) seedProject() (*models.Group, *models.Project) {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/groups", map[string]interface{}{
		"name":   "Sales",
		"admins": []string{"member"},
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	group := decode[models.Group](ts.t, rec)

	rec = ts.do(http.MethodPost, "/groups/"+group.ID+"/projects", map[string]interface{}{
		"name":                    "Acme",
		"tags":                    []string{"b2b", "b2b", "priority"},
		"google_drive_folder_ids": []string{"folder-1"},
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	project := decode[models.Project](ts.t, rec)
	return &group, &project
}

func (ts *testServer) waitStatus(projectID, documentID string, status models.DocumentStatus) models.Document {
	ts.t.Helper()
	var doc models.Document
	require.Eventually(ts.t, func() bool {
		rec := ts.do(http.MethodGet, "/projects/"+projectID+"/documents/"+documentID, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			return false
		}
		return doc.Status == status
	}, 5*time.Second, 5*time.Millisecond)
	return doc
}

func TestGenerateLifecycle(t *testing.T) {
	ts := newTestServer(t)
	_, project := ts.seedProject()
	assert.Equal(t, []string{"b2b", "priority"}, project.Tags)
	assert.Equal(t, models.ProjectStatusActive, project.Status)

	rec := ts.do(http.MethodPost, "/projects/"+project.ID+"/documents/generate", map[string]string{"document_type": "proposal"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	first := decode[models.Document](t, rec)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, models.DocumentStatusGenerating, first.Status)

	// Second request for the same target while the first is running
	rec = ts.do(http.MethodPost, "/projects/"+project.ID+"/documents/generate", map[string]string{"document_type": "proposal"})
	require.Equal(t, http.StatusConflict, rec.Code)
	problem := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "document", problem["resource_type"])
	assert.Equal(t, first.ID, problem["resource_id"])

	close(ts.backend)
	done := ts.waitStatus(project.ID, first.ID, models.DocumentStatusCompleted)
	require.NotNil(t, done.Content)
	assert.Equal(t, "generated proposal", *done.Content)

	rec = ts.do(http.MethodPost, "/projects/"+project.ID+"/documents/"+first.ID+"/regenerate", nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	second := decode[models.Document](t, rec)
	assert.Equal(t, 2, second.Version)
	ts.waitStatus(project.ID, second.ID, models.DocumentStatusCompleted)

	rec = ts.do(http.MethodGet, "/projects/"+project.ID+"/documents?document_type=proposal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	docs := decode[[]models.Document](t, rec)
	require.Len(t, docs, 2)
	assert.Equal(t, 2, docs[0].Version)
	assert.Equal(t, 1, docs[1].Version)

	rec = ts.do(http.MethodGet, "/projects/"+project.ID+"/documents?status=generating", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Document](t, rec))
}

func TestGenerateRejections(t *testing.T) {
	ts := newTestServer(t)
	_, project := ts.seedProject()

	tests := []struct {
		name       string
		path       string
		body       interface{}
		session    *models.Session
		wantStatus int
	}{
		{"unknown type", "/projects/" + project.ID + "/documents/generate", map[string]string{"document_type": "memo"}, member, http.StatusBadRequest},
		{"missing type", "/projects/" + project.ID + "/documents/generate", map[string]string{}, member, http.StatusBadRequest},
		{"unknown project", "/projects/nope/documents/generate", map[string]string{"document_type": "proposal"}, member, http.StatusNotFound},
		{"no session", "/projects/" + project.ID + "/documents/generate", map[string]string{"document_type": "proposal"}, nil, http.StatusUnauthorized},
		{"outside the group", "/projects/" + project.ID + "/documents/generate", map[string]string{"document_type": "proposal"}, &models.Session{UserID: "stranger"}, http.StatusForbidden},
		{"regenerate unknown document", "/projects/" + project.ID + "/documents/nope/regenerate", nil, member, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.session = tt.session
			rec := ts.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestGenerateArchivedProject(t *testing.T) {
	ts := newTestServer(t)
	_, project := ts.seedProject()

	rec := ts.do(http.MethodPut, "/projects/"+project.ID, map[string]string{"status": "archived"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, "/projects/"+project.ID+"/documents/generate", map[string]string{"document_type": "proposal"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "archived")
}

func TestCancelGeneration(t *testing.T) {
	ts := newTestServer(t)
	_, project := ts.seedProject()

	rec := ts.do(http.MethodPost, "/projects/"+project.ID+"/documents/generate", map[string]string{"document_type": "quotation"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	doc := decode[models.Document](t, rec)

	rec = ts.do(http.MethodPost, "/projects/"+project.ID+"/documents/"+doc.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"document_id":"`+doc.ID+`","status":"failed"}`, rec.Body.String())

	failed := ts.waitStatus(project.ID, doc.ID, models.DocumentStatusFailed)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "cancelled", *failed.Error)
}

func TestInfoSheet(t *testing.T) {
	ts := newTestServer(t)
	_, project := ts.seedProject()
	path := "/projects/" + project.ID + "/info-sheet"

	rec := ts.do(http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts.session = member
	rec = ts.do(http.MethodPut, path, map[string]string{"content": "Client: Acme"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[models.ProjectInfoSheet](t, rec)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, "member", first.UpdatedBy)

	rec = ts.do(http.MethodPut, path, map[string]string{"content": "Client: Acme Corp"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	latest := decode[models.ProjectInfoSheet](t, rec)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, "Client: Acme Corp", latest.Content)

	// The first version is kept in history
	rec = ts.do(http.MethodGet, "/projects/"+project.ID+"/documents?document_type=project_info_sheet", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Document](t, rec), 2)
}

func TestPrompts(t *testing.T) {
	ts := newTestServer(t)
	group, _ := ts.seedProject()

	rec := ts.do(http.MethodGet, "/prompts/l0", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts.session = member
	rec = ts.do(http.MethodPut, "/prompts/l0", map[string]string{"content": "Be formal."})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	ts.session = admin
	rec = ts.do(http.MethodPut, "/prompts/l0", map[string]string{"content": "Be formal."})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Be formal.", decode[models.L0Prompt](t, rec).Content)

	// Group admins manage their group's layers
	ts.session = member
	rec = ts.do(http.MethodPut, "/groups/"+group.ID+"/prompts/l1", map[string]string{"content": "Sales tone."})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPut, "/groups/"+group.ID+"/prompts/l2/proposal", map[string]string{"content": "Proposal rules."})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPut, "/groups/"+group.ID+"/prompts/l2/memo", map[string]string{"content": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/groups/"+group.ID+"/prompts/l2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	prompts := decode[[]models.L2Prompt](t, rec)
	require.Len(t, prompts, 1)
	assert.Equal(t, models.DocumentTypeProposal, prompts[0].DocumentType)

	rec = ts.do(http.MethodGet, "/groups/"+group.ID+"/prompts/l2/quotation", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts.session = &models.Session{UserID: "stranger"}
	rec = ts.do(http.MethodPut, "/groups/"+group.ID+"/prompts/l1", map[string]string{"content": "nope"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGroupUpdateClearsDescription(t *testing.T) {
	ts := newTestServer(t)
	group, _ := ts.seedProject()

	rec := ts.do(http.MethodPut, "/groups/"+group.ID, map[string]interface{}{"description": "West region"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Group](t, rec)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "West region", *updated.Description)

	rec = ts.do(http.MethodPut, "/groups/"+group.ID, map[string]interface{}{"name": "Sales West"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated = decode[models.Group](t, rec)
	assert.Equal(t, "Sales West", updated.Name)
	require.NotNil(t, updated.Description)

	rec = ts.do(http.MethodPut, "/groups/"+group.ID, map[string]interface{}{"description": nil})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[models.Group](t, rec).Description)

	rec = ts.do(http.MethodDelete, "/groups/"+group.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(http.MethodGet, "/groups/"+group.ID+"/projects", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsStream(t *testing.T) {
	ts := newTestServer(t)
	_, project := ts.seedProject()

	rec := ts.do(http.MethodPost, "/projects/"+project.ID+"/documents/generate", map[string]string{"document_type": "hearing_sheet"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	doc := decode[models.Document](t, rec)

	go func() {
		time.Sleep(30 * time.Millisecond)
		close(ts.backend)
	}()

	// The stream ends by itself once the document is terminal
	rec = ts.do(http.MethodGet, "/projects/"+project.ID+"/documents/"+doc.ID+"/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Regexp(t, `^id: \d+\nevent: progress\n`, body)
	assert.Contains(t, body, "event: completed\n")
	assert.True(t, strings.HasSuffix(body, "\n\n"))
	assert.Equal(t, 1, strings.Count(body, "event: completed"))
}

func TestEventsStreamForwardsLiveEvents(t *testing.T) {
	// Polling would never fire within the test, so every frame after the
	// first comes from the running job
	ts := newTestServerWithSSE(t, &sse.Config{KeepAliveInterval: time.Hour, PollInterval: time.Hour})
	_, project := ts.seedProject()

	rec := ts.do(http.MethodPost, "/projects/"+project.ID+"/documents/generate", map[string]string{"document_type": "hearing_sheet"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	doc := decode[models.Document](t, rec)

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(ts.backend)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, APIPrefix+"/projects/"+project.ID+"/documents/"+doc.ID+"/events", nil).WithContext(ctx)
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	require.NoError(t, ctx.Err(), "stream did not finish from live events")
	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, "event: completed\n"), body)
	assert.Greater(t, strings.Count(body, "event: progress\n"), 1, body)
	assert.Contains(t, body, `"progress":100`)
}

func TestEventsStreamResumesFromLastEventID(t *testing.T) {
	ts := newTestServerWithSSE(t, &sse.Config{KeepAliveInterval: time.Hour, PollInterval: time.Hour})
	_, project := ts.seedProject()

	rec := ts.do(http.MethodPost, "/projects/"+project.ID+"/documents/generate", map[string]string{"document_type": "hearing_sheet"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	doc := decode[models.Document](t, rec)

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(ts.backend)
	}()

	// An id from the client's previous connection that is not the newest
	// event still gets a catch-up snapshot before live events
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, APIPrefix+"/projects/"+project.ID+"/documents/"+doc.ID+"/events", nil).WithContext(ctx)
	req.Header.Set("Last-Event-ID", "0")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	require.NoError(t, ctx.Err())
	body := rec.Body.String()
	assert.Regexp(t, `^id: [1-9]\d*\nevent: progress\n`, body)
	assert.Equal(t, 1, strings.Count(body, "event: completed\n"), body)
}

func TestEventsStreamFinishedDocumentUsesStore(t *testing.T) {
	ts := newTestServerWithSSE(t, &sse.Config{KeepAliveInterval: time.Hour, PollInterval: time.Hour})
	_, project := ts.seedProject()

	rec := ts.do(http.MethodPost, "/projects/"+project.ID+"/documents/generate", map[string]string{"document_type": "hearing_sheet"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	doc := decode[models.Document](t, rec)
	close(ts.backend)
	ts.waitStatus(project.ID, doc.ID, models.DocumentStatusCompleted)

	rec = ts.do(http.MethodGet, "/projects/"+project.ID+"/documents/"+doc.ID+"/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "id: 1\nevent: completed\n"), rec.Body.String())
}

func TestEventsStreamUnknownDocument(t *testing.T) {
	ts := newTestServer(t)
	_, project := ts.seedProject()

	rec := ts.do(http.MethodGet, "/projects/"+project.ID+"/documents/missing/events", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMiscEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/users/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":"admin","is_system_admin":true}`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/document-types", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	types := decode[[]map[string]interface{}](t, rec)
	assert.Len(t, types, 4)

	rec = ts.do(http.MethodGet, "/tenant/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"api_status":"ok","database_status":"ok","google_drive_status":"not_configured"}`, rec.Body.String())
}

func TestTenantHealthDriveDown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHealthHandler(nil, CheckerFunc(func(ctx context.Context) error { return context.DeadlineExceeded }), logger)

	rec := httptest.NewRecorder()
	h.TenantHealth(rec, httptest.NewRequest(http.MethodGet, "/api/lisa/tenant/health", nil))

	assert.JSONEq(t, `{"api_status":"ok","database_status":"not_configured","google_drive_status":"error"}`, rec.Body.String())
}
