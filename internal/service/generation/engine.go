// Package generation runs document generation jobs: admission under the
// version ledger, asynchronous execution, progress and terminal recording.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mstream "github.com/haowjy/meridian-stream-go"

	"lisa/internal/doctypes"
	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
	"lisa/internal/domain/services"
	"lisa/internal/service/ledger"
)

var errCancelled = errors.New("cancelled")

// Options tune job execution
type Options struct {
	Timeout          time.Duration
	ProgressInterval time.Duration
	ProgressStep     int
	SweepInterval    time.Duration
	StaleGrace       time.Duration
	DefaultModel     string
}

// Dependencies are the collaborators a job needs
type Dependencies struct {
	Projects   repositories.ProjectRepository
	Documents  repositories.DocumentRepository
	Ledger     *ledger.Ledger
	Catalog    *doctypes.Catalog
	Resolver   services.PromptResolver
	Locator    services.SourceLocator
	Fetcher    services.SourceFetcher
	Backend    services.GenerationBackend
	Publisher  services.ArtifactPublisher // nil disables publishing
	Authorizer services.Authorizer
}

// jobHandle lets Cancel reach a running job and wait for its terminal write
type jobHandle struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	done   chan struct{}
	events *hub
}

// Engine implements services.GenerationEngine
type Engine struct {
	deps     Dependencies
	opts     Options
	registry *mstream.Registry
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.Mutex
	jobs map[string]*jobHandle
}

// NewEngine creates an engine. Call Start to run registry cleanup and the sweeper.
func NewEngine(deps Dependencies, opts Options, logger *slog.Logger) *Engine {
	if opts.ProgressStep <= 0 {
		opts.ProgressStep = 5
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = 2 * time.Second
	}
	return &Engine{
		deps:     deps,
		opts:     opts,
		registry: mstream.NewRegistry(),
		logger:   logger.With("component", "generation"),
		now:      time.Now,
		jobs:     make(map[string]*jobHandle),
	}
}

// Start runs background maintenance until ctx is done
func (e *Engine) Start(ctx context.Context) {
	go e.registry.StartCleanup(ctx)
	if e.opts.SweepInterval > 0 {
		go NewSweeper(e.deps.Documents, e.opts.Timeout+e.opts.StaleGrace, e.logger).Run(ctx, e.opts.SweepInterval)
	}
}

// StartGeneration admits a job and returns its generating document
func (e *Engine) StartGeneration(ctx context.Context, session *models.Session, projectID string, docType models.DocumentType) (*models.Document, error) {
	if session == nil {
		return nil, domain.ErrUnauthorized
	}
	dt, err := e.deps.Catalog.Get(docType)
	if err != nil {
		return nil, err
	}

	project, err := e.deps.Projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := e.deps.Authorizer.CanEditProject(ctx, session, project); err != nil {
		return nil, err
	}
	if project.Status == models.ProjectStatusArchived {
		return nil, &domain.ValidationError{Message: "project is archived"}
	}

	unlock := e.deps.Ledger.Lock(projectID, docType)
	doc, err := e.deps.Ledger.Reserve(ctx, projectID, docType, session.UserID)
	unlock()
	if err != nil {
		return nil, err
	}

	e.launch(doc.Clone(), project, dt)
	return doc, nil
}

// Regenerate starts a new version of documentID's type
func (e *Engine) Regenerate(ctx context.Context, session *models.Session, projectID, documentID string) (*models.Document, error) {
	_, original, err := e.ownedDocument(ctx, projectID, documentID)
	if err != nil {
		return nil, err
	}
	return e.StartGeneration(ctx, session, projectID, original.DocumentType)
}

// Cancel stops a running job and waits for it to record the failure.
// Terminal documents are returned unchanged.
func (e *Engine) Cancel(ctx context.Context, session *models.Session, projectID, documentID string) (*models.Document, error) {
	project, doc, err := e.ownedDocument(ctx, projectID, documentID)
	if err != nil {
		return nil, err
	}
	if err := e.deps.Authorizer.CanEditProject(ctx, session, project); err != nil {
		return nil, err
	}
	if doc.Status.IsTerminal() {
		return doc, nil
	}

	e.mu.Lock()
	handle := e.jobs[documentID]
	e.mu.Unlock()

	if handle == nil {
		// No job in this process owns it (e.g. left over from a restart)
		err := e.deps.Documents.Fail(ctx, documentID, (&domain.GenerationError{Stage: stageCancelled}).Error(), e.now())
		if err != nil && !errors.Is(err, domain.ErrAlreadyTerminal) {
			return nil, fmt.Errorf("cancel document %s: %w", documentID, err)
		}
		return e.deps.Documents.GetByID(ctx, documentID)
	}

	handle.cancel(errCancelled)

	select {
	case <-handle.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return e.deps.Documents.GetByID(ctx, documentID)
}

// Running reports how many jobs this engine is executing
func (e *Engine) Running() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.jobs)
}

func (e *Engine) ownedDocument(ctx context.Context, projectID, documentID string) (*models.Project, *models.Document, error) {
	project, err := e.deps.Projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	doc, err := e.deps.Documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	if doc.ProjectID != projectID {
		return nil, nil, &domain.NotFoundError{Message: fmt.Sprintf("document %s not found in project %s", documentID, projectID)}
	}
	return project, doc, nil
}

// launch registers the job and starts its stream. The job context is
// independent of the admitting request.
func (e *Engine) launch(doc *models.Document, project *models.Project, dt *doctypes.DocumentType) {
	handleCtx, cancel := context.WithCancelCause(context.Background())
	handle := &jobHandle{ctx: handleCtx, cancel: cancel, done: make(chan struct{}), events: newHub()}
	j := &job{
		engine:  e,
		doc:     doc,
		project: project,
		docType: dt,
		handle:  handle,
		logger: e.logger.With(
			"document_id", doc.ID,
			"project_id", doc.ProjectID,
			"document_type", doc.DocumentType,
			"version", doc.Version,
		),
	}

	e.mu.Lock()
	e.jobs[doc.ID] = handle
	e.mu.Unlock()

	stream := mstream.NewStream(doc.ID, j.work, mstream.WithCatchup(e.catchup))
	e.registry.Register(stream)
	stream.Start()

	j.logger.Info("generation started")
}

func (e *Engine) finished(documentID string) {
	e.mu.Lock()
	delete(e.jobs, documentID)
	e.mu.Unlock()
}
