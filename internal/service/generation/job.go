package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mstream "github.com/haowjy/meridian-stream-go"

	"lisa/internal/doctypes"
	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/services"
)

// Failure stages recorded on the document
const (
	stagePrompt    = "prompt"
	stageSources   = "sources"
	stageBackend   = "backend"
	stageTimeout   = "timeout"
	stageCancelled = "cancelled"
)

// Progress milestones
const (
	progressPrompt  = 10
	progressSources = 20
	progressCeiling = 90
	progressDone    = 100
)

type job struct {
	engine  *Engine
	doc     *models.Document
	project *models.Project
	docType *doctypes.DocumentType
	handle  *jobHandle
	logger  *slog.Logger
}

// work is the mstream work function. It always records a terminal state
// itself; the returned error only informs the stream.
func (j *job) work(streamCtx context.Context, send func(mstream.Event)) error {
	defer close(j.handle.done)
	defer j.engine.finished(j.doc.ID)
	defer j.handle.events.close()

	defer j.handle.cancel(nil)

	cancelCtx, cancel := context.WithCancelCause(streamCtx)
	defer cancel(nil)
	stopRelay := context.AfterFunc(j.handle.ctx, func() {
		cancel(context.Cause(j.handle.ctx))
	})
	defer stopRelay()

	ctx := cancelCtx
	if j.engine.opts.Timeout > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(cancelCtx, j.engine.opts.Timeout)
		defer stop()
	}

	content, err := j.generate(ctx, send)
	if err != nil {
		genErr := j.classify(ctx, err)
		j.fail(ctx, send, genErr)
		return genErr
	}

	j.complete(ctx, send, content)
	return nil
}

func (j *job) generate(ctx context.Context, send func(mstream.Event)) (string, error) {
	deps := j.engine.deps

	prompt, err := deps.Resolver.ResolveEffectivePrompt(ctx, j.project.GroupID, j.doc.DocumentType)
	if err != nil {
		return "", &domain.GenerationError{Stage: stagePrompt, Err: err}
	}
	j.progress(ctx, send, progressPrompt)

	refs, err := deps.Locator.ResolveSources(ctx, j.project.ID)
	if err != nil {
		return "", &domain.GenerationError{Stage: stageSources, Err: err}
	}
	sources, err := deps.Fetcher.FetchSources(ctx, refs)
	if err != nil {
		return "", &domain.GenerationError{Stage: stageSources, Err: err}
	}
	j.progress(ctx, send, progressSources)

	model := j.docType.Model
	if model == "" {
		model = j.engine.opts.DefaultModel
	}
	req := &services.GenerationRequest{
		DocumentType: j.doc.DocumentType,
		Prompt:       prompt,
		Instruction:  j.docType.Instruction,
		Sources:      sources,
		Model:        model,
		MaxTokens:    j.docType.MaxTokens,
	}

	stopTicker := j.tickProgress(ctx, send)
	result, err := deps.Backend.Generate(ctx, req)
	stopTicker()
	if err != nil {
		return "", &domain.GenerationError{Stage: stageBackend, Err: err}
	}
	if ctx.Err() != nil {
		// The backend ignored cancellation and returned late
		return "", &domain.GenerationError{Stage: stageBackend, Err: ctx.Err()}
	}
	return result.Content, nil
}

// classify prefers cancellation and timeout over whatever error the
// interrupted step surfaced
func (j *job) classify(ctx context.Context, err error) *domain.GenerationError {
	if errors.Is(context.Cause(ctx), errCancelled) {
		return &domain.GenerationError{Stage: stageCancelled}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.GenerationError{
			Stage: stageTimeout,
			Err:   fmt.Errorf("generation exceeded %s", j.engine.opts.Timeout),
		}
	}
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}
	return &domain.GenerationError{Stage: stageBackend, Err: err}
}

// tickProgress advances progress on a ticker until the returned stop is called
func (j *job) tickProgress(ctx context.Context, send func(mstream.Event)) func() {
	tickCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(j.engine.opts.ProgressInterval)
		defer ticker.Stop()

		current := progressSources
		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				if current >= progressCeiling {
					continue
				}
				current = min(current+j.engine.opts.ProgressStep, progressCeiling)
				j.progress(tickCtx, send, current)
			}
		}
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

func (j *job) progress(ctx context.Context, send func(mstream.Event), value int) {
	if err := j.engine.deps.Documents.UpdateProgress(ctx, j.doc.ID, value); err != nil {
		if ctx.Err() == nil {
			j.logger.Warn("progress update failed", "progress", value, "error", err)
		}
		return
	}
	j.emit(send, EventProgress, &progressPayload{
		DocumentID: j.doc.ID,
		Status:     models.DocumentStatusGenerating,
		Progress:   value,
	})
}

func (j *job) complete(ctx context.Context, send func(mstream.Event), content string) {
	writeCtx := context.WithoutCancel(ctx)
	result := &models.DocumentResult{Content: content}

	if publisher := j.engine.deps.Publisher; publisher != nil && len(j.project.DriveFolderIDs) > 0 {
		url, err := publisher.Publish(ctx, &services.Artifact{
			Name:     fmt.Sprintf("%s v%d", j.docType.DisplayName, j.doc.Version),
			FolderID: j.project.DriveFolderIDs[0],
			Content:  strings.NewReader(content),
		})
		if err != nil {
			j.logger.Warn("publish failed, completing without url", "error", err)
		} else {
			result.URL = &url
		}
	}

	result.CompletedAt = j.engine.now()
	if err := j.engine.deps.Documents.Complete(writeCtx, j.doc.ID, result); err != nil {
		if errors.Is(err, domain.ErrAlreadyTerminal) {
			j.logger.Warn("document finished elsewhere, result discarded")
		} else {
			j.logger.Error("recording completion failed", "error", err)
		}
		return
	}

	j.logger.Info("generation completed", "content_length", len(content))
	j.emit(send, EventCompleted, &progressPayload{
		DocumentID: j.doc.ID,
		Status:     models.DocumentStatusCompleted,
		Progress:   progressDone,
		URL:        result.URL,
	})
}

func (j *job) fail(ctx context.Context, send func(mstream.Event), genErr *domain.GenerationError) {
	writeCtx := context.WithoutCancel(ctx)
	reason := genErr.Error()

	if err := j.engine.deps.Documents.Fail(writeCtx, j.doc.ID, reason, j.engine.now()); err != nil {
		if errors.Is(err, domain.ErrAlreadyTerminal) {
			j.logger.Warn("document finished elsewhere", "reason", reason)
		} else {
			j.logger.Error("recording failure failed", "reason", reason, "error", err)
		}
		return
	}

	j.logger.Warn("generation failed", "stage", genErr.Stage, "error", reason)
	j.emit(send, EventFailed, &progressPayload{
		DocumentID: j.doc.ID,
		Status:     models.DocumentStatusFailed,
		Error:      &reason,
	})
}
