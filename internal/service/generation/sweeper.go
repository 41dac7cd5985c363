package generation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lisa/internal/domain"
	"lisa/internal/domain/repositories"
)

// staleReason is recorded on documents the sweeper fails
const staleReason = "stale: generation did not finish"

// Sweeper fails generating documents that outlived every job that could own
// them, e.g. after a restart.
type Sweeper struct {
	docRepo repositories.DocumentRepository
	maxAge  time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewSweeper creates a sweeper failing documents older than maxAge
func NewSweeper(docRepo repositories.DocumentRepository, maxAge time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		docRepo: docRepo,
		maxAge:  maxAge,
		logger:  logger.With("component", "sweeper"),
		now:     time.Now,
	}
}

// Run sweeps every interval until ctx is done
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("sweep failed", "error", err)
			}
		}
	}
}

// Sweep fails every stale generating document and returns how many it failed
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	stale, err := s.docRepo.ListGeneratingBefore(ctx, now.Add(-s.maxAge))
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, doc := range stale {
		err := s.docRepo.Fail(ctx, doc.ID, staleReason, now)
		switch {
		case err == nil:
			failed++
			s.logger.Warn("stale document failed",
				"document_id", doc.ID,
				"project_id", doc.ProjectID,
				"document_type", doc.DocumentType,
				"created_at", doc.CreatedAt,
			)
		case errors.Is(err, domain.ErrAlreadyTerminal):
			// finished between list and fail
		default:
			return failed, err
		}
	}
	return failed, nil
}
