package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
	"lisa/internal/repository/memory"
)

func newTestLedger(t *testing.T) (*Ledger, repositories.DocumentRepository, string) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	group := &models.Group{Name: "Sales", Admins: []string{"alice"}}
	require.NoError(t, memory.NewGroupRepository(store).Create(ctx, group))
	project := &models.Project{GroupID: group.ID, Name: "Acme", DriveFolderIDs: []string{"f"}}
	require.NoError(t, memory.NewProjectRepository(store).Create(ctx, project))

	docs := memory.NewDocumentRepository(store)
	return New(docs, slog.New(slog.NewTextHandler(io.Discard, nil))), docs, project.ID
}

func TestNextVersionStartsAtOne(t *testing.T) {
	l, _, projectID := newTestLedger(t)
	ctx := context.Background()

	next, err := l.NextVersion(ctx, projectID, models.DocumentTypeProposal)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	unlock := l.Lock(projectID, models.DocumentTypeProposal)
	doc, err := l.Reserve(ctx, projectID, models.DocumentTypeProposal, "alice")
	unlock()
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, models.DocumentStatusGenerating, doc.Status)
	require.NotNil(t, doc.Progress)
	assert.Equal(t, 0, *doc.Progress)

	next, err = l.NextVersion(ctx, projectID, models.DocumentTypeProposal)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
}

func TestLatestSkipsFailedAndGenerating(t *testing.T) {
	l, docs, projectID := newTestLedger(t)
	ctx := context.Background()

	latest, err := l.Latest(ctx, projectID, models.DocumentTypeProposal)
	require.NoError(t, err)
	assert.Nil(t, latest)

	v1, err := l.RecordCompleted(ctx, projectID, models.DocumentTypeProposal, "alice", "first")
	require.NoError(t, err)

	v2, err := l.Reserve(ctx, projectID, models.DocumentTypeProposal, "alice")
	require.NoError(t, err)
	require.NoError(t, docs.Fail(ctx, v2.ID, "boom", time.Now()))

	_, err = l.Reserve(ctx, projectID, models.DocumentTypeProposal, "alice")
	require.NoError(t, err)

	latest, err = l.Latest(ctx, projectID, models.DocumentTypeProposal)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, v1.ID, latest.ID)
	assert.Equal(t, 1, latest.Version)
}

// duplicateRepo reports two completed documents with the same version
type duplicateRepo struct {
	repositories.DocumentRepository
}

func (duplicateRepo) TopCompleted(ctx context.Context, projectID string, docType models.DocumentType, limit int) ([]models.Document, error) {
	return []models.Document{
		{ID: "a", ProjectID: projectID, DocumentType: docType, Version: 3, Status: models.DocumentStatusCompleted},
		{ID: "b", ProjectID: projectID, DocumentType: docType, Version: 3, Status: models.DocumentStatusCompleted},
	}, nil
}

func TestLatestDetectsDuplicateVersion(t *testing.T) {
	l := New(duplicateRepo{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := l.Latest(context.Background(), "p", models.DocumentTypeProposal)
	assert.ErrorIs(t, err, domain.ErrLedgerInvariant)
}

// failingCompleteRepo rejects every Complete
type failingCompleteRepo struct {
	repositories.DocumentRepository
}

func (failingCompleteRepo) Complete(ctx context.Context, id string, result *models.DocumentResult) error {
	return errors.New("disk full")
}

func TestRecordCompletedReleasesKeyOnFailure(t *testing.T) {
	_, docs, projectID := newTestLedger(t)
	l := New(failingCompleteRepo{docs}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.RecordCompleted(ctx, projectID, models.DocumentTypeProjectInfoSheet, "alice", "sheet")
	require.Error(t, err)

	history, err := docs.List(context.Background(), models.DocumentFilter{
		ProjectID:    projectID,
		DocumentType: models.DocumentTypeProjectInfoSheet,
	})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.DocumentStatusFailed, history[0].Status)

	// the key is free again
	doc, err := New(docs, slog.New(slog.NewTextHandler(io.Discard, nil))).
		RecordCompleted(context.Background(), projectID, models.DocumentTypeProjectInfoSheet, "alice", "sheet")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Version)
}

func TestHistoryFilters(t *testing.T) {
	l, _, projectID := newTestLedger(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	record := func(docType models.DocumentType, at time.Time) *models.Document {
		t.Helper()
		l.now = func() time.Time { return at }
		doc, err := l.RecordCompleted(ctx, projectID, docType, "alice", string(docType))
		require.NoError(t, err)
		return doc
	}

	p1 := record(models.DocumentTypeProposal, base)
	p2 := record(models.DocumentTypeProposal, base.Add(time.Minute))
	h1 := record(models.DocumentTypeHearingSheet, base.Add(time.Hour))
	q1 := record(models.DocumentTypeQuotation, base.Add(30*time.Second))

	// unfiltered history interleaves types by recency, not by version
	all, err := l.History(ctx, projectID, "", "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	got := make([]string, len(all))
	for i, d := range all {
		got[i] = d.ID
	}
	assert.Equal(t, []string{h1.ID, p2.ID, q1.ID, p1.ID}, got)

	proposals, err := l.History(ctx, projectID, models.DocumentTypeProposal, models.DocumentStatusCompleted)
	require.NoError(t, err)
	require.Len(t, proposals, 2)
	assert.Equal(t, 2, proposals[0].Version)
	assert.Equal(t, 1, proposals[1].Version)

	latest, err := l.Latest(ctx, projectID, models.DocumentTypeProposal)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, p2.ID, latest.ID)
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	k := NewKeyedMutex()

	var (
		wg      sync.WaitGroup
		inside  atomic.Int32
		overlap atomic.Bool
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("p/proposal")
			if inside.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	assert.False(t, overlap.Load())
	assert.Equal(t, 0, k.Len())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	k := NewKeyedMutex()

	unlockA := k.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := k.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
	assert.Equal(t, 1, k.Len())
	unlockA()
	assert.Equal(t, 0, k.Len())
}
