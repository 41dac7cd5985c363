// Package memory is an in-process implementation of the repositories used
// when no DATABASE_URL is configured, and by tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
)

// Store holds every table behind one RWMutex. Reads hand out copies.
type Store struct {
	mu        sync.RWMutex
	groups    map[string]*models.Group
	projects  map[string]*models.Project
	documents map[string]*models.Document
	l0        *models.L0Prompt
	l1        map[string]*models.L1Prompt // group_id
	l2        map[l2Key]*models.L2Prompt  // (group_id, document_type)
	newID     func() string
}

type l2Key struct {
	groupID string
	docType models.DocumentType
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		groups:    make(map[string]*models.Group),
		projects:  make(map[string]*models.Project),
		documents: make(map[string]*models.Document),
		l1:        make(map[string]*models.L1Prompt),
		l2:        make(map[l2Key]*models.L2Prompt),
		newID:     uuid.NewString,
	}
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// TransactionManager serializes ExecTx bodies. Repository calls made inside
// still take the store lock themselves, so this only gives isolation between
// concurrent read-modify-write sequences, not rollback.
type TransactionManager struct {
	mu sync.Mutex
}

// NewTransactionManager creates a transaction manager for the memory store
func NewTransactionManager() repositories.TransactionManager {
	return &TransactionManager{}
}

// ExecTx runs fn while holding the manager lock
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return fn(ctx)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
