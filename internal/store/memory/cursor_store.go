package memory

import (
	"context"
	"sync"

	"github.com/alanyoungcy/poolscout/internal/domain"
)

// CursorStore holds the scan cursor in memory. It does not survive
// restarts; serve deployments use the postgres implementation instead.
type CursorStore struct {
	mu    sync.Mutex
	block uint64
	set   bool
}

// NewCursorStore creates an unset in-memory cursor store.
func NewCursorStore() *CursorStore {
	return &CursorStore{}
}

func (s *CursorStore) Cursor(context.Context) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.block, s.set, nil
}

func (s *CursorStore) SetCursor(_ context.Context, block uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.block = block
	s.set = true
	return nil
}

var _ domain.CursorStore = (*CursorStore)(nil)
