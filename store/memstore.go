package store

import (
	"context"
	"sync"

	"github.com/tanski-labs/fpgist/gist"
)

// MemStore is an in-memory gist.PageStore, for tests and small collections
// that fit comfortably in a process's heap.
type MemStore struct {
	mu    sync.RWMutex
	pages map[gist.PageID]*gist.Page
}

// NewMemStore creates an empty in-memory page store.
func NewMemStore() *MemStore {
	return &MemStore{
		pages: make(map[gist.PageID]*gist.Page),
	}
}

func (s *MemStore) Get(_ context.Context, id gist.PageID) (*gist.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *MemStore) Put(_ context.Context, page *gist.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[page.ID] = page
	return nil
}

func (s *MemStore) Delete(_ context.Context, id gist.PageID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pages, id)
	return nil
}

// Len returns the number of pages currently stored.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}
