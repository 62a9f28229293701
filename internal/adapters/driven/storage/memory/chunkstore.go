// Package memory provides in-memory implementations of driven port
// interfaces, primarily for testing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu       sync.RWMutex
	parents  map[string]domain.ParentChunk
	children map[string]domain.ChildChunk
	order    []string // child insertion order, for deterministic listing
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		parents:  make(map[string]domain.ParentChunk),
		children: make(map[string]domain.ChildChunk),
	}
}

// SaveParents stores or updates parent chunks.
func (s *ChunkStore) SaveParents(_ context.Context, parents []domain.ParentChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range parents {
		s.parents[p.ID] = p
	}
	return nil
}

// SaveChildren stores or updates child chunks.
func (s *ChunkStore) SaveChildren(_ context.Context, children []domain.ChildChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range children {
		if _, exists := s.children[c.ID]; !exists {
			s.order = append(s.order, c.ID)
		}
		s.children[c.ID] = c
	}
	return nil
}

// GetParent retrieves a parent chunk by ID.
func (s *ChunkStore) GetParent(_ context.Context, id string) (*domain.ParentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parents[id]
	if !ok {
		return nil, fmt.Errorf("%w: parent %s", domain.ErrNotFound, id)
	}
	return &p, nil
}

// ListChildren returns all stored child chunks in insertion order.
func (s *ChunkStore) ListChildren(_ context.Context) ([]domain.ChildChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	children := make([]domain.ChildChunk, 0, len(s.order))
	for _, id := range s.order {
		children = append(children, s.children[id])
	}
	return children, nil
}

// ListSpeakers returns the distinct speaker names, sorted alphabetically.
func (s *ChunkStore) ListSpeakers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, p := range s.parents {
		seen[p.Speaker] = struct{}{}
	}
	speakers := make([]string, 0, len(seen))
	for name := range seen {
		speakers = append(speakers, name)
	}
	sort.Strings(speakers)
	return speakers, nil
}

// DeleteBySourceFile removes all parents from the named source file and
// their children, returning the deleted child IDs.
func (s *ChunkStore) DeleteBySourceFile(_ context.Context, sourceFile string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := make(map[string]struct{})
	for id, p := range s.parents {
		if p.SourceFile == sourceFile {
			doomed[id] = struct{}{}
			delete(s.parents, id)
		}
	}

	var childIDs []string
	kept := s.order[:0]
	for _, id := range s.order {
		c := s.children[id]
		if _, gone := doomed[c.ParentID]; gone {
			childIDs = append(childIDs, id)
			delete(s.children, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return childIDs, nil
}

// Stats summarises the stored corpus.
func (s *ChunkStore) Stats(_ context.Context) (domain.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, p := range s.parents {
		seen[p.Speaker] = struct{}{}
	}
	return domain.IndexStats{
		Parents:  len(s.parents),
		Children: len(s.children),
		Speakers: len(seen),
	}, nil
}

// Clear removes all stored chunks.
func (s *ChunkStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parents = make(map[string]domain.ParentChunk)
	s.children = make(map[string]domain.ChildChunk)
	s.order = nil
	return nil
}

// Close is a no-op for the in-memory store.
func (s *ChunkStore) Close() error {
	return nil
}
