// Package memory provides a brute-force in-memory vector index.
//
// Corpora of podcast transcripts stay small enough (tens of thousands of
// child chunks) that exact cosine search over a flat slice outperforms
// the operational cost of an external vector database. The index is
// rebuilt from the chunk store at startup.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry holds one indexed vector with its precomputed magnitude.
type entry struct {
	childID  string
	parentID string
	speaker  string
	vector   []float32
	norm     float64
}

// Index is a brute-force cosine similarity index over child-chunk
// embeddings.
type Index struct {
	mu      sync.RWMutex
	entries []entry
}

// NewIndex creates an empty vector index.
func NewIndex() *Index {
	return &Index{}
}

// NewIndexFromStore builds an index from all child chunks in the store.
// Children without embeddings are skipped.
func NewIndexFromStore(ctx context.Context, store driven.ChunkStore) (*Index, error) {
	children, err := store.ListChildren(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading children: %w", err)
	}

	idx := NewIndex()
	for _, c := range children {
		if len(c.Embedding) == 0 {
			continue
		}
		if err := idx.Add(ctx, c.ID, c.ParentID, c.Speaker, c.Embedding); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Add inserts a vector for the given child chunk.
func (idx *Index) Add(_ context.Context, childID, parentID, speaker string, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("%w: empty embedding for chunk %s", domain.ErrInvalidInput, childID)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = append(idx.entries, entry{
		childID:  childID,
		parentID: parentID,
		speaker:  speaker,
		vector:   embedding,
		norm:     vectorNorm(embedding),
	})
	return nil
}

// Remove drops the vectors for the given child chunks. Unknown IDs are
// ignored.
func (idx *Index) Remove(_ context.Context, childIDs []string) error {
	if len(childIDs) == 0 {
		return nil
	}
	doomed := make(map[string]struct{}, len(childIDs))
	for _, id := range childIDs {
		doomed[id] = struct{}{}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	kept := idx.entries[:0]
	for _, e := range idx.entries {
		if _, gone := doomed[e.childID]; gone {
			continue
		}
		kept = append(kept, e)
	}
	idx.entries = kept
	return nil
}

// Clear drops every indexed vector.
func (idx *Index) Clear(_ context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = nil
	return nil
}

// Search finds the k nearest neighbours to the query vector. Results
// are ordered by similarity descending; ties keep insertion order.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	queryNorm := vectorNorm(query)
	if queryNorm == 0 {
		return nil, nil
	}

	hits := make([]driven.VectorHit, 0, len(idx.entries))
	for _, e := range idx.entries {
		if len(e.vector) != len(query) || e.norm == 0 {
			continue
		}
		sim := dotProduct(query, e.vector) / (queryNorm * e.norm)
		hits = append(hits, driven.VectorHit{
			ChildID:    e.childID,
			ParentID:   e.parentID,
			Speaker:    e.speaker,
			Similarity: sim,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Close is a no-op for the in-memory index.
func (idx *Index) Close() error {
	return nil
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}
