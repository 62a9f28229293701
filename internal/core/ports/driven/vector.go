package driven

import "context"

// VectorIndex provides nearest-neighbour search over child-chunk
// embeddings. Each stored vector carries its speaker and parent
// back-reference so retrieval can aggregate per speaker and resolve
// context without extra lookups.
//
// The index is read-only during a query; mutation happens only during
// ingestion.
type VectorIndex interface {
	// Add inserts a vector for the given child chunk.
	Add(ctx context.Context, childID, parentID, speaker string, embedding []float32) error

	// Remove drops the vectors for the given child chunks. Unknown IDs
	// are ignored.
	Remove(ctx context.Context, childIDs []string) error

	// Clear drops every indexed vector.
	Clear(ctx context.Context) error

	// Search finds the k nearest neighbours to the query vector,
	// ordered by similarity descending. Ordering is stable: equal
	// similarities keep insertion order.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Close releases resources.
	Close() error
}

// VectorHit represents one similarity search result.
type VectorHit struct {
	// ChildID is the matched child chunk.
	ChildID string

	// ParentID references the parent chunk providing context.
	ParentID string

	// Speaker is the guest who produced the matched text.
	Speaker string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
