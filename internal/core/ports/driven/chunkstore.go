package driven

import (
	"context"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
)

// ChunkStore persists parent and child chunks. Backed by SQLite.
//
// The stored shape (child embeddings, parent back-references, speaker
// labels) is a compatibility contract: indices written by one version
// must remain readable after re-ingestion by a later one.
type ChunkStore interface {
	// SaveParents stores parent chunks.
	SaveParents(ctx context.Context, parents []domain.ParentChunk) error

	// SaveChildren stores child chunks, embeddings included.
	SaveChildren(ctx context.Context, children []domain.ChildChunk) error

	// GetParent retrieves a parent chunk by ID.
	// Returns domain.ErrNotFound when absent.
	GetParent(ctx context.Context, id string) (*domain.ParentChunk, error)

	// ListChildren returns all stored child chunks, embeddings included.
	// Used to rebuild the in-memory vector index at startup.
	ListChildren(ctx context.Context) ([]domain.ChildChunk, error)

	// ListSpeakers returns the distinct speaker names in the corpus,
	// sorted alphabetically.
	ListSpeakers(ctx context.Context) ([]string, error)

	// DeleteBySourceFile removes all parents from the named source file
	// and their children, returning the IDs of the deleted children so
	// callers can evict them from the vector index. Re-ingesting a file
	// must not leave its previous chunks behind.
	DeleteBySourceFile(ctx context.Context, sourceFile string) ([]string, error)

	// Stats summarises the stored corpus.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Clear removes all stored chunks, for re-ingestion with --reset.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close() error
}
