package driving

import (
	"context"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
)

// IngestService indexes transcript files into the chunk store and
// vector index.
type IngestService interface {
	// Ingest scans opts.Dir for transcript files, chunks them, embeds the
	// child chunks, and persists everything.
	Ingest(ctx context.Context, opts domain.IngestOptions) (*domain.IngestReport, error)

	// IngestFile indexes a single transcript file.
	IngestFile(ctx context.Context, path string, opts domain.IngestOptions) (*domain.IngestReport, error)

	// Stats reports the current size of the index.
	Stats(ctx context.Context) (*domain.IndexStats, error)

	// Speakers lists the distinct speakers in the index.
	Speakers(ctx context.Context) ([]string, error)
}
