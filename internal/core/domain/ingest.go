package domain

// Default chunking parameters, in characters.
const (
	DefaultParentChunkSize = 2048
	DefaultParentOverlap   = 200
	DefaultChildChunkSize  = 512
	DefaultChildOverlap    = 50
)

// IngestOptions controls one ingestion run.
type IngestOptions struct {
	// Dir is the directory scanned for transcript files.
	Dir string

	// Reset clears the chunk store and vector index before indexing.
	Reset bool

	// ParentChunkSize and ParentOverlap size the generation-context chunks.
	ParentChunkSize int
	ParentOverlap   int

	// ChildChunkSize and ChildOverlap size the embedded retrieval chunks.
	ChildChunkSize int
	ChildOverlap   int
}

// Normalise fills unset chunking parameters with defaults.
func (o *IngestOptions) Normalise() {
	if o.ParentChunkSize <= 0 {
		o.ParentChunkSize = DefaultParentChunkSize
	}
	if o.ParentOverlap < 0 {
		o.ParentOverlap = DefaultParentOverlap
	}
	if o.ChildChunkSize <= 0 {
		o.ChildChunkSize = DefaultChildChunkSize
	}
	if o.ChildOverlap < 0 {
		o.ChildOverlap = DefaultChildOverlap
	}
}

// IngestReport summarises an ingestion run.
type IngestReport struct {
	// FilesProcessed is the number of transcript files indexed.
	FilesProcessed int

	// FilesSkipped is the number of files rejected (unreadable or no
	// recognisable turns).
	FilesSkipped int

	// Parents and Children count the chunks written.
	Parents  int
	Children int

	// Speakers counts the distinct speakers seen across processed files.
	Speakers int
}
