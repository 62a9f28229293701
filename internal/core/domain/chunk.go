package domain

// ParentChunk is a large (~2048 character) span of one speaker's
// transcript. Parents are what the generator sees: big enough to carry
// coherent context, too big for precise vector matching.
// Parents are immutable once ingested.
type ParentChunk struct {
	// ID is the unique identifier for the parent chunk.
	ID string

	// Speaker is the normalised guest name that produced this text.
	Speaker string

	// SourceFile is the transcript file the chunk came from.
	SourceFile string

	// Timestamp is the position marker from the transcript, when present
	// (e.g. "00:03:48").
	Timestamp string

	// PrecedingQuestion is the host question this passage answered,
	// attached during parsing for context.
	PrecedingQuestion string

	// Text is the chunk content.
	Text string

	// Position is the ordinal position within the source file.
	Position int
}

// ChildChunk is a small (~512 character) span nested inside a parent.
// Children are what the vector index matches against: small enough for
// high-precision similarity, each carrying a back-reference to the
// parent returned for context.
//
// Invariant: a child's Speaker always equals its parent's Speaker, and
// its Text is a contiguous span of the parent's Text.
type ChildChunk struct {
	// ID is the unique identifier for the child chunk.
	ID string

	// ParentID references the owning ParentChunk.
	ParentID string

	// Speaker is carried down from the parent so index hits can be
	// aggregated per speaker without a parent lookup.
	Speaker string

	// Text is the chunk content.
	Text string

	// Position is the ordinal position within the parent.
	Position int

	// Embedding is the vector representation used for similarity search.
	Embedding []float32
}

// IndexStats summarises the ingested corpus.
type IndexStats struct {
	Parents  int
	Children int
	Speakers int
}
