package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding service failed or
	// is not configured. Retrieval is impossible without embeddings; the
	// error is surfaced to the caller without retrying.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not
	// configured or empty.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrNoRelevantSpeakers indicates retrieval matched nothing. The
	// index may be empty or the question entirely off-corpus.
	ErrNoRelevantSpeakers = errors.New("no relevant speakers found")

	// ErrInsufficientResults indicates fewer distinct speakers matched
	// than were requested. Non-fatal: the partial result is still
	// returned alongside this signal, never padded.
	ErrInsufficientResults = errors.New("fewer speakers matched than requested")

	// ErrGenerationUnavailable indicates the generation client is not
	// configured.
	ErrGenerationUnavailable = errors.New("generation client unavailable")

	// ErrGenerationFailed indicates a single speaker's turn could not be
	// generated. Recorded on the error-marked turn; never aborts the
	// session.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrEmptyResponse indicates the generation client returned no
	// content for a turn.
	ErrEmptyResponse = errors.New("empty response")
)
