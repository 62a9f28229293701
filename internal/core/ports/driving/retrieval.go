package driving

import (
	"context"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
)

// RetrievalService ranks indexed speakers by relevance to a question.
type RetrievalService interface {
	// Retrieve embeds the question, searches the vector index, and returns
	// the top speakers with their supporting transcript context.
	//
	// When fewer distinct speakers match than requested, the partial
	// result is returned, never padded, together with
	// domain.ErrInsufficientResults.
	Retrieve(ctx context.Context, question string, opts domain.RetrieveOptions) (*domain.RetrievalResult, error)
}
