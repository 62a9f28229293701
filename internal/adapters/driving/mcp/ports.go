package mcp

import (
	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval ranks speakers against a question.
	Retrieval driving.RetrievalService

	// Discussion runs full panel discussions.
	Discussion driving.DiscussionService

	// Ingest exposes index statistics and the speaker list.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	// Discussion and Ingest are optional; their tools and resources are
	// skipped when absent.
	return nil
}
