// Package tui provides an interactive terminal user interface for
// running roundtable discussions. It implements a driving adapter
// following hexagonal architecture principles.
package tui

import (
	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval ranks speakers for a question.
	Retrieval driving.RetrievalService

	// Discussion runs panel discussions.
	Discussion driving.DiscussionService

	// Ingest reports index contents.
	Ingest driving.IngestService

	// Settings manages application settings.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	if p.Discussion == nil {
		return ErrMissingDiscussionService
	}
	return nil
}
