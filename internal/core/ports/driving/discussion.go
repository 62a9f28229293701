package driving

import (
	"context"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
)

// DiscussionService orchestrates a multi-round panel discussion.
type DiscussionService interface {
	// Run executes a full discussion for the request. Turn events are
	// delivered on the returned channel in order; the channel is closed
	// when the session ends. The session itself, including all completed
	// turns, is delivered to result once the channel closes.
	//
	// Cancelling ctx abandons the session cleanly: in-flight generation
	// stops, the event channel closes, and no error is reported.
	Run(ctx context.Context, req domain.PanelRequest, result *domain.PanelSession) (<-chan domain.TurnEvent, error)
}
