package mcp

import (
	"context"
	"time"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	result *domain.RetrievalResult
	err    error
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context,
	_ string,
	_ domain.RetrieveOptions,
) (*domain.RetrievalResult, error) {
	return m.result, m.err
}

// mockDiscussionService is a mock implementation of driving.DiscussionService.
// It writes a fixed transcript into the session and closes the channel.
type mockDiscussionService struct {
	turns []domain.DiscussionTurn
	err   error
}

func (m *mockDiscussionService) Run(
	_ context.Context,
	req domain.PanelRequest,
	result *domain.PanelSession,
) (<-chan domain.TurnEvent, error) {
	if m.err != nil {
		return nil, m.err
	}

	result.Request = req.Normalise()
	result.StartedAt = time.Now()
	result.Result = &domain.RetrievalResult{Question: req.Question}
	for _, turn := range m.turns {
		result.Transcript.Append(turn)
	}

	events := make(chan domain.TurnEvent, len(m.turns))
	for i := range m.turns {
		events <- domain.TurnEvent{
			Kind:    domain.EventTurnCompleted,
			Round:   m.turns[i].Round,
			Speaker: m.turns[i].Speaker,
			Turn:    &m.turns[i],
		}
	}
	close(events)
	return events, nil
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	report   *domain.IngestReport
	stats    *domain.IndexStats
	speakers []string
	err      error
}

func (m *mockIngestService) Ingest(_ context.Context, _ domain.IngestOptions) (*domain.IngestReport, error) {
	return m.report, m.err
}

func (m *mockIngestService) IngestFile(_ context.Context, _ string, _ domain.IngestOptions) (*domain.IngestReport, error) {
	return m.report, m.err
}

func (m *mockIngestService) Stats(_ context.Context) (*domain.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockIngestService) Speakers(_ context.Context) ([]string, error) {
	return m.speakers, m.err
}
