package cli

import (
	"context"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driving"
)

type mockRetrievalService struct {
	result *domain.RetrievalResult
	err    error
}

func (m *mockRetrievalService) Retrieve(_ context.Context, question string, _ domain.RetrieveOptions) (*domain.RetrievalResult, error) {
	if m.result != nil {
		return m.result, m.err
	}
	if m.err != nil {
		return nil, m.err
	}
	return &domain.RetrievalResult{
		Question: question,
		Speakers: []domain.SpeakerContext{
			{Speaker: "Shreyas Doshi", Score: domain.SpeakerScore{RawSum: 1.8, ChunkCount: 4}},
			{Speaker: "April Dunford", Score: domain.SpeakerScore{RawSum: 0.9, ChunkCount: 2}},
		},
	}, nil
}

type mockDiscussionService struct {
	turns []domain.DiscussionTurn
	err   error
}

func (m *mockDiscussionService) Run(_ context.Context, req domain.PanelRequest, result *domain.PanelSession) (<-chan domain.TurnEvent, error) {
	if m.err != nil {
		return nil, m.err
	}

	turns := m.turns
	if turns == nil {
		turns = []domain.DiscussionTurn{
			{Round: 1, Speaker: "Shreyas Doshi", Content: "Focus on leverage.", Index: 0},
			{Round: 1, Speaker: "April Dunford", Content: "Positioning first.", Index: 1},
			{Round: 2, Speaker: "Shreyas Doshi", Content: "Building on that point.", Index: 2},
		}
	}

	if result != nil {
		result.Request = req.Normalise()
		for _, turn := range turns {
			result.Transcript.Append(turn)
		}
	}

	events := make(chan domain.TurnEvent, 3*len(turns))
	for _, turn := range turns {
		turn := turn
		events <- domain.TurnEvent{Kind: domain.EventTurnStarted, Round: turn.Round, Speaker: turn.Speaker}
		if !turn.Failed() {
			events <- domain.TurnEvent{Kind: domain.EventTurnFragment, Round: turn.Round, Speaker: turn.Speaker, Fragment: turn.Content}
		}
		events <- domain.TurnEvent{Kind: domain.EventTurnCompleted, Round: turn.Round, Speaker: turn.Speaker, Turn: &turn}
	}
	close(events)
	return events, nil
}

type mockIngestService struct {
	report   *domain.IngestReport
	stats    *domain.IndexStats
	speakers []string
	err      error
}

func (m *mockIngestService) Ingest(_ context.Context, _ domain.IngestOptions) (*domain.IngestReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.report != nil {
		return m.report, nil
	}
	return &domain.IngestReport{FilesProcessed: 2, Parents: 10, Children: 40, Speakers: 2}, nil
}

func (m *mockIngestService) IngestFile(_ context.Context, _ string, _ domain.IngestOptions) (*domain.IngestReport, error) {
	return m.Ingest(context.Background(), domain.IngestOptions{})
}

func (m *mockIngestService) Stats(_ context.Context) (*domain.IndexStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.stats != nil {
		return m.stats, nil
	}
	return &domain.IndexStats{Parents: 10, Children: 40, Speakers: 2}, nil
}

func (m *mockIngestService) Speakers(_ context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.speakers != nil {
		return m.speakers, nil
	}
	return []string{"April Dunford", "Shreyas Doshi"}, nil
}

type mockSettingsService struct {
	settings *domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.settings != nil {
		return m.settings, nil
	}
	return domain.DefaultAppSettings(), nil
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error { return m.err }

func (m *mockSettingsService) SetEmbeddingProvider(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) SetGenerationProvider(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) Validate() error { return m.err }

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return *domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.err }

func (m *mockSettingsService) ValidateGenerationConfig() error { return m.err }

var (
	_ driving.RetrievalService  = (*mockRetrievalService)(nil)
	_ driving.DiscussionService = (*mockDiscussionService)(nil)
	_ driving.IngestService     = (*mockIngestService)(nil)
	_ driving.SettingsService   = (*mockSettingsService)(nil)
)

// setupTestServices installs mock services into the package-level
// service variables and returns a cleanup function restoring them.
func setupTestServices() func() {
	origRetrieval := retrievalService
	origDiscussion := discussionService
	origIngest := ingestService
	origSettings := settingsService

	retrievalService = &mockRetrievalService{}
	discussionService = &mockDiscussionService{}
	ingestService = &mockIngestService{}
	settingsService = &mockSettingsService{}

	return func() {
		retrievalService = origRetrieval
		discussionService = origDiscussion
		ingestService = origIngest
		settingsService = origSettings
	}
}
