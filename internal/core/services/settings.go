package services

import (
	"fmt"
	"strings"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driven"
	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedDims      = "embedding.dimensions"
	keyGenProvider    = "generation.provider"
	keyGenModel       = "generation.model"
	keyGenBaseURL     = "generation.base_url"
	keyGenAPIKey      = "generation.api_key"
	keyPanelRounds    = "panel.rounds"
	keyPanelExperts   = "panel.experts"
	keyPanelLength    = "panel.length_level"
	keyPanelTopK      = "panel.top_k_children"
	keyIngestDir      = "ingest.transcripts_dir"
	keyIngestParent   = "ingest.parent_chunk_size"
	keyIngestPOverlap = "ingest.parent_overlap"
	keyIngestChild    = "ingest.child_chunk_size"
	keyIngestCOverlap = "ingest.child_overlap"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDims, defaults.Embedding.Dimensions),
		},
		Generation: domain.GenerationSettings{
			Provider: s.getProvider(keyGenProvider, defaults.Generation.Provider),
			Model:    s.getString(keyGenModel, defaults.Generation.Model),
			BaseURL:  s.configStore.GetString(keyGenBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyGenAPIKey),
		},
		Panel: domain.PanelSettings{
			Rounds:       s.getInt(keyPanelRounds, defaults.Panel.Rounds),
			Experts:      s.getInt(keyPanelExperts, defaults.Panel.Experts),
			LengthLevel:  domain.LengthLevel(s.getInt(keyPanelLength, int(defaults.Panel.LengthLevel))),
			TopKChildren: s.getInt(keyPanelTopK, defaults.Panel.TopKChildren),
		},
		Ingest: domain.IngestSettings{
			TranscriptsDir:  s.getString(keyIngestDir, defaults.Ingest.TranscriptsDir),
			ParentChunkSize: s.getInt(keyIngestParent, defaults.Ingest.ParentChunkSize),
			ParentOverlap:   s.getInt(keyIngestPOverlap, defaults.Ingest.ParentOverlap),
			ChildChunkSize:  s.getInt(keyIngestChild, defaults.Ingest.ChildChunkSize),
			ChildOverlap:    s.getInt(keyIngestCOverlap, defaults.Ingest.ChildOverlap),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.configStore.Set(keyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if err := s.configStore.Set(keyEmbedDims, settings.Embedding.Dimensions); err != nil {
		return fmt.Errorf("save embedding dimensions: %w", err)
	}

	if err := s.configStore.Set(keyGenProvider, settings.Generation.Provider.String()); err != nil {
		return fmt.Errorf("save generation provider: %w", err)
	}
	if err := s.configStore.Set(keyGenModel, settings.Generation.Model); err != nil {
		return fmt.Errorf("save generation model: %w", err)
	}
	if err := s.configStore.Set(keyGenBaseURL, settings.Generation.BaseURL); err != nil {
		return fmt.Errorf("save generation base_url: %w", err)
	}
	if settings.Generation.APIKey != "" {
		if err := s.configStore.Set(keyGenAPIKey, settings.Generation.APIKey); err != nil {
			return fmt.Errorf("save generation api_key: %w", err)
		}
	}

	if err := s.configStore.Set(keyPanelRounds, settings.Panel.Rounds); err != nil {
		return fmt.Errorf("save panel rounds: %w", err)
	}
	if err := s.configStore.Set(keyPanelExperts, settings.Panel.Experts); err != nil {
		return fmt.Errorf("save panel experts: %w", err)
	}
	if err := s.configStore.Set(keyPanelLength, int(settings.Panel.LengthLevel)); err != nil {
		return fmt.Errorf("save panel length_level: %w", err)
	}
	if err := s.configStore.Set(keyPanelTopK, settings.Panel.TopKChildren); err != nil {
		return fmt.Errorf("save panel top_k_children: %w", err)
	}

	if err := s.configStore.Set(keyIngestDir, settings.Ingest.TranscriptsDir); err != nil {
		return fmt.Errorf("save transcripts dir: %w", err)
	}
	if err := s.configStore.Set(keyIngestParent, settings.Ingest.ParentChunkSize); err != nil {
		return fmt.Errorf("save parent chunk size: %w", err)
	}
	if err := s.configStore.Set(keyIngestPOverlap, settings.Ingest.ParentOverlap); err != nil {
		return fmt.Errorf("save parent overlap: %w", err)
	}
	if err := s.configStore.Set(keyIngestChild, settings.Ingest.ChildChunkSize); err != nil {
		return fmt.Errorf("save child chunk size: %w", err)
	}
	if err := s.configStore.Set(keyIngestCOverlap, settings.Ingest.ChildOverlap); err != nil {
		return fmt.Errorf("save child overlap: %w", err)
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	// Keep vector dimensions in step with the model
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetGenerationProvider configures the generation provider.
func (s *SettingsService) SetGenerationProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid generation provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Generation.Provider = provider

	if model != "" {
		settings.Generation.Model = model
	} else if defaultModel, ok := domain.DefaultGenerationModels()[provider]; ok {
		settings.Generation.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.Generation.BaseURL == "" {
			settings.Generation.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.Generation.BaseURL = ""
	}

	settings.Generation.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks if current settings are consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if problems := settings.Validate(); len(problems) > 0 {
		return fmt.Errorf("invalid settings: %s", strings.Join(problems, "; "))
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return *domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateGenerationConfig validates the current generation configuration by pinging the provider.
func (s *SettingsService) ValidateGenerationConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateGeneration(&settings.Generation)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
