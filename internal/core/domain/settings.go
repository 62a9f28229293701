package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or
// generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI API or any OpenAI-compatible
	// endpoint (LM Studio, vLLM, ...).
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// AllAIProviders returns the supported providers in display order.
func AllAIProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI-compatible (cloud or local server)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings configures the embedding provider.
type EmbeddingSettings struct {
	Provider   AIProvider
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
}

// IsConfigured returns true if the embedding provider can be constructed.
func (s *EmbeddingSettings) IsConfigured() bool {
	if !s.Provider.IsValid() || s.Model == "" {
		return false
	}
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return true
}

// GenerationSettings configures the generation provider.
type GenerationSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured returns true if the generation provider can be constructed.
func (s *GenerationSettings) IsConfigured() bool {
	if !s.Provider.IsValid() || s.Model == "" {
		return false
	}
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return true
}

// PanelSettings holds defaults for discussion sessions.
type PanelSettings struct {
	Rounds       int
	Experts      int
	LengthLevel  LengthLevel
	TopKChildren int
}

// IngestSettings configures transcript chunking.
type IngestSettings struct {
	// TranscriptsDir is where transcript .txt files live.
	TranscriptsDir string

	// ParentChunkSize and ParentOverlap bound parent chunks (characters).
	ParentChunkSize int
	ParentOverlap   int

	// ChildChunkSize and ChildOverlap bound child chunks (characters).
	ChildChunkSize int
	ChildOverlap   int
}

// AppSettings is the complete application configuration.
type AppSettings struct {
	Embedding  EmbeddingSettings
	Generation GenerationSettings
	Panel      PanelSettings
	Ingest     IngestSettings
}

// DefaultAppSettings returns the out-of-the-box configuration: local
// Ollama for both embeddings and generation.
func DefaultAppSettings() *AppSettings {
	return &AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOllama,
			Model:      "embeddinggemma",
			Dimensions: 768,
		},
		Generation: GenerationSettings{
			Provider: AIProviderOllama,
			Model:    "qwen3:4b",
		},
		Panel: PanelSettings{
			Rounds:       DefaultRounds,
			Experts:      DefaultExperts,
			LengthLevel:  DefaultLengthLevel,
			TopKChildren: DefaultTopKChildren,
		},
		Ingest: IngestSettings{
			TranscriptsDir:  "transcripts",
			ParentChunkSize: DefaultParentChunkSize,
			ParentOverlap:   DefaultParentOverlap,
			ChildChunkSize:  DefaultChildChunkSize,
			ChildOverlap:    DefaultChildOverlap,
		},
	}
}

// DefaultEmbeddingModels maps each provider to its default embedding model.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "embeddinggemma",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultGenerationModels maps each provider to its default generation model.
func DefaultGenerationModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "qwen3:4b",
		AIProviderOpenAI: "gpt-4o-mini",
	}
}

// EmbeddingDimensions maps known embedding models to their vector size.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"embeddinggemma":         768,
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
	}
}

// Validate checks settings for inconsistencies a user could introduce
// through the config file.
func (s *AppSettings) Validate() []string {
	var problems []string

	if !s.Embedding.Provider.IsValid() {
		problems = append(problems, "unknown embedding provider: "+s.Embedding.Provider.String())
	} else if s.Embedding.Provider.RequiresAPIKey() && s.Embedding.APIKey == "" {
		problems = append(problems, s.Embedding.Provider.String()+" embeddings require an API key")
	}

	if !s.Generation.Provider.IsValid() {
		problems = append(problems, "unknown generation provider: "+s.Generation.Provider.String())
	} else if s.Generation.Provider.RequiresAPIKey() && s.Generation.APIKey == "" {
		problems = append(problems, s.Generation.Provider.String()+" generation requires an API key")
	}

	if s.Panel.Rounds < MinRounds || s.Panel.Rounds > MaxRounds {
		problems = append(problems, "panel rounds out of range")
	}
	if s.Panel.Experts < MinExperts || s.Panel.Experts > MaxExperts {
		problems = append(problems, "panel experts out of range")
	}
	if !s.Panel.LengthLevel.IsValid() {
		problems = append(problems, "panel length level out of range")
	}

	if s.Ingest.ChildChunkSize >= s.Ingest.ParentChunkSize {
		problems = append(problems, "child chunk size must be smaller than parent chunk size")
	}

	return problems
}
