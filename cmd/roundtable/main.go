// Command roundtable runs simulated expert panel discussions grounded
// in indexed podcast transcripts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/roundtable-labs/roundtable-cli/internal/adapters/driven/ai"
	"github.com/roundtable-labs/roundtable-cli/internal/adapters/driven/config/file"
	"github.com/roundtable-labs/roundtable-cli/internal/adapters/driven/storage/sqlite"
	vectormem "github.com/roundtable-labs/roundtable-cli/internal/adapters/driven/vector/memory"
	"github.com/roundtable-labs/roundtable-cli/internal/adapters/driving/cli"
	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
	"github.com/roundtable-labs/roundtable-cli/internal/core/services"
)

// cloudRequestsPerSecond throttles generation against hosted providers
// so multi-round discussions stay inside per-minute quotas.
const cloudRequestsPerSecond = 2

func main() {
	// Load .env if present. Existing environment variables win.
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}

	promptStore, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("opening prompt store: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	applyEnvOverrides(settings)

	chunkStore, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening chunk store: %w", err)
	}
	defer chunkStore.Close()

	vectorIndex, err := vectormem.NewIndexFromStore(ctx, chunkStore)
	if err != nil {
		return fmt.Errorf("building vector index: %w", err)
	}

	// Unconfigured providers yield nil services; the commands that need
	// them report the condition instead of failing at startup.
	embeddingService, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return fmt.Errorf("creating embedding service: %w", err)
	}
	if embeddingService != nil {
		defer embeddingService.Close()
	}

	generationClient, err := ai.CreateGenerationClient(&settings.Generation)
	if err != nil {
		return fmt.Errorf("creating generation client: %w", err)
	}
	if generationClient != nil {
		defer generationClient.Close()
	}

	retrievalService := services.NewRetrievalService(embeddingService, vectorIndex, chunkStore)

	discussionService := services.NewDiscussionService(retrievalService, generationClient)
	discussionService.SetPromptStore(promptStore)
	if !settings.Generation.Provider.IsLocal() {
		discussionService.SetRequestsPerSecond(cloudRequestsPerSecond)
	}

	ingestService := services.NewIngestService(embeddingService, chunkStore, vectorIndex)

	cli.SetServices(cli.Services{
		Retrieval:  retrievalService,
		Discussion: discussionService,
		Ingest:     ingestService,
		Settings:   settingsService,
	})

	return cli.ExecuteContext(ctx)
}

// applyEnvOverrides fills API keys from the environment when the config
// file leaves them unset.
func applyEnvOverrides(settings *domain.AppSettings) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return
	}
	if settings.Embedding.Provider == domain.AIProviderOpenAI && settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = apiKey
	}
	if settings.Generation.Provider == domain.AIProviderOpenAI && settings.Generation.APIKey == "" {
		settings.Generation.APIKey = apiKey
	}
}
