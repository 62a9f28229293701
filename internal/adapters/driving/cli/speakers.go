package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
)

var speakersRankFor string

var speakersCmd = &cobra.Command{
	Use:   "speakers",
	Short: "List indexed speakers",
	Long: `Lists the distinct speakers found in the indexed transcripts.

With --rank, ranks speakers by relevance to a question instead, showing
the match evidence behind each ranking.`,
	RunE: runSpeakers,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runStats,
}

func init() {
	speakersCmd.Flags().StringVar(&speakersRankFor, "rank", "",
		"rank speakers by relevance to this question")
	rootCmd.AddCommand(speakersCmd)
	rootCmd.AddCommand(statsCmd)
}

func runSpeakers(cmd *cobra.Command, _ []string) error {
	if speakersRankFor != "" {
		return runSpeakersRank(cmd, speakersRankFor)
	}

	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	speakers, err := ingestService.Speakers(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing speakers: %w", err)
	}

	if len(speakers) == 0 {
		cmd.Println("No speakers indexed yet. Run 'roundtable ingest' first.")
		return nil
	}

	cmd.Printf("Indexed speakers (%d):\n", len(speakers))
	for _, name := range speakers {
		cmd.Printf("  %s\n", name)
	}
	return nil
}

func runSpeakersRank(cmd *cobra.Command, question string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	result, err := retrievalService.Retrieve(cmd.Context(), question, domain.RetrieveOptions{})
	if err != nil && (!errors.Is(err, domain.ErrInsufficientResults) || result == nil) {
		return fmt.Errorf("ranking speakers: %w", err)
	}

	cmd.Printf("Speakers ranked for: %q\n\n", question)
	for i, sc := range result.Speakers {
		cmd.Printf("  [%d] %s (score %.3f, %d matching chunks)\n",
			i+1, sc.Speaker, sc.Score.Normalized(), sc.Score.ChunkCount)
	}
	if err != nil {
		cmd.Printf("\nNote: %v\n", err)
	}
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	stats, err := ingestService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}

	cmd.Println("Index statistics")
	cmd.Printf("  Speakers: %d\n", stats.Speakers)
	cmd.Printf("  Parent chunks: %d\n", stats.Parents)
	cmd.Printf("  Child chunks: %d\n", stats.Children)
	return nil
}
