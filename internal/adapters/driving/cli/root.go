// Package cli implements the command-line interface using cobra.
// Commands are thin adapters: they parse flags, call driving ports,
// and render results. All wiring happens in the composition root.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driving"
	"github.com/roundtable-labs/roundtable-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services used by the commands. Injected via SetServices before Execute.
var (
	retrievalService  driving.RetrievalService
	discussionService driving.DiscussionService
	ingestService     driving.IngestService
	settingsService   driving.SettingsService
)

// Services holds the driving ports the CLI depends on.
type Services struct {
	Retrieval  driving.RetrievalService
	Discussion driving.DiscussionService
	Ingest     driving.IngestService
	Settings   driving.SettingsService
}

// SetServices injects the driving ports used by the commands.
func SetServices(s Services) {
	retrievalService = s.Retrieval
	discussionService = s.Discussion
	ingestService = s.Ingest
	settingsService = s.Settings
}

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "roundtable",
	Short: "Simulated expert panel discussions from podcast transcripts",
	Long: `Roundtable turns a folder of podcast transcripts into a panel of experts.

Ask a question and the most relevant past guests are seated at a virtual
table, where each answers in their own words - grounded strictly in what
they actually said on the show - and then discusses across multiple rounds.

Start by indexing transcripts with 'roundtable ingest', then ask a
question with 'roundtable ask' or launch the interactive UI with
'roundtable tui'.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"enable verbose logging to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context. The
// context reaches every command through cmd.Context(), so cancelling it
// aborts in-flight discussions and watches.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
