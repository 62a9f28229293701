package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
	"github.com/roundtable-labs/roundtable-cli/internal/logger"
)

var (
	ingestReset bool
	ingestWatch bool
)

// watchSettleDelay batches rapid consecutive writes to the same file
// (editors often truncate then write) into a single re-ingestion.
const watchSettleDelay = 500 * time.Millisecond

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Index transcript files",
	Long: `Indexes podcast transcript .txt files from a directory.

Each transcript is parsed into speaker turns, split into chunks, and
embedded for retrieval. Without a directory argument the configured
transcripts directory is used.

With --watch, the directory is monitored after the initial pass and new
or changed transcripts are re-indexed automatically.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false,
		"clear the existing index before ingesting")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false,
		"keep watching the directory for new or changed transcripts")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	dir := transcriptsDir(args)
	if dir == "" {
		return errors.New("no transcripts directory given or configured")
	}

	opts := domain.IngestOptions{Dir: dir, Reset: ingestReset}

	cmd.Printf("Ingesting transcripts from %s...\n", dir)
	report, err := ingestService.Ingest(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	printReport(cmd, report)

	if !ingestWatch {
		return nil
	}

	// The initial reset already happened; watch updates are incremental.
	opts.Reset = false
	return watchTranscripts(cmd.Context(), cmd, dir, opts)
}

// transcriptsDir resolves the directory to ingest: the positional
// argument if given, otherwise the configured default.
func transcriptsDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if settingsService == nil {
		return ""
	}
	settings, err := settingsService.Get()
	if err != nil {
		return ""
	}
	return settings.Ingest.TranscriptsDir
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	cmd.Printf("Done: %d files indexed", report.FilesProcessed)
	if report.FilesSkipped > 0 {
		cmd.Printf(" (%d skipped)", report.FilesSkipped)
	}
	cmd.Println()
	cmd.Printf("  %d speakers, %d parent chunks, %d child chunks\n",
		report.Speakers, report.Parents, report.Children)
}

// watchTranscripts re-ingests transcript files as they appear or change.
func watchTranscripts(ctx context.Context, cmd *cobra.Command, dir string, opts domain.IngestOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	cmd.Printf("Watching %s for changes (Ctrl+C to stop)...\n", dir)

	// Pending files settle briefly before re-ingestion.
	pending := make(map[string]struct{})
	var settle <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !strings.HasSuffix(event.Name, ".txt") {
				continue
			}
			pending[event.Name] = struct{}{}
			settle = time.After(watchSettleDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case <-settle:
			for path := range pending {
				report, err := ingestService.IngestFile(ctx, path, opts)
				if err != nil {
					cmd.Printf("Failed to ingest %s: %v\n", filepath.Base(path), err)
					continue
				}
				cmd.Printf("Re-indexed %s: %d parents, %d children\n",
					filepath.Base(path), report.Parents, report.Children)
			}
			pending = make(map[string]struct{})
			settle = nil
		}
	}
}
