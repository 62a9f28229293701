package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
)

var (
	askRounds  int
	askExperts int
	askLength  int
	askAsker   string
	askTopK    int
	askOutput  string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the panel a question",
	Long: `Runs a multi-round panel discussion for the given question.

The most relevant past guests are selected from the index, each answers
the question grounded in their own transcript quotes, and then responds
to the other panellists over subsequent rounds. Responses stream to the
terminal as they are generated.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askRounds, "rounds", "r", domain.DefaultRounds,
		fmt.Sprintf("number of discussion rounds (%d-%d)", domain.MinRounds, domain.MaxRounds))
	askCmd.Flags().IntVarP(&askExperts, "experts", "e", domain.DefaultExperts,
		fmt.Sprintf("number of panellists (%d-%d)", domain.MinExperts, domain.MaxExperts))
	askCmd.Flags().IntVarP(&askLength, "length", "l", int(domain.DefaultLengthLevel),
		"response length level (1=brief to 5=detailed)")
	askCmd.Flags().StringVar(&askAsker, "asker", domain.DefaultAskerName,
		"how panellists address you")
	askCmd.Flags().IntVar(&askTopK, "top-k", 0,
		"override the child-chunk retrieval fan-out (0 = default)")
	askCmd.Flags().StringVarP(&askOutput, "output", "o", "",
		"write the finished discussion to a markdown file")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if discussionService == nil {
		return errors.New("discussion service not configured")
	}

	req := domain.PanelRequest{
		Question:     args[0],
		AskerName:    askAsker,
		Rounds:       askRounds,
		Experts:      askExperts,
		LengthLevel:  domain.LengthLevel(askLength),
		TopKChildren: askTopK,
	}

	cmd.Println("Assembling the panel...")

	var session domain.PanelSession
	events, err := discussionService.Run(cmd.Context(), req, &session)
	if err != nil {
		return fmt.Errorf("discussion failed: %w", err)
	}

	currentRound := 0
	for ev := range events {
		switch ev.Kind {
		case domain.EventTurnStarted:
			if ev.Round != currentRound {
				currentRound = ev.Round
				if currentRound == 1 {
					cmd.Println("\n=== Initial Thoughts ===")
				} else {
					cmd.Printf("\n=== Round %d ===\n", currentRound)
				}
			}
			cmd.Printf("\n%s:\n", ev.Speaker)
		case domain.EventTurnFragment:
			cmd.Print(ev.Fragment)
		case domain.EventTurnCompleted:
			if ev.Turn != nil && ev.Turn.Failed() {
				cmd.Printf("(no response: %s)", ev.Turn.Err)
			}
			cmd.Println()
		}
	}

	if err := cmd.Context().Err(); err != nil {
		cmd.Println("\nDiscussion abandoned.")
		return nil
	}

	if askOutput != "" {
		if err := os.WriteFile(askOutput, []byte(session.Markdown()), 0600); err != nil {
			return fmt.Errorf("writing markdown export: %w", err)
		}
		cmd.Printf("\nDiscussion saved to %s\n", askOutput)
	}

	return nil
}
