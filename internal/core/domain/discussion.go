package domain

import (
	"fmt"
	"strings"
	"time"
)

// Limits and defaults for discussion sessions.
const (
	MinRounds     = 1
	MaxRounds     = 5
	DefaultRounds = 3

	DefaultAskerName = "PM"
)

// LengthLevel controls how long each generated response should be,
// from 1 (very brief) to 5 (detailed).
type LengthLevel int

// Available length levels.
const (
	LengthBrief    LengthLevel = 1
	LengthShort    LengthLevel = 2
	LengthMedium   LengthLevel = 3
	LengthLong     LengthLevel = 4
	LengthDetailed LengthLevel = 5

	DefaultLengthLevel = LengthShort
)

// IsValid returns true if the level is in the supported range.
func (l LengthLevel) IsValid() bool {
	return l >= LengthBrief && l <= LengthDetailed
}

// Directive returns the length instruction embedded in the persona
// prompt. Directives scale monotonically with the level.
func (l LengthLevel) Directive() string {
	switch l {
	case LengthBrief:
		return "1-2 sentences"
	case LengthShort:
		return "2-3 sentences"
	case LengthMedium:
		return "3-5 sentences"
	case LengthLong:
		return "1-2 paragraphs"
	case LengthDetailed:
		return "2-3 paragraphs"
	default:
		return LengthShort.Directive()
	}
}

// PanelRequest describes one discussion session to run.
type PanelRequest struct {
	// Question is the user's question to the panel.
	Question string

	// AskerName is how speakers address the user.
	AskerName string

	// Rounds is the number of discussion rounds.
	Rounds int

	// Experts is the number of speakers to seat.
	Experts int

	// LengthLevel scales per-response length.
	LengthLevel LengthLevel

	// TopKChildren overrides the retrieval fan-out when positive.
	TopKChildren int
}

// Normalise fills zero values with defaults.
func (r PanelRequest) Normalise() PanelRequest {
	r.Question = strings.TrimSpace(r.Question)
	if r.AskerName == "" {
		r.AskerName = DefaultAskerName
	}
	if r.Rounds == 0 {
		r.Rounds = DefaultRounds
	}
	if r.Experts == 0 {
		r.Experts = DefaultExperts
	}
	if r.LengthLevel == 0 {
		r.LengthLevel = DefaultLengthLevel
	}
	return r
}

// Validate checks the request against the allowed ranges.
func (r PanelRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return fmt.Errorf("%w: question is empty", ErrInvalidInput)
	}
	if r.Rounds < MinRounds || r.Rounds > MaxRounds {
		return fmt.Errorf("%w: rounds must be in [%d,%d], got %d",
			ErrInvalidInput, MinRounds, MaxRounds, r.Rounds)
	}
	if r.Experts < MinExperts || r.Experts > MaxExperts {
		return fmt.Errorf("%w: experts must be in [%d,%d], got %d",
			ErrInvalidInput, MinExperts, MaxExperts, r.Experts)
	}
	if !r.LengthLevel.IsValid() {
		return fmt.Errorf("%w: length level must be in [%d,%d], got %d",
			ErrInvalidInput, LengthBrief, LengthDetailed, r.LengthLevel)
	}
	return nil
}

// DiscussionTurn is one speaker's contribution in one round.
// Turns are immutable once produced; corrections mean a new session.
type DiscussionTurn struct {
	// Round is the 1-based round number.
	Round int

	// Speaker is the guest who produced this turn.
	Speaker string

	// Content is the generated response text. For failed turns it holds
	// a placeholder.
	Content string

	// Index is the 0-based position in the transcript (round-major,
	// rank-major).
	Index int

	// Err carries the generation failure for error-marked turns, empty
	// otherwise.
	Err string

	// CreatedAt is when the turn was completed.
	CreatedAt time.Time
}

// Failed reports whether this is an error-marked placeholder turn.
func (t DiscussionTurn) Failed() bool {
	return t.Err != ""
}

// TurnEventKind discriminates streamed discussion events.
type TurnEventKind string

// Event kinds emitted while a discussion runs.
const (
	// EventTurnStarted announces that a speaker's turn is being generated.
	EventTurnStarted TurnEventKind = "turn_started"

	// EventTurnFragment carries one streamed text delta of the current turn.
	EventTurnFragment TurnEventKind = "turn_fragment"

	// EventTurnCompleted carries the finished, immutable turn.
	EventTurnCompleted TurnEventKind = "turn_completed"
)

// TurnEvent is one streamed discussion event. Fragment is set for
// EventTurnFragment; Turn is set for EventTurnCompleted.
type TurnEvent struct {
	Kind     TurnEventKind
	Round    int
	Speaker  string
	Fragment string
	Turn     *DiscussionTurn
}

// Transcript is the ordered, append-only sequence of turns across all
// rounds. Insertion order is presentation order is causal order.
type Transcript struct {
	turns []DiscussionTurn
}

// Append adds a completed turn.
func (t *Transcript) Append(turn DiscussionTurn) {
	t.turns = append(t.turns, turn)
}

// Turns returns the recorded turns in order.
func (t *Transcript) Turns() []DiscussionTurn {
	return t.turns
}

// Len returns the number of recorded turns.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// OthersSaid renders every prior turn except the given speaker's own,
// in original order, for inclusion in a discussion prompt.
func (t *Transcript) OthersSaid(speaker string) string {
	var parts []string
	for _, turn := range t.turns {
		if turn.Speaker == speaker || turn.Failed() {
			continue
		}
		parts = append(parts, "["+turn.Speaker+"]: "+turn.Content)
	}
	if len(parts) == 0 {
		return "No other responses yet."
	}
	return strings.Join(parts, "\n\n")
}

// PanelSession holds one generated discussion from question to
// transcript. A session lives for one request and is discarded on the
// next; nothing here is persisted.
type PanelSession struct {
	Request    PanelRequest
	Result     *RetrievalResult
	Transcript Transcript
	StartedAt  time.Time
}

// Markdown renders the finished discussion as a shareable document.
func (s *PanelSession) Markdown() string {
	var b strings.Builder
	b.WriteString("# Roundtable Discussion\n\n")
	b.WriteString("**Question:** " + s.Request.Question + "\n\n")
	if s.Result != nil {
		b.WriteString("**Participants:** " + strings.Join(s.Result.SpeakerNames(), ", ") + "\n\n")
	}
	b.WriteString("**Date:** " + s.StartedAt.Format("2006-01-02 15:04") + "\n\n---\n\n")

	currentRound := 0
	for _, turn := range s.Transcript.Turns() {
		if turn.Round != currentRound {
			if currentRound != 0 {
				b.WriteString("---\n\n")
			}
			currentRound = turn.Round
			if currentRound == 1 {
				b.WriteString("## Initial Thoughts\n\n")
			} else {
				fmt.Fprintf(&b, "## Round %d\n\n", currentRound)
			}
		}
		b.WriteString("### " + turn.Speaker + "\n\n")
		if turn.Failed() {
			b.WriteString("_(no response: " + turn.Err + ")_\n\n")
			continue
		}
		b.WriteString(turn.Content + "\n\n")
	}
	return b.String()
}
