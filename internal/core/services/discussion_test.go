package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driven"
)

func testRetrievalResult() *domain.RetrievalResult {
	return retrievalResultFor("Alice", "Bob", "Carol")
}

func retrievalResultFor(speakers ...string) *domain.RetrievalResult {
	result := &domain.RetrievalResult{Question: "q"}
	for i, name := range speakers {
		result.Speakers = append(result.Speakers, domain.SpeakerContext{
			Speaker: name,
			Score:   domain.SpeakerScore{Speaker: name, RawSum: 1.0 - float64(i)*0.1, ChunkCount: 1},
			Chunks: []domain.RankedParent{{
				Parent: domain.ParentChunk{
					ID:         "p-" + name,
					SourceFile: "episode.txt",
					Timestamp:  "00:05:00",
					Text:       name + " on the topic",
				},
				Similarity: 0.9,
			}},
		})
	}
	return result
}

// drain collects all events and returns them once the channel closes.
func drain(events <-chan domain.TurnEvent) []domain.TurnEvent {
	var all []domain.TurnEvent
	for ev := range events {
		all = append(all, ev)
	}
	return all
}

func TestDiscussionService_Run(t *testing.T) {
	gen := &mockGenerationClient{responses: []string{"a fine point about roadmaps"}}
	svc := NewDiscussionService(&mockRetrievalService{result: testRetrievalResult()}, gen)

	var session domain.PanelSession
	events, err := svc.Run(context.Background(), domain.PanelRequest{
		Question: "How should I prioritise?",
		Rounds:   2,
		Experts:  3,
	}, &session)
	require.NoError(t, err)

	all := drain(events)

	// 2 rounds x 3 speakers, each with started + 2 fragments + completed.
	var started, completed, fragments int
	for _, ev := range all {
		switch ev.Kind {
		case domain.EventTurnStarted:
			started++
		case domain.EventTurnCompleted:
			completed++
		case domain.EventTurnFragment:
			fragments++
			assert.NotEmpty(t, ev.Fragment)
		}
	}
	assert.Equal(t, 6, started)
	assert.Equal(t, 6, completed)
	assert.Equal(t, 12, fragments)

	require.Equal(t, 6, session.Transcript.Len())
	turns := session.Transcript.Turns()

	// Same rank order every round.
	wantOrder := []string{"Alice", "Bob", "Carol", "Alice", "Bob", "Carol"}
	for i, turn := range turns {
		assert.Equal(t, wantOrder[i], turn.Speaker, "turn %d", i)
		assert.Equal(t, i, turn.Index)
		assert.False(t, turn.Failed())
		assert.Equal(t, "a fine point about roadmaps", turn.Content)
	}
	assert.Equal(t, 1, turns[0].Round)
	assert.Equal(t, 2, turns[3].Round)

	// Every stream must be closed.
	for _, stream := range gen.streams {
		assert.True(t, stream.closed)
	}
}

func TestDiscussionService_Run_SeatsSmallerPanel(t *testing.T) {
	// Two speakers matched where four were asked for. The discussion runs
	// with the panel it has instead of refusing outright.
	gen := &mockGenerationClient{responses: []string{"an answer"}}
	svc := NewDiscussionService(&mockRetrievalService{
		result: retrievalResultFor("Alice", "Bob"),
		err:    domain.ErrInsufficientResults,
	}, gen)

	var session domain.PanelSession
	events, err := svc.Run(context.Background(), domain.PanelRequest{
		Question: "q",
		Rounds:   2,
		Experts:  4,
	}, &session)
	require.NoError(t, err)
	drain(events)

	require.Equal(t, 4, session.Transcript.Len())
	wantOrder := []string{"Alice", "Bob", "Alice", "Bob"}
	for i, turn := range session.Transcript.Turns() {
		assert.Equal(t, wantOrder[i], turn.Speaker, "turn %d", i)
		assert.False(t, turn.Failed())
	}
}

func TestDiscussionService_Run_PromptConstruction(t *testing.T) {
	gen := &mockGenerationClient{responses: []string{"an answer"}}
	svc := NewDiscussionService(&mockRetrievalService{result: testRetrievalResult()}, gen)

	var session domain.PanelSession
	events, err := svc.Run(context.Background(), domain.PanelRequest{
		Question:    "What matters most?",
		Rounds:      2,
		Experts:     3,
		LengthLevel: domain.LengthDetailed,
	}, &session)
	require.NoError(t, err)
	drain(events)

	require.Len(t, gen.calls, 6)

	// Round one: persona carries speaker and length directive, prompt has
	// question and quoted context but no prior responses.
	first := gen.calls[0]
	assert.Contains(t, first.System, "You are Alice.")
	assert.Contains(t, first.System, "2-3 paragraphs")
	assert.Contains(t, first.Prompt, `Question: "What matters most?"`)
	assert.Contains(t, first.Prompt, "[From episode.txt at 00:05:00]")
	assert.Contains(t, first.Prompt, `"Alice on the topic"`)
	assert.NotContains(t, first.Prompt, "WHAT OTHERS SAID")

	// Round two: prior turns included, speaker's own excluded.
	fourth := gen.calls[3]
	assert.Contains(t, fourth.System, "You are Alice.")
	assert.Contains(t, fourth.Prompt, "WHAT OTHERS SAID")
	assert.Contains(t, fourth.Prompt, "[Bob]: an answer")
	assert.Contains(t, fourth.Prompt, "[Carol]: an answer")
	assert.NotContains(t, fourth.Prompt, "[Alice]:")
}

func TestDiscussionService_Run_MidRoundVisibility(t *testing.T) {
	// Each speaker gets a distinct scripted line so the prompt window can
	// be pinned down exactly. With four speakers over three rounds, turn
	// five is Alice opening round two: she sees all four round-one turns
	// and nothing newer, and turn six additionally sees her fresh reply.
	speakers := []string{"Alice", "Bob", "Carol", "Dave"}
	var script []scriptedCall
	for round := 1; round <= 3; round++ {
		for _, name := range speakers {
			script = append(script, scriptedCall{
				response: strings.ToLower(name) + "-r" + strconv.Itoa(round),
			})
		}
	}
	gen := &scriptedGenerationClient{script: script}
	svc := NewDiscussionService(&mockRetrievalService{result: retrievalResultFor(speakers...)}, gen)

	var session domain.PanelSession
	events, err := svc.Run(context.Background(), domain.PanelRequest{
		Question: "q",
		Rounds:   3,
		Experts:  4,
	}, &session)
	require.NoError(t, err)
	drain(events)

	require.Len(t, gen.calls, 12)

	fifth := gen.calls[4].Prompt
	assert.Contains(t, fifth, "[Bob]: bob-r1")
	assert.Contains(t, fifth, "[Carol]: carol-r1")
	assert.Contains(t, fifth, "[Dave]: dave-r1")
	assert.NotContains(t, fifth, "[Alice]:")
	assert.NotContains(t, fifth, "-r2")

	sixth := gen.calls[5].Prompt
	assert.Contains(t, sixth, "[Alice]: alice-r2")
	assert.Contains(t, sixth, "[Carol]: carol-r1")
	assert.Contains(t, sixth, "[Dave]: dave-r1")
	assert.NotContains(t, sixth, "[Bob]:")
	assert.NotContains(t, sixth, "carol-r2")
	assert.NotContains(t, sixth, "dave-r2")
}

func TestDiscussionService_Run_CustomPrompts(t *testing.T) {
	gen := &mockGenerationClient{responses: []string{"an answer"}}
	svc := NewDiscussionService(&mockRetrievalService{result: testRetrievalResult()}, gen)
	svc.SetPromptStore(&mockPromptStore{prompts: map[string]string{
		driven.PromptPersona:  "Persona %s, keep to %s.",
		driven.PromptRoundOne: "Q=%s CTX=%s",
	}})

	var session domain.PanelSession
	events, err := svc.Run(context.Background(), domain.PanelRequest{Question: "q", Rounds: 1, Experts: 3}, &session)
	require.NoError(t, err)
	drain(events)

	require.NotEmpty(t, gen.calls)
	assert.Equal(t, "Persona Alice, keep to 2-3 sentences.", gen.calls[0].System)
	assert.True(t, strings.HasPrefix(gen.calls[0].Prompt, "Q=q CTX="))
}

func TestDiscussionService_Run_TurnFailureContinues(t *testing.T) {
	gen := &mockGenerationClient{recvErr: errors.New("model overloaded")}
	svc := NewDiscussionService(&mockRetrievalService{result: testRetrievalResult()}, gen)

	var session domain.PanelSession
	events, err := svc.Run(context.Background(), domain.PanelRequest{Question: "q", Rounds: 1, Experts: 3}, &session)
	require.NoError(t, err)
	drain(events)

	// All three turns fail but the session still completes.
	require.Equal(t, 3, session.Transcript.Len())
	for _, turn := range session.Transcript.Turns() {
		assert.True(t, turn.Failed())
		assert.Contains(t, turn.Err, "model overloaded")
		assert.Empty(t, turn.Content)
	}
}

func TestDiscussionService_Run_FailedTurnsExcludedFromPrompts(t *testing.T) {
	// First call fails, the rest succeed: later prompts must not quote
	// the failed speaker.
	gen := &scriptedGenerationClient{
		script: []scriptedCall{
			{err: errors.New("timeout")},
			{response: "bob speaks"},
			{response: "carol speaks"},
		},
	}
	svc := NewDiscussionService(&mockRetrievalService{result: testRetrievalResult()}, gen)

	var session domain.PanelSession
	events, err := svc.Run(context.Background(), domain.PanelRequest{Question: "q", Rounds: 1, Experts: 3}, &session)
	require.NoError(t, err)
	drain(events)

	turns := session.Transcript.Turns()
	require.Len(t, turns, 3)
	assert.True(t, turns[0].Failed())
	assert.False(t, turns[1].Failed())
	assert.NotContains(t, session.Transcript.OthersSaid("Carol"), "[Alice]:")
	assert.Contains(t, session.Transcript.OthersSaid("Carol"), "[Bob]: bob speaks")
}

func TestDiscussionService_Run_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gen := &mockGenerationClient{responses: []string{"an answer"}}
	svc := NewDiscussionService(&mockRetrievalService{result: testRetrievalResult()}, gen)

	var session domain.PanelSession
	events, err := svc.Run(ctx, domain.PanelRequest{Question: "q", Rounds: 5, Experts: 3}, &session)
	require.NoError(t, err)

	// Take one completed turn, then abandon.
	for ev := range events {
		if ev.Kind == domain.EventTurnCompleted {
			cancel()
			break
		}
	}

	// The channel must close promptly.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				assert.Less(t, session.Transcript.Len(), 15)
				return
			}
		case <-deadline:
			t.Fatal("event channel did not close after cancellation")
		}
	}
}

func TestDiscussionService_Run_ValidationAndRetrievalErrors(t *testing.T) {
	t.Run("invalid request", func(t *testing.T) {
		svc := NewDiscussionService(&mockRetrievalService{result: testRetrievalResult()}, &mockGenerationClient{})
		var session domain.PanelSession
		_, err := svc.Run(context.Background(), domain.PanelRequest{Question: "q", Rounds: 99}, &session)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("retrieval failure propagates", func(t *testing.T) {
		svc := NewDiscussionService(&mockRetrievalService{err: domain.ErrNoRelevantSpeakers}, &mockGenerationClient{})
		var session domain.PanelSession
		_, err := svc.Run(context.Background(), domain.PanelRequest{Question: "q"}, &session)
		assert.ErrorIs(t, err, domain.ErrNoRelevantSpeakers)
	})

	t.Run("short panel without speakers aborts", func(t *testing.T) {
		svc := NewDiscussionService(&mockRetrievalService{
			result: &domain.RetrievalResult{Question: "q"},
			err:    domain.ErrInsufficientResults,
		}, &mockGenerationClient{})
		var session domain.PanelSession
		_, err := svc.Run(context.Background(), domain.PanelRequest{Question: "q"}, &session)
		assert.ErrorIs(t, err, domain.ErrInsufficientResults)
	})

	t.Run("nil generator", func(t *testing.T) {
		svc := NewDiscussionService(&mockRetrievalService{result: testRetrievalResult()}, nil)
		var session domain.PanelSession
		_, err := svc.Run(context.Background(), domain.PanelRequest{Question: "q"}, &session)
		assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	})
}

// scriptedCall describes one generation outcome for the scripted client.
type scriptedCall struct {
	response string
	err      error
}

// scriptedGenerationClient serves a fixed sequence of outcomes and
// records the requests it saw.
type scriptedGenerationClient struct {
	script []scriptedCall
	pos    int
	calls  []driven.GenerationRequest
}

func (m *scriptedGenerationClient) Generate(_ context.Context, req driven.GenerationRequest) (string, error) {
	m.calls = append(m.calls, req)
	call := m.next()
	return call.response, call.err
}

func (m *scriptedGenerationClient) Stream(_ context.Context, req driven.GenerationRequest) (driven.CompletionStream, error) {
	m.calls = append(m.calls, req)
	call := m.next()
	if call.err != nil {
		return nil, call.err
	}
	return &mockStream{fragments: []string{call.response}}, nil
}

func (m *scriptedGenerationClient) next() scriptedCall {
	if m.pos >= len(m.script) {
		return m.script[len(m.script)-1]
	}
	call := m.script[m.pos]
	m.pos++
	return call
}

func (m *scriptedGenerationClient) ModelName() string { return "scripted" }

func (m *scriptedGenerationClient) Ping(_ context.Context) error { return nil }

func (m *scriptedGenerationClient) Close() error { return nil }
