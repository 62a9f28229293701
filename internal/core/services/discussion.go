package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driven"
	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driving"
	"github.com/roundtable-labs/roundtable-cli/internal/logger"
)

// Ensure DiscussionService implements the interfaces.
var (
	_ driving.DiscussionService = (*DiscussionService)(nil)
	_ driven.PromptStoreAware   = (*DiscussionService)(nil)
)

// Default prompt templates, used when no PromptStore is configured or a
// named prompt is missing.
const (
	defaultPersonaPrompt = `You are %s. Answer based ONLY on the quotes provided - do not invent information.

STRICT RULES:
1. First word must NOT be: Okay, Well, So, Look, Honestly, I think, I agree, That's, You
2. NO stage directions like (smiling), (adjusting mic), etc.
3. NO quotation marks around your response
4. NEVER repeat or paraphrase what others said - use YOUR OWN words
5. Reference SPECIFIC examples from your quotes
6. Keep to %s`

	defaultRoundOnePrompt = `Question: "%s"

YOUR ACTUAL QUOTES FROM THE PODCAST:
---
%s
---

Share YOUR unique perspective using a specific example from your quotes. Start with a concrete insight.`

	defaultDiscussionPrompt = `Question: "%s"

WHAT OTHERS SAID:
%s

YOUR ACTUAL QUOTES FROM THE PODCAST:
---
%s
---

IMPORTANT: Do NOT echo or restate what others said. Start with YOUR OWN fresh angle.

Either:
- DISAGREE with a specific point and explain why
- ADD a different example that challenges the consensus
- SHARE a contrarian take from your experience

Be specific and concrete. No generic agreement.`
)

// generationTemperature keeps responses varied without drifting from
// the supplied quotes.
const generationTemperature = 0.7

// turnEventBuffer sizes the event channel so slow consumers don't stall
// fragment delivery immediately.
const turnEventBuffer = 64

// DiscussionService runs multi-round panel discussions. Turns are
// generated sequentially so each speaker can react to everything said
// before them.
type DiscussionService struct {
	retrieval driving.RetrievalService
	generator driven.GenerationClient
	prompts   driven.PromptStore
	limiter   *rate.Limiter
}

// NewDiscussionService creates a new discussion service.
func NewDiscussionService(
	retrieval driving.RetrievalService,
	generator driven.GenerationClient,
) *DiscussionService {
	return &DiscussionService{
		retrieval: retrieval,
		generator: generator,
		limiter:   rate.NewLimiter(rate.Inf, 1),
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *DiscussionService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// SetRequestsPerSecond throttles generation calls. Useful against cloud
// providers with per-minute quotas; local providers run unthrottled.
func (s *DiscussionService) SetRequestsPerSecond(rps float64) {
	if rps <= 0 {
		s.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
}

// Run executes a full discussion for the request.
func (s *DiscussionService) Run(
	ctx context.Context, req domain.PanelRequest, result *domain.PanelSession,
) (<-chan domain.TurnEvent, error) {
	req = req.Normalise()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.generator == nil {
		return nil, domain.ErrGenerationUnavailable
	}

	logger.Section("Panel Discussion")
	logger.Info("Question: %q", req.Question)
	logger.Debug("Rounds: %d, Experts: %d, Length: %d", req.Rounds, req.Experts, req.LengthLevel)

	retrieved, err := s.retrieval.Retrieve(ctx, req.Question, domain.RetrieveOptions{
		TopKChildren: req.TopKChildren,
		NumExperts:   req.Experts,
	})
	if err != nil {
		// A smaller panel than requested still runs; anything else aborts.
		if !errors.Is(err, domain.ErrInsufficientResults) || retrieved == nil || len(retrieved.Speakers) == 0 {
			return nil, err
		}
		logger.Warn("Seating a smaller panel: %v", err)
	}

	result.Request = req
	result.Result = retrieved
	result.StartedAt = time.Now()

	events := make(chan domain.TurnEvent, turnEventBuffer)
	go s.runRounds(ctx, req, retrieved, result, events)
	return events, nil
}

// runRounds drives the discussion loop. Speakers take turns in rank
// order every round. Generation failures produce error-marked turns and
// the session continues; only context cancellation stops it early.
func (s *DiscussionService) runRounds(
	ctx context.Context,
	req domain.PanelRequest,
	retrieved *domain.RetrievalResult,
	session *domain.PanelSession,
	events chan<- domain.TurnEvent,
) {
	defer close(events)

	index := 0
	for round := 1; round <= req.Rounds; round++ {
		logger.Debug("Round %d of %d", round, req.Rounds)
		for _, speaker := range retrieved.Speakers {
			if err := s.limiter.Wait(ctx); err != nil {
				logger.Info("Session abandoned: %v", ctx.Err())
				return
			}

			if !emit(ctx, events, domain.TurnEvent{
				Kind:    domain.EventTurnStarted,
				Round:   round,
				Speaker: speaker.Speaker,
			}) {
				logger.Info("Session abandoned: %v", ctx.Err())
				return
			}

			content, err := s.generateTurn(ctx, req, round, speaker, &session.Transcript, events)
			if ctx.Err() != nil {
				logger.Info("Session abandoned: %v", ctx.Err())
				return
			}

			turn := domain.DiscussionTurn{
				Round:     round,
				Speaker:   speaker.Speaker,
				Content:   content,
				Index:     index,
				CreatedAt: time.Now(),
			}
			if err != nil {
				logger.Warn("Turn failed for %s (round %d): %v", speaker.Speaker, round, err)
				turn.Content = ""
				turn.Err = err.Error()
			}
			index++
			session.Transcript.Append(turn)

			if !emit(ctx, events, domain.TurnEvent{
				Kind:    domain.EventTurnCompleted,
				Round:   round,
				Speaker: speaker.Speaker,
				Turn:    &turn,
			}) {
				logger.Info("Session abandoned: %v", ctx.Err())
				return
			}
		}
	}
	logger.Info("Discussion complete: %d turns", session.Transcript.Len())
}

// generateTurn streams one speaker's response, forwarding fragments as
// events, and returns the accumulated text.
func (s *DiscussionService) generateTurn(
	ctx context.Context,
	req domain.PanelRequest,
	round int,
	speaker domain.SpeakerContext,
	transcript *domain.Transcript,
	events chan<- domain.TurnEvent,
) (string, error) {
	genReq := driven.GenerationRequest{
		System:      s.personaPrompt(speaker.Speaker, req.LengthLevel),
		Prompt:      s.turnPrompt(req.Question, round, speaker, transcript),
		Temperature: generationTemperature,
	}

	stream, err := s.generator.Stream(ctx, genReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	defer stream.Close()

	var b strings.Builder
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
		}
		if fragment == "" {
			continue
		}
		b.WriteString(fragment)
		if !emit(ctx, events, domain.TurnEvent{
			Kind:     domain.EventTurnFragment,
			Round:    round,
			Speaker:  speaker.Speaker,
			Fragment: fragment,
		}) {
			return "", ctx.Err()
		}
	}

	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", domain.ErrEmptyResponse
	}
	return content, nil
}

// personaPrompt builds the system prompt framing the speaker.
func (s *DiscussionService) personaPrompt(speaker string, length domain.LengthLevel) string {
	return fmt.Sprintf(s.loadPrompt(driven.PromptPersona, defaultPersonaPrompt),
		speaker, length.Directive())
}

// turnPrompt builds the user prompt for one turn. Round one sees only
// the question and the speaker's context; later rounds also see what
// the other panellists have said so far.
func (s *DiscussionService) turnPrompt(
	question string, round int, speaker domain.SpeakerContext, transcript *domain.Transcript,
) string {
	context := speaker.ContextText(domain.DefaultContextChunks)
	if round == 1 {
		return fmt.Sprintf(s.loadPrompt(driven.PromptRoundOne, defaultRoundOnePrompt),
			question, context)
	}
	return fmt.Sprintf(s.loadPrompt(driven.PromptDiscussion, defaultDiscussionPrompt),
		question, transcript.OthersSaid(speaker.Speaker), context)
}

// emit delivers an event unless the context is cancelled first.
func emit(ctx context.Context, events chan<- domain.TurnEvent, ev domain.TurnEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// loadPrompt returns the named prompt from the store, falling back to
// the built-in default.
func (s *DiscussionService) loadPrompt(name, fallback string) string {
	if s.prompts == nil {
		return fallback
	}
	prompt, err := s.prompts.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return fallback
	}
	return prompt
}
