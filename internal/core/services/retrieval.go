package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driven"
	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driving"
	"github.com/roundtable-labs/roundtable-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService ranks speakers for a question by aggregating child
// chunk similarities per speaker.
type RetrievalService struct {
	embeddingService driven.EmbeddingService
	vectorIndex      driven.VectorIndex
	chunkStore       driven.ChunkStore
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(
	embeddingService driven.EmbeddingService,
	vectorIndex driven.VectorIndex,
	chunkStore driven.ChunkStore,
) *RetrievalService {
	return &RetrievalService{
		embeddingService: embeddingService,
		vectorIndex:      vectorIndex,
		chunkStore:       chunkStore,
	}
}

// Retrieve embeds the question, searches the vector index, and returns
// the top speakers with their supporting transcript context.
func (s *RetrievalService) Retrieve(
	ctx context.Context, question string, opts domain.RetrieveOptions,
) (*domain.RetrievalResult, error) {
	logger.Section("Speaker Retrieval")
	logger.Debug("Question: %q", question)

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	opts = opts.Normalise()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("TopKChildren: %d, NumExperts: %d", opts.TopKChildren, opts.NumExperts)

	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.vectorIndex == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	logger.Debug("Generating question embedding...")
	embedding, err := s.embeddingService.Embed(ctx, question)
	if err != nil {
		logger.Warn("Question embedding failed: %v", err)
		return nil, fmt.Errorf("%w: embed question: %v", domain.ErrEmbeddingUnavailable, err)
	}
	logger.Debug("Question embedding: %d dimensions", len(embedding))

	hits, err := s.vectorIndex.Search(ctx, embedding, opts.TopKChildren)
	if err != nil {
		logger.Warn("Vector search failed: %v", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrVectorIndexUnavailable, err)
	}
	logger.Debug("Vector search: %d hits", len(hits))

	if len(hits) == 0 {
		logger.Warn("No child chunks matched the question")
		return nil, domain.ErrNoRelevantSpeakers
	}

	scores := aggregateSpeakers(hits)
	logger.Info("Distinct speakers in results: %d", len(scores))

	sort.Slice(scores, func(i, j int) bool {
		return scores[i].Less(scores[j])
	})
	selected := scores
	if len(selected) > opts.NumExperts {
		selected = selected[:opts.NumExperts]
	}

	result := &domain.RetrievalResult{Question: question}
	for _, score := range selected {
		chunks, err := s.resolveParents(ctx, hits, score.Speaker)
		if err != nil {
			return nil, fmt.Errorf("resolve context for %s: %w", score.Speaker, err)
		}
		logger.Debug("Speaker %s: normalized=%.4f raw=%.4f chunks=%d parents=%d",
			score.Speaker, score.Normalized(), score.RawSum, score.ChunkCount, len(chunks))
		result.Speakers = append(result.Speakers, domain.SpeakerContext{
			Speaker: score.Speaker,
			Score:   score,
			Chunks:  chunks,
		})
	}

	logger.Info("Selected speakers: %v", result.SpeakerNames())

	// A short panel is still a panel: return everything that matched,
	// never padded, and let the caller decide whether to proceed.
	if len(scores) < opts.NumExperts {
		logger.Warn("Only %d speakers available, %d requested", len(scores), opts.NumExperts)
		return result, fmt.Errorf("%w: %d speakers matched, %d requested",
			domain.ErrInsufficientResults, len(scores), opts.NumExperts)
	}
	return result, nil
}

// aggregateSpeakers folds the ordered hit list into per-speaker scores.
// FirstSeen records the ordinal of the speaker's earliest hit, which
// keeps the final tie-break deterministic.
func aggregateSpeakers(hits []driven.VectorHit) []domain.SpeakerScore {
	index := make(map[string]int)
	var scores []domain.SpeakerScore

	for i, hit := range hits {
		if hit.Speaker == "" {
			continue
		}
		pos, ok := index[hit.Speaker]
		if !ok {
			index[hit.Speaker] = len(scores)
			scores = append(scores, domain.SpeakerScore{
				Speaker:   hit.Speaker,
				FirstSeen: i,
			})
			pos = len(scores) - 1
		}
		scores[pos].RawSum += hit.Similarity
		scores[pos].ChunkCount++
	}

	return scores
}

// resolveParents maps a speaker's child hits to deduplicated parent
// chunks, each scored by its best child similarity.
func (s *RetrievalService) resolveParents(
	ctx context.Context, hits []driven.VectorHit, speaker string,
) ([]domain.RankedParent, error) {
	type parentAgg struct {
		best    float64
		matches int
		order   int
	}
	agg := make(map[string]*parentAgg)
	var orderCounter int

	for _, hit := range hits {
		if hit.Speaker != speaker || hit.ParentID == "" {
			continue
		}
		pa, ok := agg[hit.ParentID]
		if !ok {
			pa = &parentAgg{order: orderCounter}
			orderCounter++
			agg[hit.ParentID] = pa
		}
		if hit.Similarity > pa.best {
			pa.best = hit.Similarity
		}
		pa.matches++
	}

	type entry struct {
		id string
		pa *parentAgg
	}
	entries := make([]entry, 0, len(agg))
	for id, pa := range agg {
		entries = append(entries, entry{id, pa})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].pa.best != entries[j].pa.best {
			return entries[i].pa.best > entries[j].pa.best
		}
		return entries[i].pa.order < entries[j].pa.order
	})

	ranked := make([]domain.RankedParent, 0, len(entries))
	for _, e := range entries {
		parent, err := s.chunkStore.GetParent(ctx, e.id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Index and store drifted apart; skip the orphan.
				logger.Warn("Parent chunk %s missing from store", e.id)
				continue
			}
			return nil, fmt.Errorf("get parent %s: %w", e.id, err)
		}
		ranked = append(ranked, domain.RankedParent{
			Parent:       *parent,
			Similarity:   e.pa.best,
			ChildMatches: e.pa.matches,
		})
	}

	return ranked, nil
}
