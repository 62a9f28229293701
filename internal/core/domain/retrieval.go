package domain

import (
	"fmt"
	"math"
	"strings"
)

// Limits and defaults for retrieval requests.
const (
	// MinExperts and MaxExperts bound how many speakers a panel may seat.
	MinExperts = 3
	MaxExperts = 7

	// DefaultExperts is the panel size when the caller doesn't choose one.
	DefaultExperts = 5

	// DefaultTopKChildren is the child-chunk fan-out per query. Sized so
	// that per-speaker aggregation still yields enough distinct speakers.
	DefaultTopKChildren = 100

	// DefaultContextChunks is how many parent chunks a speaker's prompt
	// context includes.
	DefaultContextChunks = 3
)

// RetrieveOptions configures a retrieval query.
type RetrieveOptions struct {
	// TopKChildren is the number of child chunks fetched from the vector
	// index before speaker aggregation.
	TopKChildren int

	// NumExperts is the number of ranked speakers to select.
	NumExperts int
}

// Normalise fills zero values with defaults.
func (o RetrieveOptions) Normalise() RetrieveOptions {
	if o.TopKChildren <= 0 {
		o.TopKChildren = DefaultTopKChildren
	}
	if o.NumExperts == 0 {
		o.NumExperts = DefaultExperts
	}
	return o
}

// Validate checks the options against the allowed ranges.
func (o RetrieveOptions) Validate() error {
	if o.TopKChildren <= 0 {
		return fmt.Errorf("%w: top_k_children must be positive, got %d", ErrInvalidInput, o.TopKChildren)
	}
	if o.NumExperts < MinExperts || o.NumExperts > MaxExperts {
		return fmt.Errorf("%w: num_experts must be in [%d,%d], got %d",
			ErrInvalidInput, MinExperts, MaxExperts, o.NumExperts)
	}
	return nil
}

// SpeakerScore aggregates the similarity evidence for one speaker.
// Recomputed from scratch on every question, never persisted.
type SpeakerScore struct {
	// Speaker is the guest name.
	Speaker string

	// RawSum is the sum of similarity scores over the speaker's matched
	// child chunks.
	RawSum float64

	// ChunkCount is how many of the speaker's child chunks matched.
	ChunkCount int

	// FirstSeen is the ordinal of the speaker's earliest hit in the
	// similarity-ordered search results. Used as the final tie-break so
	// ranking is deterministic.
	FirstSeen int
}

// Normalized returns RawSum / sqrt(ChunkCount): square-root dampening
// rewards multiple strong matches without letting many weak matches
// outrank a single excellent one.
func (s SpeakerScore) Normalized() float64 {
	if s.ChunkCount == 0 {
		return 0
	}
	return s.RawSum / math.Sqrt(float64(s.ChunkCount))
}

// Less orders scores for ranking: higher normalized score first, then
// higher raw sum, then earliest first-seen hit.
func (s SpeakerScore) Less(other SpeakerScore) bool {
	a, b := s.Normalized(), other.Normalized()
	if a != b {
		return a > b
	}
	if s.RawSum != other.RawSum {
		return s.RawSum > other.RawSum
	}
	return s.FirstSeen < other.FirstSeen
}

// RankedParent is a parent chunk selected for a speaker's context,
// scored by the best child match that led to it.
type RankedParent struct {
	// Parent is the resolved parent chunk.
	Parent ParentChunk

	// Similarity is the maximum child similarity that mapped to this
	// parent.
	Similarity float64

	// ChildMatches is how many matched children share this parent.
	ChildMatches int
}

// SpeakerContext is one ranked speaker together with the parent chunks
// that ground their responses.
type SpeakerContext struct {
	// Speaker is the guest name.
	Speaker string

	// Score is the aggregated relevance evidence.
	Score SpeakerScore

	// Chunks holds deduplicated parents, ordered by Similarity descending.
	Chunks []RankedParent
}

// ContextText formats up to maxChunks parent texts as quoted excerpts
// for a prompt. Zero or negative maxChunks means all chunks.
func (c SpeakerContext) ContextText(maxChunks int) string {
	chunks := c.Chunks
	if maxChunks > 0 && len(chunks) > maxChunks {
		chunks = chunks[:maxChunks]
	}
	parts := make([]string, 0, len(chunks))
	for _, rc := range chunks {
		source := rc.Parent.SourceFile
		if source == "" {
			source = "Unknown"
		}
		header := "[From " + source
		if rc.Parent.Timestamp != "" {
			header += " at " + rc.Parent.Timestamp
		}
		header += "]"
		parts = append(parts, header+"\n\""+rc.Parent.Text+"\"")
	}
	return strings.Join(parts, "\n\n")
}

// RetrievalResult is the ranked outcome of one retrieval query.
type RetrievalResult struct {
	// Question is the query that produced this result.
	Question string

	// Speakers holds the selected speakers in rank order.
	Speakers []SpeakerContext
}

// SpeakerNames returns the ranked speaker names.
func (r *RetrievalResult) SpeakerNames() []string {
	names := make([]string, len(r.Speakers))
	for i := range r.Speakers {
		names[i] = r.Speakers[i].Speaker
	}
	return names
}
