package domain

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeakerScore_Normalized(t *testing.T) {
	tests := []struct {
		name  string
		score SpeakerScore
		want  float64
	}{
		{
			name:  "single chunk",
			score: SpeakerScore{RawSum: 0.9, ChunkCount: 1},
			want:  0.9,
		},
		{
			name:  "two chunks dampened",
			score: SpeakerScore{RawSum: 1.8, ChunkCount: 2},
			want:  1.8 / math.Sqrt2,
		},
		{
			name:  "zero chunks",
			score: SpeakerScore{RawSum: 0, ChunkCount: 0},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.score.Normalized(), 1e-12)
		})
	}
}

func TestSpeakerScore_Normalized_MonotonicInRawSum(t *testing.T) {
	// Holding chunk count fixed, more similarity mass never lowers the score.
	prev := -1.0
	for _, raw := range []float64{0.1, 0.5, 0.9, 1.5, 3.0} {
		s := SpeakerScore{RawSum: raw, ChunkCount: 4}
		assert.Greater(t, s.Normalized(), prev)
		prev = s.Normalized()
	}
}

func TestSpeakerScore_Normalized_DampensChunkCount(t *testing.T) {
	// Equal raw sums: the score strictly decreases as chunk count grows.
	prev := math.Inf(1)
	for count := 1; count <= 6; count++ {
		s := SpeakerScore{RawSum: 1.8, ChunkCount: count}
		assert.Less(t, s.Normalized(), prev)
		prev = s.Normalized()
	}
}

func TestSpeakerScore_TwoStrongBeatsOne(t *testing.T) {
	// Two 0.9 chunks outrank a single 0.9 chunk, but score less than the
	// linear sum would suggest.
	one := SpeakerScore{RawSum: 0.9, ChunkCount: 1}
	two := SpeakerScore{RawSum: 1.8, ChunkCount: 2}

	assert.Greater(t, two.Normalized(), one.Normalized())
	assert.Less(t, two.Normalized(), 1.8)
}

func TestSpeakerScore_Less_TieBreaks(t *testing.T) {
	tests := []struct {
		name string
		a, b SpeakerScore
		want bool
	}{
		{
			name: "higher normalized wins",
			a:    SpeakerScore{RawSum: 2.1, ChunkCount: 1},
			b:    SpeakerScore{RawSum: 1.8, ChunkCount: 1},
			want: true,
		},
		{
			name: "equal normalized, higher raw sum wins",
			a:    SpeakerScore{RawSum: 3.6, ChunkCount: 4, FirstSeen: 9},
			b:    SpeakerScore{RawSum: 1.8, ChunkCount: 1, FirstSeen: 0},
			want: true,
		},
		{
			name: "full tie, earlier first-seen wins",
			a:    SpeakerScore{RawSum: 1.8, ChunkCount: 2, FirstSeen: 1},
			b:    SpeakerScore{RawSum: 1.8, ChunkCount: 2, FirstSeen: 5},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Less(tt.b))
			assert.False(t, tt.b.Less(tt.a))
		})
	}
}

func TestSpeakerScore_Less_IsDeterministicOrdering(t *testing.T) {
	scores := []SpeakerScore{
		{Speaker: "d", RawSum: 0.9, ChunkCount: 1, FirstSeen: 7},
		{Speaker: "b", RawSum: 1.8, ChunkCount: 1, FirstSeen: 3},
		{Speaker: "a", RawSum: 2.1, ChunkCount: 1, FirstSeen: 0},
		{Speaker: "c", RawSum: 1.8, ChunkCount: 1, FirstSeen: 5},
		{Speaker: "e", RawSum: 0.5, ChunkCount: 1, FirstSeen: 9},
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Less(scores[j]) })

	got := make([]string, len(scores))
	for i, s := range scores {
		got[i] = s.Speaker
	}
	// The tied 1.8 pair resolves by earliest first-seen ordinal.
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
}

func TestRetrieveOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    RetrieveOptions
		wantErr bool
	}{
		{"valid", RetrieveOptions{TopKChildren: 100, NumExperts: 5}, false},
		{"min experts", RetrieveOptions{TopKChildren: 1, NumExperts: 3}, false},
		{"max experts", RetrieveOptions{TopKChildren: 1, NumExperts: 7}, false},
		{"too few experts", RetrieveOptions{TopKChildren: 100, NumExperts: 2}, true},
		{"too many experts", RetrieveOptions{TopKChildren: 100, NumExperts: 8}, true},
		{"zero top-k", RetrieveOptions{TopKChildren: 0, NumExperts: 5}, true},
		{"negative top-k", RetrieveOptions{TopKChildren: -1, NumExperts: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetrieveOptions_Normalise(t *testing.T) {
	opts := RetrieveOptions{}.Normalise()
	assert.Equal(t, DefaultTopKChildren, opts.TopKChildren)
	assert.Equal(t, DefaultExperts, opts.NumExperts)

	// Explicit values survive.
	opts = RetrieveOptions{TopKChildren: 50, NumExperts: 3}.Normalise()
	assert.Equal(t, 50, opts.TopKChildren)
	assert.Equal(t, 3, opts.NumExperts)
}

func TestSpeakerContext_ContextText(t *testing.T) {
	ctx := SpeakerContext{
		Speaker: "Shreyas Doshi",
		Chunks: []RankedParent{
			{Parent: ParentChunk{Text: "first quote", SourceFile: "ep1.txt", Timestamp: "00:03:48"}, Similarity: 0.9},
			{Parent: ParentChunk{Text: "second quote", SourceFile: "ep1.txt"}, Similarity: 0.8},
			{Parent: ParentChunk{Text: "third quote", SourceFile: "ep2.txt"}, Similarity: 0.7},
			{Parent: ParentChunk{Text: "fourth quote", SourceFile: "ep2.txt"}, Similarity: 0.6},
		},
	}

	text := ctx.ContextText(3)
	assert.Contains(t, text, `[From ep1.txt at 00:03:48]`)
	assert.Contains(t, text, `"first quote"`)
	assert.Contains(t, text, `"third quote"`)
	assert.NotContains(t, text, "fourth quote")

	// Unlimited includes everything.
	assert.Contains(t, ctx.ContextText(0), "fourth quote")
}

func TestSpeakerContext_ContextText_MissingSource(t *testing.T) {
	ctx := SpeakerContext{
		Chunks: []RankedParent{{Parent: ParentChunk{Text: "quote"}}},
	}
	assert.Contains(t, ctx.ContextText(1), "[From Unknown]")
}

func TestRetrievalResult_SpeakerNames(t *testing.T) {
	result := &RetrievalResult{
		Speakers: []SpeakerContext{
			{Speaker: "Alice"},
			{Speaker: "Bob"},
		},
	}
	assert.Equal(t, []string{"Alice", "Bob"}, result.SpeakerNames())
}
