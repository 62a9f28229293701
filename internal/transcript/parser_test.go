package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timestampedTranscript = `Lenny (00:00:05):
Welcome to the show. How do you think about building product sense in new PMs who join your team without much background?

Shreyas Doshi (00:00:30):
Product sense comes from deliberate exposure to great products. I ask new PMs to write teardowns of products they admire, and within a quarter the difference in their judgment is visible to everyone around them.

(00:02:10):
The other half is feedback loops. A teardown nobody reviews is a diary entry, so we pair every teardown with a discussion where seniors push back hard on the reasoning.

Lenny (00:03:00):
This episode is brought to you by Vanta, head over to vanta.com and use promo code LENNY.

Shreyas Doshi (00:03:20):
Sure, go ahead.

Lenny (00:03:40):
And how do you handle disagreements about product direction?

KUNAL SHAH (00:04:00):
Disagreements are information. In India we grew up negotiating for everything, and that instinct teaches you that the first stated position is rarely the real one. I look for the incentive behind the argument before responding to the argument itself.
`

const plainTranscript = `Lenny:
What is the hardest part of scaling a marketplace business today when capital is no longer free and growth is scrutinised?

Adriel Frederick:
The hardest part is sequencing. Everyone knows the playbook chapters, but knowing which chapter applies to your city this quarter, with your supply mix, is the actual job. At Lyft we got that wrong twice before we built the discipline to check our assumptions weekly.
`

func TestParse_TimestampedFormat(t *testing.T) {
	turns := Parse(timestampedTranscript, "episode.txt")
	require.Len(t, turns, 2)

	first := turns[0]
	assert.Equal(t, "Shreyas Doshi", first.Speaker)
	assert.Equal(t, "00:00:30", first.Timestamp)
	assert.Equal(t, "episode.txt", first.SourceFile)
	// Continuation merged into the same turn.
	assert.Contains(t, first.Text, "deliberate exposure")
	assert.Contains(t, first.Text, "feedback loops")
	assert.Contains(t, first.PrecedingQuestion, "product sense in new PMs")

	second := turns[1]
	// ALL CAPS names normalised to title case.
	assert.Equal(t, "Kunal Shah", second.Speaker)
	// The sponsor read must not become the preceding question.
	assert.Contains(t, second.PrecedingQuestion, "disagreements about product direction")
	assert.NotContains(t, second.PrecedingQuestion, "promo code")
}

func TestParse_PlainFormat(t *testing.T) {
	turns := Parse(plainTranscript, "lyft.txt")
	require.Len(t, turns, 1)
	assert.Equal(t, "Adriel Frederick", turns[0].Speaker)
	assert.Empty(t, turns[0].Timestamp)
	assert.Contains(t, turns[0].PrecedingQuestion, "scaling a marketplace")
}

func TestParse_NoMarkers(t *testing.T) {
	assert.Nil(t, Parse("Free-form text without any speaker structure.", "x.txt"))
	assert.Nil(t, Parse("", "x.txt"))
}

func TestParse_DropsShortAndSponsorTurns(t *testing.T) {
	text := `Lenny (00:00:05):
What did you learn this year about hiring senior engineers for small startup teams under pressure?

Eliot Horowitz (00:00:30):
Short answer.

Advertisement (00:01:00):
This episode is brought to you by our sponsor, sign up and get a special offer today with promo code PODCAST for your first three months. Really a wonderful product that we use ourselves daily.
`
	turns := Parse(text, "ep.txt")
	assert.Empty(t, turns)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ep.txt")
	require.NoError(t, os.WriteFile(path, []byte(timestampedTranscript), 0o644))

	turns, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, turns, 2)
	assert.Equal(t, "ep.txt", turns[0].SourceFile)

	_, err = ParseFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestIsValidSpeakerName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"simple name", "Shreyas Doshi", true},
		{"single name", "Lenny", true},
		{"name with title", "Julie Zhuo Jr.", true},
		{"too short", "Al", false},
		{"too many words", "This Is Not A Real Speaker Name", false},
		{"sentence indicator", "The Thing Is", false},
		{"interjection", "Honestly", false},
		{"hyphenated interjection", "All-Minds", false},
		{"trailing period", "Something Else Entirely.", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidSpeakerName(tt.input))
		})
	}
}

func TestNormalizeSpeakerName(t *testing.T) {
	assert.Equal(t, "Kunal Shah", NormalizeSpeakerName("KUNAL SHAH"))
	assert.Equal(t, "Shreyas Doshi", NormalizeSpeakerName(" Shreyas Doshi "))
	assert.Equal(t, "McNamara", NormalizeSpeakerName("McNamara"))
}

func TestIsSponsorContent(t *testing.T) {
	assert.True(t, IsSponsorContent("This episode is brought to you by Acme"))
	assert.True(t, IsSponsorContent("Use PROMO CODE lenny at checkout"))
	assert.False(t, IsSponsorContent("We talked about product strategy all day"))
}

func TestIsHost(t *testing.T) {
	assert.True(t, IsHost("Lenny"))
	assert.True(t, IsHost("lenny rachitsky"))
	assert.False(t, IsHost("Shreyas Doshi"))
}

func TestParse_LongTranscriptKeepsOrder(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 5; i++ {
		b.WriteString("Lenny (00:0" + string(rune('0'+i)) + ":00):\nQuestion number about topic " +
			strings.Repeat("x", 80) + "?\n\n")
		b.WriteString("Claire Hughes Johnson (00:0" + string(rune('0'+i)) + ":30):\nAnswer segment " +
			strings.Repeat("y", 120) + "\n\n")
	}
	turns := Parse(b.String(), "ep.txt")
	// Alternating host turns keep the guest turns separate.
	require.Len(t, turns, 5)
	for _, turn := range turns {
		assert.Equal(t, "Claire Hughes Johnson", turn.Speaker)
	}
}
