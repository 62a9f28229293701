package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
)

func TestSpeakersCmd_Use(t *testing.T) {
	assert.Equal(t, "speakers", speakersCmd.Use)
}

func TestSpeakersCmd_ListsSpeakers(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"speakers"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Indexed speakers (2):")
	assert.Contains(t, out, "April Dunford")
	assert.Contains(t, out, "Shreyas Doshi")
}

func TestSpeakersCmd_EmptyIndex(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	ingestService = &mockIngestService{speakers: []string{}}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"speakers"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No speakers indexed yet.")
}

func TestSpeakersCmd_RankFlag(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"speakers", "--rank", "How do I prioritise?"})
	defer func() {
		rootCmd.SetArgs(nil)
		speakersRankFor = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, `Speakers ranked for: "How do I prioritise?"`)
	assert.Contains(t, out, "[1] Shreyas Doshi (score 0.900, 4 matching chunks)")
	assert.Contains(t, out, "[2] April Dunford")
}

func TestSpeakersCmd_RankFlag_ShortPanel(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	retrievalService = &mockRetrievalService{
		result: &domain.RetrievalResult{
			Question: "q",
			Speakers: []domain.SpeakerContext{
				{Speaker: "Shreyas Doshi", Score: domain.SpeakerScore{RawSum: 1.8, ChunkCount: 4}},
			},
		},
		err: domain.ErrInsufficientResults,
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"speakers", "--rank", "q"})
	defer func() {
		rootCmd.SetArgs(nil)
		speakersRankFor = ""
	}()

	err := rootCmd.Execute()

	// A short ranking is still printed, with the shortfall noted.
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "[1] Shreyas Doshi")
	assert.Contains(t, out, "Note:")
}

func TestStatsCmd_PrintsCounts(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"stats"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Speakers: 2")
	assert.Contains(t, out, "Parent chunks: 10")
	assert.Contains(t, out, "Child chunks: 40")
}
