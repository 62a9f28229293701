package mcp

import (
	"context"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
)

func readResourceRequest(uri string) *sdk.ReadResourceRequest {
	return &sdk.ReadResourceRequest{
		Params: &sdk.ReadResourceParams{URI: uri},
	}
}

func TestServer_handleSpeakersResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns speaker list", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Retrieval: &mockRetrievalService{},
			Ingest:    &mockIngestService{speakers: []string{"Alice", "Bob"}},
		})
		require.NoError(t, err)

		result, err := server.handleSpeakersResource(ctx, readResourceRequest(uriScheme+"speakers"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "Alice")
		assert.Contains(t, result.Contents[0].Text, "Bob")
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("missing ingest service yields empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.NoError(t, err)

		result, err := server.handleSpeakersResource(ctx, readResourceRequest(uriScheme+"speakers"))
		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})
}

func TestServer_handleStatsResource(t *testing.T) {
	ctx := context.Background()

	server, err := NewServer(&Ports{
		Retrieval: &mockRetrievalService{},
		Ingest: &mockIngestService{
			stats: &domain.IndexStats{Parents: 10, Children: 40, Speakers: 3},
		},
	})
	require.NoError(t, err)

	result, err := server.handleStatsResource(ctx, readResourceRequest(uriScheme+"stats"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Contains(t, result.Contents[0].Text, `"speakers": 3`)
	assert.Contains(t, result.Contents[0].Text, `"parent_chunks": 10`)
	assert.Contains(t, result.Contents[0].Text, `"child_chunks": 40`)
}
