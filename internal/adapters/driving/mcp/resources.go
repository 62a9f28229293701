package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for Roundtable resources.
const uriScheme = "roundtable://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing indexed speakers.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "speakers",
		Name:        "speakers",
		Description: "List of all indexed podcast guests",
		MIMEType:    "application/json",
	}, s.handleSpeakersResource)

	// Static resource for index statistics.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Transcript index statistics",
		MIMEType:    "application/json",
	}, s.handleStatsResource)
}

// handleSpeakersResource returns the list of indexed speakers.
func (s *Server) handleSpeakersResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Ingest == nil {
		return jsonResource(req.Params.URI, []byte("[]")), nil
	}

	speakers, err := s.ports.Ingest.Speakers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing speakers: %w", err)
	}
	if speakers == nil {
		speakers = []string{}
	}

	data, err := json.MarshalIndent(speakers, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling speakers: %w", err)
	}
	return jsonResource(req.Params.URI, data), nil
}

// handleStatsResource returns index statistics.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Ingest == nil {
		return jsonResource(req.Params.URI, []byte("{}")), nil
	}

	stats, err := s.ports.Ingest.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}

	type statsInfo struct {
		Speakers int `json:"speakers"`
		Parents  int `json:"parent_chunks"`
		Children int `json:"child_chunks"`
	}
	data, err := json.MarshalIndent(statsInfo{
		Speakers: stats.Speakers,
		Parents:  stats.Parents,
		Children: stats.Children,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling stats: %w", err)
	}
	return jsonResource(req.Params.URI, data), nil
}

func jsonResource(uri string, data []byte) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}
}
