package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
)

// RankSpeakersInput is the input schema for the rank_speakers tool.
type RankSpeakersInput struct {
	Question   string `json:"question" jsonschema:"the question to rank speakers against"`
	NumExperts int    `json:"num_experts,omitempty" jsonschema:"number of speakers to select (3-7, default 5)"`
}

// RankedSpeakerOutput represents one ranked speaker.
type RankedSpeakerOutput struct {
	Speaker    string  `json:"speaker"`
	Score      float64 `json:"score"`
	ChunkCount int     `json:"chunk_count"`
	Excerpt    string  `json:"excerpt,omitempty"`
}

// RankSpeakersOutput is the output schema for the rank_speakers tool.
type RankSpeakersOutput struct {
	Speakers []RankedSpeakerOutput `json:"speakers"`
	Count    int                   `json:"count"`
}

// DiscussInput is the input schema for the run_discussion tool.
type DiscussInput struct {
	Question string `json:"question" jsonschema:"the question for the panel to discuss"`
	Rounds   int    `json:"rounds,omitempty" jsonschema:"number of discussion rounds (1-5, default 3)"`
	Experts  int    `json:"experts,omitempty" jsonschema:"number of panellists (3-7, default 5)"`
	Length   int    `json:"length,omitempty" jsonschema:"response length level (1=brief to 5=detailed, default 2)"`
}

// DiscussTurnOutput represents one finished discussion turn.
type DiscussTurnOutput struct {
	Round   int    `json:"round"`
	Speaker string `json:"speaker"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// DiscussOutput is the output schema for the run_discussion tool.
type DiscussOutput struct {
	Question     string              `json:"question"`
	Participants []string            `json:"participants"`
	Turns        []DiscussTurnOutput `json:"turns"`
	Markdown     string              `json:"markdown"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "rank_speakers",
		Description: "Rank indexed podcast guests by relevance to a question",
	}, s.handleRankSpeakers)

	if s.ports.Discussion != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "run_discussion",
			Description: "Run a multi-round simulated panel discussion for a question",
		}, s.handleDiscuss)
	}
}

// handleRankSpeakers handles the rank_speakers tool invocation.
func (s *Server) handleRankSpeakers(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RankSpeakersInput,
) (*mcp.CallToolResult, RankSpeakersOutput, error) {
	opts := domain.RetrieveOptions{NumExperts: input.NumExperts}

	result, err := s.ports.Retrieval.Retrieve(ctx, input.Question, opts)
	if err != nil && (!errors.Is(err, domain.ErrInsufficientResults) || result == nil) {
		return nil, RankSpeakersOutput{}, err
	}

	output := RankSpeakersOutput{
		Speakers: make([]RankedSpeakerOutput, len(result.Speakers)),
		Count:    len(result.Speakers),
	}

	for i, sc := range result.Speakers {
		excerpt := ""
		if len(sc.Chunks) > 0 {
			excerpt = sc.Chunks[0].Parent.Text
		}
		output.Speakers[i] = RankedSpeakerOutput{
			Speaker:    sc.Speaker,
			Score:      sc.Score.Normalized(),
			ChunkCount: sc.Score.ChunkCount,
			Excerpt:    excerpt,
		}
	}

	return nil, output, nil
}

// handleDiscuss handles the run_discussion tool invocation. The whole
// discussion runs to completion before the result is returned; MCP has
// no channel for streaming turn fragments.
func (s *Server) handleDiscuss(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DiscussInput,
) (*mcp.CallToolResult, DiscussOutput, error) {
	req := domain.PanelRequest{
		Question:    input.Question,
		Rounds:      input.Rounds,
		Experts:     input.Experts,
		LengthLevel: domain.LengthLevel(input.Length),
	}

	var session domain.PanelSession
	events, err := s.ports.Discussion.Run(ctx, req, &session)
	if err != nil {
		return nil, DiscussOutput{}, err
	}

	// Drain events; the session is complete when the channel closes.
	for range events {
	}

	if err := ctx.Err(); err != nil {
		return nil, DiscussOutput{}, errors.New("discussion abandoned")
	}

	output := DiscussOutput{
		Question: session.Request.Question,
		Markdown: session.Markdown(),
	}
	if session.Result != nil {
		output.Participants = session.Result.SpeakerNames()
	}
	for _, turn := range session.Transcript.Turns() {
		out := DiscussTurnOutput{
			Round:   turn.Round,
			Speaker: turn.Speaker,
			Content: turn.Content,
		}
		if turn.Failed() {
			out.Error = turn.Err
			out.Content = ""
		}
		output.Turns = append(output.Turns, out)
	}

	return nil, output, nil
}
