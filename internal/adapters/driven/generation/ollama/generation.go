// Package ollama provides a generation client adapter using Ollama.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driven"
)

// Ensure GenerationClient implements the interface.
var _ driven.GenerationClient = (*GenerationClient)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "qwen3:4b"
	DefaultTimeout = 300 * time.Second
)

// Config holds configuration for the Ollama generation client.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: qwen3:4b).
	Model string

	// Timeout is the request timeout for blocking calls (default: 300s).
	// Streaming calls are bounded by their context instead.
	Timeout time.Duration
}

// GenerationClient produces completions using Ollama's chat API.
type GenerationClient struct {
	client       *http.Client
	streamClient *http.Client
	baseURL      string
	model        string
}

// chatMessage is the Ollama chat message format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// chatResponse is one Ollama /api/chat response object. With streaming
// enabled the endpoint emits one JSON object per line.
type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// NewGenerationClient creates a new Ollama generation client.
func NewGenerationClient(cfg Config) *GenerationClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &GenerationClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		// No fixed timeout: a streamed discussion turn legitimately takes
		// as long as the model needs. The caller's context bounds it.
		streamClient: &http.Client{},
		baseURL:      cfg.BaseURL,
		model:        cfg.Model,
	}
}

func (c *GenerationClient) buildRequest(genReq driven.GenerationRequest, stream bool) chatRequest {
	var messages []chatMessage
	if genReq.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: genReq.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: genReq.Prompt})

	reqBody := chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   stream,
	}
	if genReq.MaxTokens > 0 || genReq.Temperature > 0 {
		reqBody.Options = &options{
			NumPredict:  genReq.MaxTokens,
			Temperature: genReq.Temperature,
		}
	}
	return reqBody
}

func (c *GenerationClient) post(ctx context.Context, client *http.Client, reqBody chatRequest) (*http.Response, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/api/chat",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}
	return resp, nil
}

// Generate produces a complete response in one blocking call.
func (c *GenerationClient) Generate(ctx context.Context, genReq driven.GenerationRequest) (string, error) {
	resp, err := c.post(ctx, c.client, c.buildRequest(genReq, false))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if chatResp.Error != "" {
		return "", fmt.Errorf("ollama error: %s", chatResp.Error)
	}

	return chatResp.Message.Content, nil
}

// Stream produces a response as a stream of text fragments.
func (c *GenerationClient) Stream(ctx context.Context, genReq driven.GenerationRequest) (driven.CompletionStream, error) {
	resp, err := c.post(ctx, c.streamClient, c.buildRequest(genReq, true))
	if err != nil {
		return nil, err
	}

	return &chatStream{
		body:    resp.Body,
		scanner: bufio.NewScanner(resp.Body),
	}, nil
}

// chatStream reads Ollama's newline-delimited JSON stream.
type chatStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

// Recv returns the next text fragment, or io.EOF when the stream ends.
func (s *chatStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk chatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", fmt.Errorf("decode stream chunk: %w", err)
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("ollama error: %s", chunk.Error)
		}
		if chunk.Done {
			s.done = true
			if chunk.Message.Content != "" {
				return chunk.Message.Content, nil
			}
			return "", io.EOF
		}
		return chunk.Message.Content, nil
	}

	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("read stream: %w", err)
	}
	s.done = true
	return "", io.EOF
}

// Close releases the underlying connection.
func (s *chatStream) Close() error {
	s.done = true
	return s.body.Close()
}

// ModelName returns the name of the model being used.
func (c *GenerationClient) ModelName() string {
	return c.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
// This is a lightweight check that validates connectivity without running inference.
func (c *GenerationClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("ollama: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("ollama: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (c *GenerationClient) Close() error {
	// HTTP clients don't need explicit cleanup
	return nil
}
