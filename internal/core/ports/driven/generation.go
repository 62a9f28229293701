package driven

import "context"

// GenerationClient produces language-model completions for discussion
// turns. The provider endpoint, model name, and credential are opaque
// configuration injected at construction.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI-compatible servers (OpenAI, LM Studio, vLLM)
type GenerationClient interface {
	// Generate produces a complete response in one blocking call.
	Generate(ctx context.Context, req GenerationRequest) (string, error)

	// Stream produces a response as a finite, single-use stream of text
	// fragments. The caller must Close the stream, including on early
	// abandonment, so the underlying connection is released.
	Stream(ctx context.Context, req GenerationRequest) (CompletionStream, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerationRequest describes one completion call.
type GenerationRequest struct {
	// System is the persona framing (speaker identity, rules, length
	// directive).
	System string

	// Prompt is the user-role content (question, context, prior turns).
	Prompt string

	// MaxTokens caps the response length. Zero means provider default.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}

// CompletionStream is a finite, non-restartable sequence of text
// fragments from one generation call.
type CompletionStream interface {
	// Recv returns the next text fragment. It returns io.EOF when the
	// stream is exhausted, or another error if generation failed
	// mid-stream.
	Recv() (string, error)

	// Close releases the underlying connection. Safe to call more than
	// once and after Recv returned io.EOF.
	Close() error
}
