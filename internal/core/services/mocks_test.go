package services

import (
	"context"
	"io"

	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
	"github.com/roundtable-labs/roundtable-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding  []float32
	embedErr   error
	dims       int
	batchCalls int
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.embedding
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 768
}

func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	hits      []driven.VectorHit
	added     []driven.VectorHit
	removed   []string
	cleared   bool
	searchErr error
	addErr    error
}

func (m *mockVectorIndex) Add(_ context.Context, childID, parentID, speaker string, _ []float32) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.added = append(m.added, driven.VectorHit{ChildID: childID, ParentID: parentID, Speaker: speaker})
	return nil
}

func (m *mockVectorIndex) Remove(_ context.Context, childIDs []string) error {
	m.removed = append(m.removed, childIDs...)
	return nil
}

func (m *mockVectorIndex) Clear(_ context.Context) error {
	m.cleared = true
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

func (m *mockVectorIndex) Len() int { return len(m.hits) + len(m.added) }

func (m *mockVectorIndex) Close() error { return nil }

// mockChunkStore implements driven.ChunkStore for testing.
type mockChunkStore struct {
	parents  map[string]domain.ParentChunk
	children []domain.ChildChunk
	speakers []string
	getErr   error
	saveErr  error
	cleared  bool
}

func newMockChunkStore() *mockChunkStore {
	return &mockChunkStore{parents: make(map[string]domain.ParentChunk)}
}

func (m *mockChunkStore) SaveParents(_ context.Context, parents []domain.ParentChunk) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, p := range parents {
		m.parents[p.ID] = p
	}
	return nil
}

func (m *mockChunkStore) SaveChildren(_ context.Context, children []domain.ChildChunk) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.children = append(m.children, children...)
	return nil
}

func (m *mockChunkStore) GetParent(_ context.Context, id string) (*domain.ParentChunk, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.parents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *mockChunkStore) ListChildren(_ context.Context) ([]domain.ChildChunk, error) {
	return m.children, nil
}

func (m *mockChunkStore) ListSpeakers(_ context.Context) ([]string, error) {
	return m.speakers, nil
}

func (m *mockChunkStore) Stats(_ context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{
		Parents:  len(m.parents),
		Children: len(m.children),
		Speakers: len(m.speakers),
	}, nil
}

func (m *mockChunkStore) DeleteBySourceFile(_ context.Context, sourceFile string) ([]string, error) {
	doomed := make(map[string]struct{})
	for id, p := range m.parents {
		if p.SourceFile == sourceFile {
			doomed[id] = struct{}{}
			delete(m.parents, id)
		}
	}
	var childIDs []string
	kept := m.children[:0]
	for _, c := range m.children {
		if _, gone := doomed[c.ParentID]; gone {
			childIDs = append(childIDs, c.ID)
			continue
		}
		kept = append(kept, c)
	}
	m.children = kept
	return childIDs, nil
}

func (m *mockChunkStore) Clear(_ context.Context) error {
	m.cleared = true
	m.parents = make(map[string]domain.ParentChunk)
	m.children = nil
	return nil
}

func (m *mockChunkStore) Close() error { return nil }

// mockStream implements driven.CompletionStream for testing.
type mockStream struct {
	fragments []string
	pos       int
	recvErr   error
	closed    bool
}

func (m *mockStream) Recv() (string, error) {
	if m.pos < len(m.fragments) {
		f := m.fragments[m.pos]
		m.pos++
		return f, nil
	}
	if m.recvErr != nil {
		return "", m.recvErr
	}
	return "", io.EOF
}

func (m *mockStream) Close() error {
	m.closed = true
	return nil
}

// mockGenerationClient implements driven.GenerationClient for testing.
// Responses are served in order; when exhausted, the last one repeats.
type mockGenerationClient struct {
	responses []string
	streamErr error
	recvErr   error
	calls     []driven.GenerationRequest
	streams   []*mockStream
}

func (m *mockGenerationClient) Generate(_ context.Context, req driven.GenerationRequest) (string, error) {
	if m.streamErr != nil {
		return "", m.streamErr
	}
	m.calls = append(m.calls, req)
	return m.nextResponse(), nil
}

func (m *mockGenerationClient) Stream(_ context.Context, req driven.GenerationRequest) (driven.CompletionStream, error) {
	if m.streamErr != nil {
		return nil, m.streamErr
	}
	m.calls = append(m.calls, req)
	stream := &mockStream{recvErr: m.recvErr}
	if m.recvErr == nil {
		// Deliver the response in two fragments to exercise accumulation.
		resp := m.nextResponse()
		half := len(resp) / 2
		stream.fragments = []string{resp[:half], resp[half:]}
	}
	m.streams = append(m.streams, stream)
	return stream, nil
}

func (m *mockGenerationClient) nextResponse() string {
	if len(m.responses) == 0 {
		return ""
	}
	i := len(m.calls) - 1
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	return m.responses[i]
}

func (m *mockGenerationClient) ModelName() string { return "mock-llm" }

func (m *mockGenerationClient) Ping(_ context.Context) error { return nil }

func (m *mockGenerationClient) Close() error { return nil }

// mockRetrievalService implements driving.RetrievalService for testing.
type mockRetrievalService struct {
	result *domain.RetrievalResult
	err    error
}

func (m *mockRetrievalService) Retrieve(_ context.Context, question string, _ domain.RetrieveOptions) (*domain.RetrievalResult, error) {
	if m.result == nil {
		return nil, m.err
	}
	result := *m.result
	result.Question = question
	return &result, m.err
}

// mockConfigStore implements driven.ConfigStore for testing.
type mockConfigStore struct {
	values map[string]any
	setErr error
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	if v, ok := m.values[key].(string); ok {
		return v
	}
	return ""
}

func (m *mockConfigStore) GetInt(key string) int {
	if v, ok := m.values[key].(int); ok {
		return v
	}
	return 0
}

func (m *mockConfigStore) GetBool(key string) bool {
	if v, ok := m.values[key].(bool); ok {
		return v
	}
	return false
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	if v, ok := m.values[key].([]string); ok {
		return v
	}
	return nil
}

func (m *mockConfigStore) Set(key string, value any) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Save() error { return nil }

func (m *mockConfigStore) Load() error { return nil }

func (m *mockConfigStore) Path() string { return "/tmp/mock-config.toml" }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (m *mockPromptStore) Reload() {}
