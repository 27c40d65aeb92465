package adapters

import (
	"context"
	"sync"
	"time"

	"google.golang.org/genai"
)

// --- Mocks ---

type generateCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type mockGenerator struct {
	mu    sync.Mutex
	calls []generateCall
	fn    func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, generateCall{model: model, contents: contents, config: config})
	m.mu.Unlock()
	return m.fn(ctx, model, contents, config)
}

func (m *mockGenerator) lastCall() generateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

type mockCache struct {
	mu   sync.Mutex
	data map[string]any
	sets int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string]any{}}
}

func (m *mockCache) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	return val, ok
}

func (m *mockCache) Set(key string, val any, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.data[key] = val
}

// --- Helpers ---

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func imageResponse(data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonStop,
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "here you go"},
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: data}},
			}},
		}},
	}
}
