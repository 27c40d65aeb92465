package workflow

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// mockGateway は adapters.ModelGateway のテスト用モックです。
// 各 Func が nil の場合は成功する既定の応答を返します。
type mockGateway struct {
	extractFunc func(ctx context.Context, script string) ([]domain.Character, error)
	planFunc    func(ctx context.Context, script string, chars []domain.Character, count int) ([]string, error)
	renderFunc  func(ctx context.Context, req domain.RenderRequest) (*domain.Image, error)

	extractCalls atomic.Int32
	planCalls    atomic.Int32
	renderCalls  atomic.Int32
}

func (m *mockGateway) ExtractCharacters(ctx context.Context, script string) ([]domain.Character, error) {
	m.extractCalls.Add(1)
	if m.extractFunc != nil {
		return m.extractFunc(ctx, script)
	}
	return []domain.Character{
		{Name: "Minji", Age: "24", Gender: "female", Appearance: "short black hair"},
		{Name: "Jun", Age: "30", Gender: "male", Appearance: "round glasses"},
	}, nil
}

func (m *mockGateway) PlanScenes(ctx context.Context, script string, chars []domain.Character, count int) ([]string, error) {
	m.planCalls.Add(1)
	if m.planFunc != nil {
		return m.planFunc(ctx, script, chars, count)
	}
	scenes := make([]string, count)
	for i := range scenes {
		scenes[i] = fmt.Sprintf("scene %d", i+1)
	}
	return scenes, nil
}

func (m *mockGateway) RenderImage(ctx context.Context, req domain.RenderRequest) (*domain.Image, error) {
	m.renderCalls.Add(1)
	if m.renderFunc != nil {
		return m.renderFunc(ctx, req)
	}
	return &domain.Image{Data: []byte("png:" + req.Prompt), MimeType: "image/png"}, nil
}

// mockWriter は publisher.OutputWriter のテスト用モックです。
type mockWriter struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMockWriter() *mockWriter {
	return &mockWriter{files: map[string][]byte{}}
}

func (m *mockWriter) Write(ctx context.Context, path string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = data
	return nil
}

func (m *mockWriter) file(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	return data, ok
}
