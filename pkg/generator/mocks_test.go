package generator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// mockRenderer は ImageRenderer のテスト用モックです。
// renderFunc が nil の場合はプロンプトを含む PNG 風のデータを返します。
type mockRenderer struct {
	renderFunc func(ctx context.Context, req domain.RenderRequest) (*domain.Image, error)

	calls       atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	mu       sync.Mutex
	requests []domain.RenderRequest
}

func (m *mockRenderer) RenderImage(ctx context.Context, req domain.RenderRequest) (*domain.Image, error) {
	m.calls.Add(1)
	cur := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		prev := m.maxInFlight.Load()
		if cur <= prev || m.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.renderFunc != nil {
		return m.renderFunc(ctx, req)
	}
	return &domain.Image{Data: []byte("png:" + req.Prompt), MimeType: "image/png"}, nil
}

func (m *mockRenderer) recorded() []domain.RenderRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.RenderRequest(nil), m.requests...)
}

// mockPlanner は adapters.ScenePlanner のテスト用モックです。
type mockPlanner struct {
	planFunc func(ctx context.Context, script string, chars []domain.Character, count int) ([]string, error)
	calls    atomic.Int32
}

func (m *mockPlanner) PlanScenes(ctx context.Context, script string, chars []domain.Character, count int) ([]string, error) {
	m.calls.Add(1)
	if m.planFunc != nil {
		return m.planFunc(ctx, script, chars, count)
	}
	return sceneList(count), nil
}

func sceneList(n int) []string {
	scenes := make([]string, n)
	for i := range scenes {
		scenes[i] = fmt.Sprintf("scene %d", i+1)
	}
	return scenes
}

// finalizedRegistry は全員が参照画像を持つ Registry を返します。
func finalizedRegistry(names ...string) *domain.Registry {
	reg := domain.NewRegistry()
	chars := make([]domain.Character, len(names))
	for i, n := range names {
		chars[i] = domain.Character{
			Name:           n,
			ReferenceImage: &domain.Image{Data: []byte("ref:" + n), MimeType: "image/png"},
		}
	}
	reg.SetAll(chars)
	return reg
}
