package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/adapters"
	"github.com/shouni/go-storyboard-kit/pkg/director"
	"github.com/shouni/go-storyboard-kit/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStoryboard(planner *mockPlanner, renderer *mockRenderer, reg *domain.Registry, opts Options) *Storyboard {
	return NewStoryboard(NewScenePlanner(planner), renderer, reg, nil, opts)
}

func TestStoryboard_Generate(t *testing.T) {
	for _, n := range []int{4, 13, 99} {
		t.Run("シーン数どおりのアイテムがシーン順に完了すること", func(t *testing.T) {
			planner := &mockPlanner{}
			renderer := &mockRenderer{}
			sb := newTestStoryboard(planner, renderer, finalizedRegistry("A", "B"), Options{})

			batch, err := sb.Start(context.Background(), "script", n, director.StyleWebtoon)
			require.NoError(t, err)
			res, err := batch.Wait()
			require.NoError(t, err)

			require.Len(t, res.Items, n)
			for i, it := range res.Items {
				assert.Equal(t, sceneList(n)[i], it.Prompt)
				assert.Equal(t, it.Prompt, it.OriginalDescription)
				assert.Equal(t, domain.StatusCompleted, it.Status)
				require.NotNil(t, it.Image)
				assert.Contains(t, string(it.Image.Data), "Scene: "+sceneList(n)[i]+".")
			}
			assert.Equal(t, n, res.Completed)
			assert.Equal(t, 100, batch.Progress())
			assert.False(t, res.Stopped)
			assert.Equal(t, int32(n), renderer.calls.Load())
		})
	}
}

func TestStoryboard_ReferencesAttached(t *testing.T) {
	renderer := &mockRenderer{}
	sb := newTestStoryboard(&mockPlanner{}, renderer, finalizedRegistry("Minji", "Jun"), Options{})

	_, err := sb.Generate(context.Background(), "script", 4, director.StyleCinematic)
	require.NoError(t, err)

	for _, req := range renderer.recorded() {
		require.Len(t, req.References, 2)
		assert.Equal(t, "Minji", req.References[0].Name)
		assert.Equal(t, "Jun", req.References[1].Name)
		assert.Equal(t, domain.AspectWidescreen, req.AspectRatio)
		assert.True(t, strings.HasPrefix(req.Prompt, director.StyleCinematic.Prefix()))
	}
}

func TestStoryboard_ReferencesFixedAtStart(t *testing.T) {
	reg := finalizedRegistry("Minji", "Jun")
	release := make(chan struct{})
	planning := make(chan struct{})
	planner := &mockPlanner{planFunc: func(ctx context.Context, script string, chars []domain.Character, count int) ([]string, error) {
		close(planning)
		<-release
		return sceneList(count), nil
	}}
	renderer := &mockRenderer{}
	sb := newTestStoryboard(planner, renderer, reg, Options{})

	batch, err := sb.Start(context.Background(), "script", 4, director.DefaultStyle)
	require.NoError(t, err)
	<-planning
	// シーン分割中に参照画像が外されても、開始時点の参照画像で描画されること
	require.NoError(t, reg.SetReferenceImage(0, nil))
	close(release)

	res, err := batch.Wait()
	require.NoError(t, err)
	assert.Equal(t, 4, res.Completed)
	require.Len(t, renderer.recorded(), 4)
	for _, req := range renderer.recorded() {
		require.Len(t, req.References, 2)
		assert.Equal(t, "Minji", req.References[0].Name)
	}
}

func TestStoryboard_RefusedWithoutReferences(t *testing.T) {
	reg := finalizedRegistry("A", "B")
	require.NoError(t, reg.SetReferenceImage(1, nil))

	planner := &mockPlanner{}
	renderer := &mockRenderer{}
	sb := newTestStoryboard(planner, renderer, reg, Options{})

	batch, err := sb.Start(context.Background(), "script", 4, director.DefaultStyle)
	assert.ErrorIs(t, err, ErrReferencesMissing)
	assert.Nil(t, batch)
	assert.Nil(t, sb.Items())
	assert.Zero(t, planner.calls.Load(), "シーン分割を呼んではいけません")
	assert.Zero(t, renderer.calls.Load(), "描画を呼んではいけません")
}

func TestStoryboard_ConcurrencyBound(t *testing.T) {
	for _, n := range []int{9, 30, 64} {
		renderer := &mockRenderer{renderFunc: func(ctx context.Context, req domain.RenderRequest) (*domain.Image, error) {
			time.Sleep(2 * time.Millisecond)
			return &domain.Image{Data: []byte("x"), MimeType: "image/png"}, nil
		}}
		sb := newTestStoryboard(&mockPlanner{}, renderer, finalizedRegistry("A"), Options{})

		res, err := sb.Generate(context.Background(), "script", n, director.DefaultStyle)
		require.NoError(t, err)
		assert.Equal(t, n, res.Completed)
		assert.LessOrEqual(t, renderer.maxInFlight.Load(), int32(DefaultChunkSize), "同時描画数が上限を超えました (n=%d)", n)
	}
}

func TestStoryboard_StopMidBatch(t *testing.T) {
	const n = 20
	release := make(chan struct{})
	started := make(chan struct{}, n)
	renderer := &mockRenderer{renderFunc: func(ctx context.Context, req domain.RenderRequest) (*domain.Image, error) {
		started <- struct{}{}
		<-release
		return &domain.Image{Data: []byte("x"), MimeType: "image/png"}, nil
	}}
	sb := newTestStoryboard(&mockPlanner{}, renderer, finalizedRegistry("A"), Options{})

	batch, err := sb.Start(context.Background(), "script", n, director.DefaultStyle)
	require.NoError(t, err)

	for range DefaultChunkSize {
		<-started
	}
	for i, it := range batch.Items()[:DefaultChunkSize] {
		assert.Equal(t, domain.StatusGenerating, it.Status, "item %d", i)
	}

	batch.Stop()
	batch.Stop()
	close(release)

	res, err := batch.Wait()
	require.NoError(t, err)
	assert.True(t, res.Stopped)
	assert.Equal(t, DefaultChunkSize, res.Completed, "停止前に発行済みの呼び出しは完了まで書き込まれること")
	assert.Equal(t, n-DefaultChunkSize, res.Skipped)
	for i, it := range res.Items[DefaultChunkSize:] {
		assert.Equal(t, domain.StatusPending, it.Status, "item %d", i+DefaultChunkSize)
		assert.Nil(t, it.Image)
	}
	assert.Equal(t, int32(DefaultChunkSize), renderer.calls.Load())
	assert.Equal(t, 100, batch.Progress())
}

func TestStoryboard_ProgressBetweenChunks(t *testing.T) {
	const n = 20 // 8 + 8 + 4 の 3 チャンク
	var seen atomic.Int32
	firstChunk := make(chan struct{})
	secondChunk := make(chan struct{})
	started := make(chan struct{}, n)
	renderer := &mockRenderer{renderFunc: func(ctx context.Context, req domain.RenderRequest) (*domain.Image, error) {
		gate := firstChunk
		if seen.Add(1) > DefaultChunkSize {
			gate = secondChunk
		}
		started <- struct{}{}
		<-gate
		return &domain.Image{Data: []byte("x"), MimeType: "image/png"}, nil
	}}
	sb := newTestStoryboard(&mockPlanner{}, renderer, finalizedRegistry("A"), Options{})

	batch, err := sb.Start(context.Background(), "script", n, director.DefaultStyle)
	require.NoError(t, err)

	for range DefaultChunkSize {
		<-started
	}
	assert.Equal(t, 0, batch.Progress(), "1 チャンク目の処理中は 0 であること")

	close(firstChunk)
	for range DefaultChunkSize {
		<-started
	}
	assert.Equal(t, 40, batch.Progress(), "1 チャンク目の終了後は 8/20 であること")

	batch.Stop()
	close(secondChunk)
	res, err := batch.Wait()
	require.NoError(t, err)
	assert.True(t, res.Stopped)
	assert.Equal(t, 2*DefaultChunkSize, res.Completed)
	assert.Equal(t, n-2*DefaultChunkSize, res.Skipped)
	assert.Equal(t, 100, batch.Progress(), "スキップしたチャンクも進捗に含まれること")
}

func TestStoryboard_StopDuringPlanning(t *testing.T) {
	release := make(chan struct{})
	planning := make(chan struct{})
	planner := &mockPlanner{planFunc: func(ctx context.Context, script string, chars []domain.Character, count int) ([]string, error) {
		close(planning)
		<-release
		return sceneList(count), nil
	}}
	renderer := &mockRenderer{}
	sb := newTestStoryboard(planner, renderer, finalizedRegistry("A"), Options{})

	batch, err := sb.Start(context.Background(), "script", 4, director.DefaultStyle)
	require.NoError(t, err)
	<-planning
	sb.Stop()
	close(release)

	res, err := batch.Wait()
	require.NoError(t, err)
	assert.True(t, res.Stopped)
	assert.Empty(t, res.Items)
	assert.Nil(t, batch.Items())
	assert.Nil(t, sb.Items())
	assert.Zero(t, renderer.calls.Load())
}

func TestStoryboard_PlanningFailure(t *testing.T) {
	t.Run("シーン分割の失敗はバッチのエラーになること", func(t *testing.T) {
		planner := &mockPlanner{planFunc: func(context.Context, string, []domain.Character, int) ([]string, error) {
			return nil, adapters.ErrPlanningFailure
		}}
		sb := newTestStoryboard(planner, &mockRenderer{}, finalizedRegistry("A"), Options{})

		_, err := sb.Generate(context.Background(), "script", 4, director.DefaultStyle)
		assert.ErrorIs(t, err, adapters.ErrPlanningFailure)
		assert.Nil(t, sb.Items())
	})

	t.Run("空のシーン一覧はErrNoScenesになること", func(t *testing.T) {
		planner := &mockPlanner{planFunc: func(context.Context, string, []domain.Character, int) ([]string, error) {
			return []string{}, nil
		}}
		sb := newTestStoryboard(planner, &mockRenderer{}, finalizedRegistry("A"), Options{})

		_, err := sb.Generate(context.Background(), "script", 4, director.DefaultStyle)
		assert.ErrorIs(t, err, ErrNoScenes)
	})
}

func TestStoryboard_FailureIsolation(t *testing.T) {
	renderer := &mockRenderer{renderFunc: func(ctx context.Context, req domain.RenderRequest) (*domain.Image, error) {
		if strings.Contains(req.Prompt, "Scene: scene 2.") {
			return nil, adapters.ErrRenderFailure
		}
		return &domain.Image{Data: []byte("ok"), MimeType: "image/png"}, nil
	}}
	sb := newTestStoryboard(&mockPlanner{}, renderer, finalizedRegistry("A"), Options{})

	res, err := sb.Generate(context.Background(), "script", 5, director.DefaultStyle)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Completed)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, domain.StatusFailed, res.Items[1].Status)
	assert.Nil(t, res.Items[1].Image)
}

func TestStoryboard_ObservedTransitions(t *testing.T) {
	var (
		mu      sync.Mutex
		history = map[string][]domain.ItemStatus{}
		first   []domain.StoryboardItem
	)
	observer := func(items []domain.StoryboardItem) {
		mu.Lock()
		defer mu.Unlock()
		if first == nil {
			first = items
		}
		for _, it := range items {
			h := history[it.ID]
			if len(h) == 0 || h[len(h)-1] != it.Status {
				history[it.ID] = append(h, it.Status)
			}
			if (it.Image != nil) != (it.Status == domain.StatusCompleted) {
				t.Errorf("画像の有無と状態が一致しません: %s %s", it.ID, it.Status)
			}
		}
	}
	renderer := &mockRenderer{renderFunc: func(ctx context.Context, req domain.RenderRequest) (*domain.Image, error) {
		if strings.Contains(req.Prompt, "Scene: scene 3.") {
			return nil, errors.New("boom")
		}
		return &domain.Image{Data: []byte("ok")}, nil
	}}
	sb := newTestStoryboard(&mockPlanner{}, renderer, finalizedRegistry("A"), Options{Observer: observer})

	_, err := sb.Generate(context.Background(), "script", 10, director.DefaultStyle)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, first, 10, "最初の通知で全アイテムがプレースホルダとして公開されること")
	for _, it := range first {
		assert.Equal(t, domain.StatusPending, it.Status)
	}
	for id, h := range history {
		for i := 1; i < len(h); i++ {
			assert.True(t, domain.CanTransition(h[i-1], h[i]), "%s: %s -> %s", id, h[i-1], h[i])
		}
	}
}

func TestStoryboard_RegenerateItem(t *testing.T) {
	var failScene2 = true
	var mu sync.Mutex
	renderer := &mockRenderer{renderFunc: func(ctx context.Context, req domain.RenderRequest) (*domain.Image, error) {
		mu.Lock()
		defer mu.Unlock()
		if failScene2 && strings.Contains(req.Prompt, "Scene: scene 2.") {
			return nil, adapters.ErrRenderFailure
		}
		return &domain.Image{Data: []byte("img:" + req.Prompt), MimeType: "image/png"}, nil
	}}
	planner := &mockPlanner{}
	sb := newTestStoryboard(planner, renderer, finalizedRegistry("A"), Options{})

	_, err := sb.Generate(context.Background(), "script", 4, director.DefaultStyle)
	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, sb.Items()[1].Status)

	t.Run("失敗したシーンを既存のプロンプトで描き直せること", func(t *testing.T) {
		mu.Lock()
		failScene2 = false
		mu.Unlock()

		require.NoError(t, sb.RegenerateItem(context.Background(), 1, director.DefaultStyle))
		it := sb.Items()[1]
		assert.Equal(t, domain.StatusCompleted, it.Status)
		assert.Equal(t, "scene 2", it.Prompt)
		assert.Equal(t, int32(1), planner.calls.Load(), "再分割してはいけません")
	})

	t.Run("完了済みのシーンも再生成でき、失敗するとFailedになること", func(t *testing.T) {
		mu.Lock()
		failScene2 = true
		mu.Unlock()

		err := sb.RegenerateItem(context.Background(), 1, director.DefaultStyle)
		assert.ErrorIs(t, err, adapters.ErrRenderFailure)
		it := sb.Items()[1]
		assert.Equal(t, domain.StatusFailed, it.Status)
		assert.Nil(t, it.Image)
	})

	t.Run("範囲外のインデックスはErrItemNotFoundになること", func(t *testing.T) {
		assert.ErrorIs(t, sb.RegenerateItem(context.Background(), 10, director.DefaultStyle), ErrItemNotFound)
	})
}

func TestStoryboard_RegenerateWhileGenerating(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 4)
	renderer := &mockRenderer{renderFunc: func(ctx context.Context, req domain.RenderRequest) (*domain.Image, error) {
		started <- struct{}{}
		<-release
		return &domain.Image{Data: []byte("x")}, nil
	}}
	sb := newTestStoryboard(&mockPlanner{}, renderer, finalizedRegistry("A"), Options{})

	batch, err := sb.Start(context.Background(), "script", 4, director.DefaultStyle)
	require.NoError(t, err)
	for range 4 {
		<-started
	}

	assert.ErrorIs(t, sb.RegenerateItem(context.Background(), 0, director.DefaultStyle), ErrItemBusy)
	_, err = sb.Start(context.Background(), "script", 4, director.DefaultStyle)
	assert.ErrorIs(t, err, ErrBatchRunning)

	close(release)
	_, err = batch.Wait()
	require.NoError(t, err)
}
