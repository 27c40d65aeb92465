package generator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/adapters"
	"github.com/shouni/go-storyboard-kit/pkg/director"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Storyboard は、シーン一覧から参照画像付きのシーン画像を生成するオーケストレーターです。
// シーンはチャンク単位で順番に処理し、チャンク内のシーンは並列に描画します。
type Storyboard struct {
	planner   *ScenePlanner
	renderer  adapters.ImageRenderer
	registry  *domain.Registry
	prompt    prompts.ImagePrompt
	chunkSize int
	interval  time.Duration
	observer  Observer

	mu      sync.Mutex
	board   *board
	current *Batch
}

// NewStoryboard は Storyboard の新しいインスタンスを初期化します。
func NewStoryboard(planner *ScenePlanner, renderer adapters.ImageRenderer, registry *domain.Registry, prompt prompts.ImagePrompt, opts Options) *Storyboard {
	if prompt == nil {
		prompt = prompts.NewImagePromptBuilder()
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Storyboard{
		planner:   planner,
		renderer:  renderer,
		registry:  registry,
		prompt:    prompt,
		chunkSize: chunkSize,
		interval:  opts.RateInterval,
		observer:  opts.Observer,
	}
}

// Start はバッチを開始し、そのハンドルを返します。
// 参照画像のないキャラクターがいる場合は、アイテムを作らず外部呼び出しもせずに ErrReferencesMissing を返します。
func (s *Storyboard) Start(ctx context.Context, script string, count int, style director.Style) (*Batch, error) {
	if !s.registry.IsFinalized() {
		return nil, ErrReferencesMissing
	}

	s.mu.Lock()
	if s.current != nil && s.current.Running() {
		s.mu.Unlock()
		return nil, ErrBatchRunning
	}
	batch := newBatch()
	s.current = batch
	s.board = nil
	s.mu.Unlock()

	// 参照画像は開始時点のものをバッチ全体で使います
	chars := s.registry.Characters()
	refs := s.registry.References()
	go s.run(ctx, batch, script, count, style, chars, refs)
	return batch, nil
}

// Generate は Start したバッチの終了まで待ちます。
func (s *Storyboard) Generate(ctx context.Context, script string, count int, style director.Style) (Result, error) {
	batch, err := s.Start(ctx, script, count, style)
	if err != nil {
		return Result{}, err
	}
	return batch.Wait()
}

// Stop は実行中のバッチに停止を要求します。
func (s *Storyboard) Stop() {
	s.mu.Lock()
	batch := s.current
	s.mu.Unlock()
	if batch != nil {
		batch.Stop()
	}
}

// Current は最後に開始したバッチを返します。
func (s *Storyboard) Current() *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Items は現在のアイテム一覧のスナップショットを返します。
func (s *Storyboard) Items() []domain.StoryboardItem {
	s.mu.Lock()
	bd := s.board
	s.mu.Unlock()
	if bd == nil {
		return nil
	}
	return bd.snapshot()
}

// Reset はアイテム一覧を破棄します。実行中のバッチがある場合は ErrBatchRunning を返します。
func (s *Storyboard) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.Running() {
		return ErrBatchRunning
	}
	s.board = nil
	return nil
}

// RegenerateItem は既存のプロンプトを使って 1 シーンだけ描き直します。
// 他のシーンが生成中でも実行できます。描画の失敗はアイテムを Failed にしたうえでエラーとして返します。
func (s *Storyboard) RegenerateItem(ctx context.Context, index int, style director.Style) error {
	s.mu.Lock()
	bd := s.board
	running := s.current != nil && s.current.Running()
	s.mu.Unlock()
	if bd == nil {
		return fmt.Errorf("%w: index %d", ErrItemNotFound, index)
	}

	item, err := bd.beginRegeneration(index, running)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "シーンを再生成します", "scene", index+1, "id", item.ID)
	return s.render(ctx, bd, index, item.Prompt, style, s.registry.References())
}

func (s *Storyboard) run(ctx context.Context, batch *Batch, script string, count int, style director.Style, chars []domain.Character, refs []domain.Reference) {
	defer close(batch.done)

	slog.InfoContext(ctx, "シーン分割を開始します", "requested", count, "characters", len(chars))
	scenes, err := s.planner.Plan(ctx, script, chars, count)
	if batch.Stopped() {
		slog.InfoContext(ctx, "シーン分割中に停止が要求されたため、アイテムを作成せずに終了します")
		batch.result = Result{Stopped: true}
		return
	}
	if err != nil {
		batch.err = fmt.Errorf("シーン分割に失敗しました: %w", err)
		return
	}
	if len(scenes) == 0 {
		batch.err = ErrNoScenes
		return
	}

	bd := newBoard(domain.NewStoryboardItems(scenes), s.observer)
	s.mu.Lock()
	s.board = bd
	s.mu.Unlock()
	batch.board.Store(bd)
	bd.publish()

	var limiter *rate.Limiter
	if s.interval > 0 {
		limiter = rate.NewLimiter(rate.Every(s.interval), 2)
	}

	total := len(scenes)
	for start := 0; start < total; start += s.chunkSize {
		end := min(start+s.chunkSize, total)
		if !s.halted(ctx, batch) {
			var eg errgroup.Group
			for i := start; i < end; i++ {
				eg.Go(func() error {
					s.processItem(ctx, batch, bd, i, style, refs, limiter)
					return nil
				})
			}
			_ = eg.Wait()
		}
		batch.setProgress(end, total)
	}

	batch.result = summarize(bd.snapshot(), s.halted(ctx, batch))
	slog.InfoContext(ctx, "ストーリーボード生成が終了しました",
		"scenes", total,
		"completed", batch.result.Completed,
		"failed", batch.result.Failed,
		"skipped", batch.result.Skipped,
		"stopped", batch.result.Stopped)
}

// processItem は停止要求を確認してから 1 シーンを描画します。停止済みならアイテムは Pending のまま残ります。
func (s *Storyboard) processItem(ctx context.Context, batch *Batch, bd *board, i int, style director.Style, refs []domain.Reference, limiter *rate.Limiter) {
	if s.halted(ctx, batch) {
		return
	}
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		if s.halted(ctx, batch) {
			return
		}
	}

	item, err := bd.transition(i, domain.StatusGenerating, nil)
	if err != nil {
		slog.WarnContext(ctx, "シーンの生成を開始できません", "scene", i+1, "error", err)
		return
	}
	_ = s.render(ctx, bd, i, item.Prompt, style, refs)
}

func (s *Storyboard) render(ctx context.Context, bd *board, i int, description string, style director.Style, refs []domain.Reference) error {
	img, err := s.renderer.RenderImage(ctx, domain.RenderRequest{
		Prompt:      s.prompt.BuildScene(style, description),
		References:  refs,
		AspectRatio: domain.AspectWidescreen,
	})
	if err != nil {
		slog.WarnContext(ctx, "シーン画像の生成に失敗しました", "scene", i+1, "error", err)
		if _, tErr := bd.transition(i, domain.StatusFailed, nil); tErr != nil {
			return fmt.Errorf("%w (状態更新にも失敗: %v)", err, tErr)
		}
		return fmt.Errorf("シーン %d の生成に失敗しました: %w", i+1, err)
	}

	if _, err := bd.transition(i, domain.StatusCompleted, img); err != nil {
		// 空の画像が返された場合など。Generating のまま残さない。
		_, _ = bd.transition(i, domain.StatusFailed, nil)
		return err
	}
	return nil
}

func (s *Storyboard) halted(ctx context.Context, batch *Batch) bool {
	return batch.Stopped() || ctx.Err() != nil
}
