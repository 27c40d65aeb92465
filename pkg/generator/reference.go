package generator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/shouni/go-storyboard-kit/pkg/adapters"
	"github.com/shouni/go-storyboard-kit/pkg/director"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"

	"golang.org/x/sync/errgroup"
)

// ReferenceGenerator は、キャラクターごとの参照ポートレートを生成します。
type ReferenceGenerator struct {
	renderer adapters.ImageRenderer
	prompt   prompts.ImagePrompt

	mu     sync.Mutex
	active map[int]struct{}
}

// NewReferenceGenerator は ReferenceGenerator の新しいインスタンスを初期化します。
func NewReferenceGenerator(renderer adapters.ImageRenderer, prompt prompts.ImagePrompt) *ReferenceGenerator {
	if prompt == nil {
		prompt = prompts.NewImagePromptBuilder()
	}
	return &ReferenceGenerator{
		renderer: renderer,
		prompt:   prompt,
		active:   make(map[int]struct{}),
	}
}

// GenerateAll は全キャラクターのポートレートを並列に生成し、成功したものから順に Registry へ書き込みます。
// キャストは小規模な前提のため並列数に上限は設けません。1 人の失敗は他のキャラクターに影響しません。
// 生成中にキャストが置き換えられた場合、その結果は書き込まれず失敗として報告されます。
func (g *ReferenceGenerator) GenerateAll(ctx context.Context, reg *domain.Registry, style director.Style) ReferenceReport {
	chars, gen := reg.Snapshot()
	slog.InfoContext(ctx, "参照画像の一括生成を開始します", "characters", len(chars), "style", style)

	var (
		report ReferenceReport
		mu     sync.Mutex
		eg     errgroup.Group
	)
	for i, c := range chars {
		eg.Go(func() error {
			img, err := g.render(ctx, i, style, c)
			if err == nil {
				err = reg.SetReferenceImageAt(gen, i, img)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.WarnContext(ctx, "参照画像の生成に失敗しました", "index", i, "name", c.Name, "error", err)
				report.Failed = append(report.Failed, ReferenceFailure{Index: i, Name: c.Name, Err: err})
				return nil
			}
			report.Generated = append(report.Generated, i)
			return nil
		})
	}
	_ = eg.Wait()

	slices.Sort(report.Generated)
	slices.SortFunc(report.Failed, func(a, b ReferenceFailure) int { return a.Index - b.Index })
	slog.InfoContext(ctx, "参照画像の一括生成が完了しました", "generated", len(report.Generated), "failed", len(report.Failed))
	return report
}

// RegenerateOne は 1 人分のポートレートを作り直します。
// 待機中は参照画像を未設定にし、失敗した場合は元の画像をそのまま戻します。
func (g *ReferenceGenerator) RegenerateOne(ctx context.Context, reg *domain.Registry, index int, style director.Style) error {
	chars, gen := reg.Snapshot()
	if index < 0 || index >= len(chars) {
		return fmt.Errorf("%w: character %d (len=%d)", domain.ErrIndexOutOfRange, index, len(chars))
	}
	c := chars[index]
	previous := c.ReferenceImage

	if err := reg.SetReferenceImageAt(gen, index, nil); err != nil {
		return err
	}

	img, err := g.render(ctx, index, style, c)
	if err != nil {
		if rbErr := reg.SetReferenceImageAt(gen, index, previous); rbErr != nil {
			slog.WarnContext(ctx, "参照画像を復元できませんでした", "index", index, "error", rbErr)
		}
		return fmt.Errorf("キャラクター '%s' の参照画像の再生成に失敗しました: %w", c.Name, err)
	}
	return reg.SetReferenceImageAt(gen, index, img)
}

// Active は生成中のキャラクターのインデックスを昇順で返します。
func (g *ReferenceGenerator) Active() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]int, 0, len(g.active))
	for i := range g.active {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

func (g *ReferenceGenerator) render(ctx context.Context, index int, style director.Style, c domain.Character) (*domain.Image, error) {
	g.mu.Lock()
	g.active[index] = struct{}{}
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		delete(g.active, index)
		g.mu.Unlock()
	}()

	// 初回生成では固定すべき外見がまだ無いため、参照画像は添付しません。
	return g.renderer.RenderImage(ctx, domain.RenderRequest{
		Prompt:      g.prompt.BuildPortrait(style, c),
		AspectRatio: domain.AspectSquare,
	})
}
