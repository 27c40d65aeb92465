package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/workflow"
)

const progressLogInterval = 10 * time.Second

// ExecuteGenerate は、台本の解析から参照画像、ストーリーボード生成、zip の書き出しまでを一気に実行するのだ。
// 1 回目の Ctrl+C でバッチを止め、それまでに完了したシーンは書き出すのだ。2 回目で中断するのだ。
func ExecuteGenerate(ctx context.Context, cfg *config.Config, stdin io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCtx, err := builder.BuildAppContext(ctx, cfg, logItemChanges)
	if err != nil {
		return err
	}
	defer appCtx.Close()
	src := newSources(appCtx, stdin)
	m := appCtx.Manager
	opts := appCtx.Options

	script, err := src.readScript(ctx, opts.ScriptURL, opts.ScriptFile)
	if err != nil {
		return err
	}

	// --- Phase 1: キャスト ---
	if err := prepareCast(ctx, m, src, opts.CharacterConfig, script); err != nil {
		return err
	}

	// --- Phase 2: 参照画像 ---
	if err := ensureReferences(ctx, m); err != nil {
		return err
	}

	// --- Phase 3: ストーリーボード ---
	batch, err := m.StartStoryboard(ctx, script, appCtx.Library.SceneCount)
	if err != nil {
		return fmt.Errorf("ストーリーボード生成を開始できなかったのだ: %w", err)
	}
	stopOnInterrupt(ctx, cancel, batch)

	result, err := waitBatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("ストーリーボード生成に失敗したのだ: %w", err)
	}

	// --- Phase 4: 自動書き出し ---
	res, err := m.Export(context.WithoutCancel(ctx), opts.OutputFile, false)
	if err != nil {
		return fmt.Errorf("zip の書き出しに失敗したのだ: %w", err)
	}
	slog.Info("ストーリーボード生成が完了したのだ！",
		"completed", result.Completed,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"stopped", result.Stopped,
		"archive", res.ArchivePath)
	return nil
}

// ExecuteAnalyze は台本からキャラクターを抽出し、キャラクター一覧 JSON を保存するのだ。
func ExecuteAnalyze(ctx context.Context, cfg *config.Config, stdin io.Reader) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer appCtx.Close()
	src := newSources(appCtx, stdin)

	script, err := src.readScript(ctx, appCtx.Options.ScriptURL, appCtx.Options.ScriptFile)
	if err != nil {
		return err
	}
	chars, err := appCtx.Manager.Analyze(ctx, script)
	if err != nil {
		return fmt.Errorf("台本の解析に失敗したのだ: %w", err)
	}

	paths, err := appCtx.Manager.SaveCharacters(ctx, appCtx.Options.OutputDir)
	if err != nil {
		return err
	}
	slog.Info("キャラクター一覧を保存したのだ", "characters", len(chars), "files", paths)
	return nil
}

// ExecuteDesign はキャラクター一覧 JSON を読み込み、参照画像の無いキャラクターのポートレートを生成して保存するのだ。
func ExecuteDesign(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer appCtx.Close()
	src := newSources(appCtx, nil)

	chars, err := src.loadCharacters(ctx, appCtx.Options.CharacterConfig)
	if err != nil {
		return err
	}
	if len(chars) == 0 {
		return fmt.Errorf("キャラクターが 1 人もいないのだ: %s", appCtx.Options.CharacterConfig)
	}
	if err := appCtx.Manager.SetCharacters(chars); err != nil {
		return err
	}

	refErr := ensureReferences(ctx, appCtx.Manager)
	// 失敗したキャラクターがいても、成功した分は保存しておくのだ
	paths, err := appCtx.Manager.SaveCharacters(ctx, appCtx.Options.OutputDir)
	if err != nil {
		return err
	}
	slog.Info("設定画を保存したのだ", "files", paths)
	return refErr
}

func newSources(appCtx *builder.AppContext, stdin io.Reader) sources {
	return sources{http: appCtx.HTTPClient, reader: appCtx.Reader, stdin: stdin}
}

// prepareCast はキャラクター JSON が指定されていればそれを使い、無ければ台本を解析するのだ。
func prepareCast(ctx context.Context, m *workflow.Manager, src sources, charConfig, script string) error {
	if charConfig != "" {
		chars, err := src.loadCharacters(ctx, charConfig)
		if err != nil {
			return err
		}
		if err := m.SetCharacters(chars); err != nil {
			return err
		}
		slog.InfoContext(ctx, "キャラクター設定を読み込んだのだ", "path", charConfig, "characters", len(chars))
		return nil
	}

	chars, err := m.Analyze(ctx, script)
	if errors.Is(err, workflow.ErrNoCharacters) {
		slog.WarnContext(ctx, "キャラクターが見つからなかったので、参照画像なしで続行するのだ", "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("台本の解析に失敗したのだ: %w", err)
	}
	for i, c := range chars {
		slog.InfoContext(ctx, "キャラクターを抽出したのだ", "index", i, "character", c.String())
	}
	return nil
}

// ensureReferences は参照画像の無いキャラクターがいれば一括生成し、失敗した分は 1 回だけ作り直すのだ。
func ensureReferences(ctx context.Context, m *workflow.Manager) error {
	missing := missingReferences(m.Characters())
	if len(missing) == 0 {
		return nil
	}
	if len(missing) == len(m.Characters()) {
		report, err := m.GenerateReferences(ctx)
		if err != nil {
			return err
		}
		missing = make([]int, 0, len(report.Failed))
		for _, f := range report.Failed {
			missing = append(missing, f.Index)
		}
	}

	var errs []error
	for _, i := range missing {
		if err := m.RegenerateReference(ctx, i); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", generator.ErrReferencesMissing, err)
	}
	return nil
}

func missingReferences(chars []domain.Character) []int {
	var out []int
	for i, c := range chars {
		if !c.HasReference() {
			out = append(out, i)
		}
	}
	return out
}

// stopOnInterrupt は 1 回目のシグナルでバッチを止め、2 回目で context をキャンセルするのだ。
func stopOnInterrupt(ctx context.Context, cancel context.CancelFunc, batch *generator.Batch) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			slog.Warn("停止を受け付けたのだ。生成中のシーンが終わるまで待つのだ（もう一度で中断）")
			batch.Stop()
		case <-batch.Done():
			return
		case <-ctx.Done():
			return
		}
		select {
		case <-sigCh:
			cancel()
		case <-batch.Done():
		case <-ctx.Done():
		}
	}()
}

// waitBatch は進捗を定期的にログに出しながらバッチの終了を待つのだ。
func waitBatch(ctx context.Context, batch *generator.Batch) (generator.Result, error) {
	ticker := time.NewTicker(progressLogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-batch.Done():
			return batch.Wait()
		case <-ticker.C:
			slog.InfoContext(ctx, "生成中なのだ...", "progress", fmt.Sprintf("%d%%", batch.Progress()))
		}
	}
}

func logItemChanges(items []domain.StoryboardItem) {
	var completed, failed int
	for _, it := range items {
		switch it.Status {
		case domain.StatusCompleted:
			completed++
		case domain.StatusFailed:
			failed++
		}
	}
	slog.Debug("シーンの状態が更新されたのだ", "total", len(items), "completed", completed, "failed", failed)
}
