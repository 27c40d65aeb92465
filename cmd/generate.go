package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// generateCmd は、台本から参照画像とストーリーボードを生成し、zip に書き出すのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "台本からストーリーボードを生成して zip に書き出すのだ。",
	Long: `台本を解析してキャラクターを抽出し（--char-config があればそれを使うのだ）、
キャラクターごとの参照画像を作ってから、指定した数のシーン画像を生成するのだ。
Ctrl+C を 1 回押すと新しいシーンの生成を止めて、完了した分だけ zip にするのだよ。`,
	RunE: generateCommand,
}

func init() {
	generateCmd.Flags().StringVarP(&opts.CharacterConfig, "char-config", "c", "", "解析の代わりに使うキャラクター一覧 JSON のパスなのだ。")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.ScriptURL == "" && opts.ScriptFile == "" && !isStdin() {
		return fmt.Errorf("ソース（--script-url または --script-file）を指定してほしいのだ")
	}

	cfg := loadConfig()
	slog.Info("ストーリーボード生成パイプラインを起動するのだ！",
		"scenes", opts.SceneCount,
		"style", opts.Style,
		"output", opts.OutputFile)

	if err := pipeline.ExecuteGenerate(ctx, cfg, os.Stdin); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}
	return nil
}
