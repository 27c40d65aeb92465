package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// analyzeCmd は、台本の解析（キャラクター一覧 JSON の出力）のみを実行するのだ。
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "台本からキャラクターを抽出して JSON に保存するのだ。",
	Long: `台本を解析して、登場人物の名前・年齢・性別・外見を characters.json に書き出すのだ。
編集してから design や generate --char-config に渡せるのだよ。画像生成は行わないのだ。`,
	RunE: analyzeCommand,
}

func analyzeCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if opts.ScriptURL == "" && opts.ScriptFile == "" && !isStdin() {
		return fmt.Errorf("ソース（--script-url または --script-file）を指定してほしいのだ")
	}

	slog.Info("台本解析モードを起動するのだ！", "output_dir", opts.OutputDir)
	if err := pipeline.ExecuteAnalyze(ctx, loadConfig(), os.Stdin); err != nil {
		return fmt.Errorf("台本解析中にエラーが発生したのだ: %w", err)
	}
	return nil
}
