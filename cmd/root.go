package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-storyboard-kit/internal/config"

	"github.com/spf13/cobra"
)

const appName = "storyboard-go"

// opts は全コマンドで共有するフラグの値なのだ。
var opts config.GenerateOptions

var rootCmd = &cobra.Command{
	Use:               appName,
	Short:             "台本からキャラクターの設定画とストーリーボード画像を生成するのだ。",
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- ソース入力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.ScriptURL, "script-url", "u", "", "台本を取得するURLなのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.ScriptFile, "script-file", "f", "", "台本ファイルのパス（ローカル or gs://、'-'で標準入力なのだ）。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputFile, "output-file", "o", config.DefaultArchiveFile, "ストーリーボード zip の保存パス（ローカル or gs://...）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "d", config.DefaultOutputDir, "キャラクター一覧と設定画の保存先（ローカル or gs://...）なのだ。")

	// --- 生成設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.Style, "style", "s", "", "画風のタグなのだ（一覧は styles コマンド、未指定なら STORYBOARD_STYLE）。")
	rootCmd.PersistentFlags().IntVarP(&opts.SceneCount, "count", "n", config.DefaultSceneCount, "生成するシーン数（4〜99）なのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", "", "テキスト用の Gemini モデル名なのだ（未指定なら GEMINI_MODEL）。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "画像用の Gemini モデル名なのだ（未指定なら IMAGE_GEMINI_MODEL）。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "Webリクエストのタイムアウトなのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.RequestTimeout, "request-timeout", config.DefaultRequestTimeout, "モデル呼び出し 1 回あたりのタイムアウトなのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.RateInterval, "rate-interval", config.DefaultRateInterval, "シーン描画の呼び出し間隔なのだ（0 で制限なし）。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	if cmd.Annotations["offline"] == "true" {
		return nil
	}
	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}
	return nil
}

// loadConfig は環境変数の設定にフラグの値を重ねるのだ。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	cfg.Options = opts
	return cfg
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(generateCmd, analyzeCmd, designCmd, stylesCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("コマンドの実行に失敗したのだ", "error", err)
		os.Exit(1)
	}
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
