package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// designCmd は、キャラクター一覧 JSON から参照ポートレート（設定画）を生成するのだ。
var designCmd = &cobra.Command{
	Use:   "design",
	Short: "キャラクターの設定画（参照ポートレート）を生成するのだ。",
	Long: `キャラクター一覧 JSON を読み込み、参照画像が無いキャラクターの正方形ポートレートを生成するのだ。
画像は character_<番号> として保存され、JSON の reference_image に保存先が記録されるのだよ。`,
	RunE: designCommand,
}

var designCharConfig string

func init() {
	designCmd.Flags().StringVarP(&designCharConfig, "char-config", "c", config.DefaultCharactersFile, "キャラクター一覧 JSON のパスなのだ。")
}

func designCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	cfg.Options.CharacterConfig = designCharConfig

	slog.Info("設定画の生成を開始するのだ！", "char_config", designCharConfig, "output_dir", opts.OutputDir)
	if err := pipeline.ExecuteDesign(cmd.Context(), cfg); err != nil {
		return fmt.Errorf("設定画の生成に失敗したのだ: %w", err)
	}
	return nil
}
