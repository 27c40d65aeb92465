package config

import (
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	libcfg "github.com/shouni/go-storyboard-kit/pkg/config"
	"github.com/shouni/go-storyboard-kit/pkg/director"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultModel          = libcfg.DefaultGeminiModel
	DefaultImageModel     = libcfg.DefaultImageModel
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultSceneCount     = libcfg.DefaultSceneCount
	DefaultRateInterval   = libcfg.DefaultRateInterval
	DefaultRequestTimeout = libcfg.DefaultRequestTimeout
	DefaultOutputDir      = "output"                                // キャラクター一覧や設定画の保存先なのだ
	DefaultArchiveFile    = "output/" + asset.DefaultArchiveName    // ストーリーボードの zip の保存先なのだ
	DefaultCharactersFile = "output/" + asset.DefaultCharactersJSON // analyze の出力先、design の入力元なのだ
)

// Config はアプリケーション全体の環境設定（APIキーやモデル名）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string
	Style            string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	return &Config{
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:      envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		Style:            envutil.GetEnv("STORYBOARD_STYLE", string(director.DefaultStyle)),
	}
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// ソース入力関連
	ScriptURL       string // --script-url
	ScriptFile      string // --script-file
	CharacterConfig string // --char-config: 解析の代わりに使うキャラクター JSON

	// 出力関連
	OutputFile string // --output-file: ストーリーボードの zip
	OutputDir  string // --output-dir: キャラクター一覧と設定画

	// 生成設定
	Style      string // --style
	SceneCount int    // --count

	// AI挙動設定
	AIModel    string // --model: テキスト生成用のGeminiモデル
	ImageModel string // --image-model: 画像生成用のGeminiモデル

	// 実行制御
	HTTPTimeout    time.Duration // --http-timeout
	RequestTimeout time.Duration // --request-timeout
	RateInterval   time.Duration // --rate-interval
}

// LibraryConfig は環境設定とフラグを pkg/config の Config にまとめるのだ。
// フラグで指定された値が環境変数より優先されるのだ。
func (c *Config) LibraryConfig() (libcfg.Config, error) {
	cfg := libcfg.DefaultConfig()
	cfg.GeminiAPIKey = c.GeminiAPIKey
	cfg.GeminiModel = firstNonEmpty(c.Options.AIModel, c.GeminiModel, cfg.GeminiModel)
	cfg.ImageModel = firstNonEmpty(c.Options.ImageModel, c.GeminiImageModel, cfg.ImageModel)

	style, err := director.ParseStyle(firstNonEmpty(c.Options.Style, c.Style))
	if err != nil {
		return libcfg.Config{}, err
	}
	cfg.Style = style

	if c.Options.SceneCount != 0 {
		cfg.SceneCount = c.Options.SceneCount
	}
	if c.Options.RequestTimeout > 0 {
		cfg.RequestTimeout = c.Options.RequestTimeout
	}
	cfg.RateInterval = c.Options.RateInterval

	if err := cfg.Validate(); err != nil {
		return libcfg.Config{}, err
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
