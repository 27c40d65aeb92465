package config

import (
	"fmt"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/director"
)

// デフォルト値の定義
const (
	DefaultGeminiModel             = "gemini-3-flash-preview"
	DefaultImageModel              = "gemini-2.5-flash-image"
	DefaultSceneCount              = 8
	DefaultChunkSize               = 8
	DefaultRateInterval            = time.Duration(0)
	DefaultRequestTimeout          = 3 * time.Minute
	DefaultTemperature             = float32(0.2)
	DefaultCacheTTL                = 30 * time.Minute
	DefaultImageCompressionQuality = 75

	// MinSceneCount と MaxSceneCount はシーン数の許容範囲（両端を含む）です。
	MinSceneCount = 4
	MaxSceneCount = 99
)

// Config は Go Storyboard Kit の各コンポーネントを動作させるための基本設定です。
type Config struct {
	// --- AI Model Settings ---
	GeminiModel string // キャラクター抽出・シーン分割用
	ImageModel  string // ポートレート・シーン画像用
	Temperature float32

	// --- Google AI (Gemini API) Settings ---
	GeminiAPIKey string

	// --- Generation Settings ---
	Style      director.Style
	SceneCount int
	ChunkSize  int
	// RateInterval が 0 の場合、チャンク内の描画呼び出しは間隔を空けずに発行されます。
	RateInterval time.Duration

	// --- Reference Image Settings ---
	UseImageCompression     bool
	ImageCompressionQuality int
	CacheTTL                time.Duration

	// --- Timeout ---
	RequestTimeout time.Duration
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		GeminiModel:             DefaultGeminiModel,
		ImageModel:              DefaultImageModel,
		Temperature:             DefaultTemperature,
		Style:                   director.DefaultStyle,
		SceneCount:              DefaultSceneCount,
		ChunkSize:               DefaultChunkSize,
		RateInterval:            DefaultRateInterval,
		UseImageCompression:     true,
		ImageCompressionQuality: DefaultImageCompressionQuality,
		CacheTTL:                DefaultCacheTTL,
		RequestTimeout:          DefaultRequestTimeout,
	}
}

// Validate は設定値の整合性を検証します。
func (c Config) Validate() error {
	if c.GeminiModel == "" || c.ImageModel == "" {
		return fmt.Errorf("モデル名が設定されていません")
	}
	if _, err := director.ParseStyle(string(c.Style)); err != nil {
		return err
	}
	if err := ValidateSceneCount(c.SceneCount); err != nil {
		return err
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("チャンクサイズは1以上である必要があります: %d", c.ChunkSize)
	}
	if c.RequestTimeout < 0 || c.RateInterval < 0 {
		return fmt.Errorf("タイムアウトと間隔に負の値は指定できません")
	}
	return nil
}

// ValidateSceneCount はシーン数が許容範囲内かを検証します。
func ValidateSceneCount(n int) error {
	if n < MinSceneCount || n > MaxSceneCount {
		return fmt.Errorf("シーン数は %d〜%d の範囲で指定してください: %d", MinSceneCount, MaxSceneCount, n)
	}
	return nil
}
