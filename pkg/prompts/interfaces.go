package prompts

import (
	"github.com/shouni/go-storyboard-kit/pkg/director"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// TextPrompt は、テキスト生成用プロンプトを構築する契約です。
type TextPrompt interface {
	// Build は、指定されたモード（ModeExtractCharacters / ModePlanScenes）とデータからプロンプト文字列を生成します。
	Build(mode string, data TemplateData) (string, error)
}

// ImagePrompt は、画像生成用プロンプトを構築する契約です。
type ImagePrompt interface {
	// BuildPortrait は、キャラクター参照ポートレート用のプロンプトを生成します。
	BuildPortrait(style director.Style, c domain.Character) string
	// BuildScene は、シーン画像用のプロンプトを生成します。
	BuildScene(style director.Style, description string) string
	// ReferenceBinding は、参照画像の直前に置く説明文を生成します。
	ReferenceBinding(name string) string
}
