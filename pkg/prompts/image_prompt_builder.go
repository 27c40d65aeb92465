package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/director"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// ImagePromptBuilder は、スタイルとキャラクター情報から画像生成プロンプトを構築します。
type ImagePromptBuilder struct{}

// NewImagePromptBuilder は新しい ImagePromptBuilder を生成します。
func NewImagePromptBuilder() *ImagePromptBuilder {
	return &ImagePromptBuilder{}
}

// BuildPortrait は参照ポートレート用のプロンプトを生成します。
// 構成: スタイル先頭文 + 速度ヒント + 人物描写 + 共通制約
func (pb *ImagePromptBuilder) BuildPortrait(style director.Style, c domain.Character) string {
	body := fmt.Sprintf(portraitTemplate, c.Name, c.Age, c.Gender, c.Appearance)
	return join(style.Prefix(), director.PortraitSpeedHint(style), body, GlobalConstraints(domain.AspectSquare))
}

// BuildScene はシーン画像用のプロンプトを生成します。
// 構成: スタイル先頭文 + 速度ヒント + シーン記述 + 参照一致の指示 + 共通制約
func (pb *ImagePromptBuilder) BuildScene(style director.Style, description string) string {
	scene := fmt.Sprintf("Scene: %s.", strings.TrimRight(strings.TrimSpace(description), "."))
	return join(style.Prefix(), director.SceneSpeedHint(style), scene, sceneInstruction, GlobalConstraints(domain.AspectWidescreen))
}

// ReferenceBinding は参照画像の直前に置くキャラクター名の説明文を返します。
func (pb *ImagePromptBuilder) ReferenceBinding(name string) string {
	return fmt.Sprintf(referenceBindingTemplate, name)
}

func join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
