package prompts

import "github.com/shouni/go-storyboard-kit/pkg/domain"

// TemplateData はテキストプロンプトのテンプレートに渡すデータ構造です。
type TemplateData struct {
	InputText  string
	SceneCount int
	Characters []domain.Character
}
