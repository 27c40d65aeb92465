package prompts

import (
	_ "embed"
)

const (
	ModeExtractCharacters = "extract_characters"
	ModePlanScenes        = "plan_scenes"
)

var (
	//go:embed extract_characters.md
	ExtractCharactersPrompt string
	//go:embed plan_scenes.md
	PlanScenesPrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップです。
var allTemplates = map[string]string{
	ModeExtractCharacters: ExtractCharactersPrompt,
	ModePlanScenes:        PlanScenesPrompt,
}
