package generator

import (
	"context"

	"github.com/shouni/go-storyboard-kit/pkg/adapters"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// ScenePlanner は台本をシーン記述の一覧に分割します。
// 参照画像が揃っていることの確認は Storyboard 側で行います。
type ScenePlanner struct {
	gateway adapters.ScenePlanner
}

// NewScenePlanner は ScenePlanner を生成します。
func NewScenePlanner(gateway adapters.ScenePlanner) *ScenePlanner {
	return &ScenePlanner{gateway: gateway}
}

// Plan は Model Gateway の PlanScenes をそのまま呼び出します。
func (p *ScenePlanner) Plan(ctx context.Context, script string, chars []domain.Character, count int) ([]string, error) {
	return p.gateway.PlanScenes(ctx, script, chars, count)
}
