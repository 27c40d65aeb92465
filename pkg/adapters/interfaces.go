package adapters

import (
	"context"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/domain"

	"google.golang.org/genai"
)

// CharacterExtractor は台本からキャラクター候補を抽出します。
type CharacterExtractor interface {
	ExtractCharacters(ctx context.Context, script string) ([]domain.Character, error)
}

// ScenePlanner は台本を count 個のシーン記述に分割します。
type ScenePlanner interface {
	PlanScenes(ctx context.Context, script string, chars []domain.Character, count int) ([]string, error)
}

// ImageRenderer はプロンプトと参照画像から 1 枚の画像を生成します。
type ImageRenderer interface {
	RenderImage(ctx context.Context, req domain.RenderRequest) (*domain.Image, error)
}

// ModelGateway は外部の生成モデルへの 3 つの呼び出しをまとめた契約です。
type ModelGateway interface {
	CharacterExtractor
	ScenePlanner
	ImageRenderer
}

// ContentGenerator は genai.Models の GenerateContent を抽象化します。
// *genai.Client の Models フィールドがこれを満たします。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ImageCacher は参照画像パーツのキャッシュです。go-cache の *cache.Cache がこれを満たします。
type ImageCacher interface {
	Get(k string) (any, bool)
	Set(k string, x any, d time.Duration)
}
