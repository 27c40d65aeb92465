package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"

	"google.golang.org/genai"
)

var (
	characterSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"characters": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":       {Type: genai.TypeString},
						"age":        {Type: genai.TypeString},
						"gender":     {Type: genai.TypeString},
						"appearance": {Type: genai.TypeString},
					},
					Required: []string{"name", "age", "gender", "appearance"},
				},
			},
		},
		Required: []string{"characters"},
	}

	sceneSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"scenes": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"scenes"},
	}
)

// GeminiGateway は Gemini API を用いた ModelGateway の実装です。
type GeminiGateway struct {
	client      ContentGenerator
	textPrompt  prompts.TextPrompt
	imagePrompt prompts.ImagePrompt
	textModel   string
	imageModel  string
	temperature float32
	timeout     time.Duration
	refs        *referenceCore
}

// NewGeminiGateway は依存関係を注入して GeminiGateway を初期化します。cache は nil を許容します。
func NewGeminiGateway(client ContentGenerator, cfg config.Config, cache ImageCacher) (*GeminiGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	textPrompt, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("TextPromptBuilder の初期化に失敗しました: %w", err)
	}

	return &GeminiGateway{
		client:      client,
		textPrompt:  textPrompt,
		imagePrompt: prompts.NewImagePromptBuilder(),
		textModel:   cfg.GeminiModel,
		imageModel:  cfg.ImageModel,
		temperature: cfg.Temperature,
		timeout:     cfg.RequestTimeout,
		refs:        newReferenceCore(cache, cfg.CacheTTL, cfg.UseImageCompression, cfg.ImageCompressionQuality),
	}, nil
}

// ExtractCharacters は台本からキャラクター候補を抽出します。
func (g *GeminiGateway) ExtractCharacters(ctx context.Context, script string) ([]domain.Character, error) {
	prompt, err := g.textPrompt.Build(prompts.ModeExtractCharacters, prompts.TemplateData{InputText: script})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailure, err)
	}

	text, err := g.generateJSON(ctx, prompt, characterSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailure, err)
	}

	var out struct {
		Characters []domain.Character `json:"characters"`
	}
	if err := decodeJSON(text, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailure, err)
	}

	chars := make([]domain.Character, 0, len(out.Characters))
	for _, c := range out.Characters {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		chars = append(chars, c)
	}
	slog.InfoContext(ctx, "キャラクターを抽出しました", "count", len(chars), "model", g.textModel)
	return chars, nil
}

// PlanScenes は台本を count 個のシーン記述に分割します。多すぎる場合は切り詰め、少ない場合はそのまま返します。
func (g *GeminiGateway) PlanScenes(ctx context.Context, script string, chars []domain.Character, count int) ([]string, error) {
	prompt, err := g.textPrompt.Build(prompts.ModePlanScenes, prompts.TemplateData{
		InputText:  script,
		SceneCount: count,
		Characters: chars,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlanningFailure, err)
	}

	text, err := g.generateJSON(ctx, prompt, sceneSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlanningFailure, err)
	}

	var out struct {
		Scenes []string `json:"scenes"`
	}
	if err := decodeJSON(text, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlanningFailure, err)
	}

	scenes := out.Scenes
	if len(scenes) > count {
		scenes = scenes[:count]
	}
	if len(scenes) < count {
		slog.WarnContext(ctx, "要求より少ないシーン数が返されました", "requested", count, "returned", len(scenes))
	}
	return scenes, nil
}

// RenderImage は参照画像付きのプロンプトから 1 枚の画像を生成します。
// パーツ構成: [参照説明文, 参照画像] × 参照数, 本文プロンプト
func (g *GeminiGateway) RenderImage(ctx context.Context, req domain.RenderRequest) (*domain.Image, error) {
	parts := make([]*genai.Part, 0, len(req.References)*2+1)
	for _, ref := range req.References {
		p := g.refs.part(ref.Image)
		if p == nil {
			slog.WarnContext(ctx, "参照画像をパーツに変換できないためスキップします", "name", ref.Name)
			continue
		}
		parts = append(parts, &genai.Part{Text: g.imagePrompt.ReferenceBinding(ref.Name)}, p)
	}
	parts = append(parts, &genai.Part{Text: req.Prompt})

	ratio := req.AspectRatio
	if ratio == "" {
		ratio = domain.AspectWidescreen
	}
	genCfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: string(ratio)},
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	resp, err := g.client.GenerateContent(ctx, g.imageModel, []*genai.Content{{Role: "user", Parts: parts}}, genCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailure, err)
	}
	return parseImageResponse(resp)
}

func (g *GeminiGateway) generateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	resp, err := g.client.GenerateContent(ctx, g.textModel, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", fmt.Errorf("空の応答です")
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("空の応答です")
	}
	return text, nil
}

func (g *GeminiGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}
