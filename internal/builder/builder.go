package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/adapters"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/workflow"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"google.golang.org/genai"
)

const cacheCleanupInterval = 1 * time.Hour

// BuildAppContext は、設定から HTTP クライアント・リモート I/O・Gemini Gateway・Manager を組み立てるのだ。
// observer はストーリーボードのアイテムが変化するたびに呼ばれるのだ（nil でもよいのだ）。
func BuildAppContext(ctx context.Context, cfg *config.Config, observer generator.Observer) (*AppContext, error) {
	libCfg, err := cfg.LibraryConfig()
	if err != nil {
		return nil, fmt.Errorf("設定が不正なのだ: %w", err)
	}

	timeout := cfg.Options.HTTPTimeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}
	httpClient := httpkit.New(timeout)

	ioFactory, err := gcsfactory.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("GCSクライアントファクトリの作成に失敗したのだ: %w", err)
	}
	// 途中で失敗したら GCS クライアントを閉じるのだ
	ok := false
	defer func() {
		if !ok {
			_ = ioFactory.Close()
		}
	}()
	reader, err := ioFactory.InputReader()
	if err != nil {
		return nil, fmt.Errorf("InputReaderの作成に失敗したのだ: %w", err)
	}
	writer, err := ioFactory.OutputWriter()
	if err != nil {
		return nil, fmt.Errorf("OutputWriterの作成に失敗したのだ: %w", err)
	}

	aiClient, err := InitializeAIClient(ctx, libCfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}
	gateway, err := adapters.NewGeminiGateway(aiClient.Models, libCfg, cache.New(libCfg.CacheTTL, cacheCleanupInterval))
	if err != nil {
		return nil, fmt.Errorf("Gemini Gatewayの初期化に失敗したのだ: %w", err)
	}

	manager, err := workflow.New(workflow.ManagerArgs{
		Config:   libCfg,
		Gateway:  gateway,
		Writer:   writer,
		Observer: observer,
	})
	if err != nil {
		return nil, fmt.Errorf("Managerの初期化に失敗したのだ: %w", err)
	}

	ok = true
	return &AppContext{
		Config:     cfg,
		Options:    cfg.Options,
		Library:    libCfg,
		Reader:     reader,
		Writer:     writer,
		HTTPClient: httpClient,
		Manager:    manager,
		ioFactory:  ioFactory,
	}, nil
}

// InitializeAIClient は Gemini API 用の genai クライアントを初期化するのだ。
func InitializeAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY が設定されていないのだ")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return client, nil
}
