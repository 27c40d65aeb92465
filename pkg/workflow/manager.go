package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shouni/go-storyboard-kit/pkg/adapters"
	"github.com/shouni/go-storyboard-kit/pkg/config"
	"github.com/shouni/go-storyboard-kit/pkg/director"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
)

// Manager は、1 セッション分のキャスト・参照画像・ストーリーボードを保持し、各工程の順序と排他を管理します。
type Manager struct {
	cfg        config.Config
	gateway    adapters.ModelGateway
	registry   *domain.Registry
	references *generator.ReferenceGenerator
	storyboard *generator.Storyboard
	publisher  *publisher.ArchivePublisher

	mu    sync.Mutex
	phase phase
	style director.Style
}

// New は、設定と Model Gateway を基に新しい Manager を初期化します。
func New(args ManagerArgs) (*Manager, error) {
	if args.Gateway == nil {
		return nil, fmt.Errorf("Gateway は必須です")
	}
	if args.Writer == nil {
		return nil, fmt.Errorf("OutputWriter は必須です")
	}
	if err := args.Config.Validate(); err != nil {
		return nil, fmt.Errorf("設定が不正です: %w", err)
	}

	registry := domain.NewRegistry()
	storyboard := generator.NewStoryboard(
		generator.NewScenePlanner(args.Gateway),
		args.Gateway,
		registry,
		args.ImagePrompt,
		generator.Options{
			ChunkSize:    args.Config.ChunkSize,
			RateInterval: args.Config.RateInterval,
			Observer:     args.Observer,
		},
	)

	return &Manager{
		cfg:        args.Config,
		gateway:    args.Gateway,
		registry:   registry,
		references: generator.NewReferenceGenerator(args.Gateway, args.ImagePrompt),
		storyboard: storyboard,
		publisher:  publisher.NewArchivePublisher(args.Writer),
		style:      args.Config.Style,
	}, nil
}

// Analyze は台本からキャストを抽出して Registry を置き換えます。
// 以前のキャラクターとストーリーボードは破棄されます。抽出に失敗した場合はキャストを空にして ErrNoCharacters を返します。
func (m *Manager) Analyze(ctx context.Context, script string) ([]domain.Character, error) {
	if strings.TrimSpace(script) == "" {
		return nil, ErrEmptyScript
	}
	if err := m.begin(phaseAnalyzing); err != nil {
		return nil, err
	}
	defer m.end()

	if err := m.storyboard.Reset(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBusy, err)
	}
	m.registry.SetAll(nil)

	slog.InfoContext(ctx, "台本の解析を開始します", "length", len(script))
	chars, err := m.gateway.ExtractCharacters(ctx, script)
	if err != nil {
		slog.WarnContext(ctx, "キャラクター抽出に失敗したため、キャストを空にします", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrNoCharacters, err)
	}
	if len(chars) == 0 {
		return nil, ErrNoCharacters
	}

	m.registry.SetAll(chars)
	slog.InfoContext(ctx, "キャラクターを抽出しました", "characters", len(chars))
	return m.registry.Characters(), nil
}

// SetCharacters はキャスト全体を置き換えます。JSON から読み込んだキャストを使う場合に呼び出します。
// 解析中と参照画像の生成中は ErrBusy を返します。
func (m *Manager) SetCharacters(chars []domain.Character) error {
	if err := m.ensureIdle(); err != nil {
		return err
	}
	m.registry.SetAll(chars)
	return nil
}

// UpdateCharacter は 1 人分のフィールドを書き換えます。既存の参照画像は保持されます。
func (m *Manager) UpdateCharacter(index int, field domain.CharacterField, value string) error {
	return m.registry.Update(index, field, value)
}

// GenerateReferences は全キャラクターの参照ポートレートを生成します。
// 解析中、他の参照画像の生成中、ストーリーボードのバッチ実行中は ErrBusy を返します。
func (m *Manager) GenerateReferences(ctx context.Context) (generator.ReferenceReport, error) {
	if err := m.beginDesigning(); err != nil {
		return generator.ReferenceReport{}, err
	}
	defer m.end()

	return m.references.GenerateAll(ctx, m.registry, m.Style()), nil
}

// RegenerateReference は 1 人分の参照ポートレートを作り直します。
// 待機中はそのキャラクターの参照画像が未設定になるため、GenerateReferences と同じ条件で ErrBusy を返します。
func (m *Manager) RegenerateReference(ctx context.Context, index int) error {
	if err := m.beginDesigning(); err != nil {
		return err
	}
	defer m.end()

	return m.references.RegenerateOne(ctx, m.registry, index, m.Style())
}

// StartStoryboard はストーリーボード生成のバッチを開始します。
func (m *Manager) StartStoryboard(ctx context.Context, script string, count int) (*generator.Batch, error) {
	if strings.TrimSpace(script) == "" {
		return nil, ErrEmptyScript
	}
	if err := config.ValidateSceneCount(count); err != nil {
		return nil, err
	}
	// 参照画像のスナップショットを取り終えるまで、他の工程を締め出します
	if err := m.begin(phaseStarting); err != nil {
		return nil, err
	}
	defer m.end()
	return m.storyboard.Start(ctx, script, count, m.Style())
}

// Stop は実行中のバッチに停止を要求します。
func (m *Manager) Stop() {
	m.storyboard.Stop()
}

// RegenerateScene は 1 シーンだけ描き直します。解析中と参照画像の生成中は ErrBusy を返します。
func (m *Manager) RegenerateScene(ctx context.Context, index int) error {
	if err := m.ensureIdle(); err != nil {
		return err
	}
	return m.storyboard.RegenerateItem(ctx, index, m.Style())
}

// Items はストーリーボードのスナップショットを返します。
func (m *Manager) Items() []domain.StoryboardItem {
	return m.storyboard.Items()
}

// Characters はキャストのスナップショットを返します。
func (m *Manager) Characters() []domain.Character {
	return m.registry.Characters()
}

// GeneratingCharacters は参照ポートレートを生成中のキャラクターのインデックスを返します。
func (m *Manager) GeneratingCharacters() []int {
	return m.references.Active()
}

// Export は完了済みのシーンをアーカイブに書き出します。
// explicit が false の自動書き出しでは、完了済みのシーンが無くてもエラーにしません。
func (m *Manager) Export(ctx context.Context, outputPath string, explicit bool) (publisher.PublishResult, error) {
	res, err := m.publisher.Publish(ctx, m.storyboard.Items(), outputPath)
	if errors.Is(err, publisher.ErrNothingToExport) && !explicit {
		slog.InfoContext(ctx, "完了済みのシーンが無いため、自動書き出しをスキップします")
		return publisher.PublishResult{}, nil
	}
	return res, err
}

// SaveCharacters はキャスト一覧と参照ポートレートを outputDir に保存します。
func (m *Manager) SaveCharacters(ctx context.Context, outputDir string) ([]string, error) {
	return m.publisher.SaveCharacters(ctx, m.registry.Characters(), outputDir)
}

// SetStyle は以降の描画に使うスタイルを切り替えます。
func (m *Manager) SetStyle(style director.Style) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.style = style
}

// Style は現在のスタイルを返します。
func (m *Manager) Style() director.Style {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.style
}

func (m *Manager) begin(p phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != phaseIdle {
		return fmt.Errorf("%w: %s", ErrBusy, m.phase)
	}
	m.phase = p
	return nil
}

// beginDesigning は参照画像の書き込みを始める前に、バッチが実行中でないことも確認します。
func (m *Manager) beginDesigning() error {
	if err := m.begin(phaseDesigning); err != nil {
		return err
	}
	if batch := m.storyboard.Current(); batch != nil && batch.Running() {
		m.end()
		return fmt.Errorf("%w: %w", ErrBusy, generator.ErrBatchRunning)
	}
	return nil
}

func (m *Manager) end() {
	m.mu.Lock()
	m.phase = phaseIdle
	m.mu.Unlock()
}

func (m *Manager) ensureIdle() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != phaseIdle {
		return fmt.Errorf("%w: %s", ErrBusy, m.phase)
	}
	return nil
}
