package workflow

import (
	"errors"

	"github.com/shouni/go-storyboard-kit/pkg/adapters"
	"github.com/shouni/go-storyboard-kit/pkg/config"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
)

var (
	// ErrEmptyScript は空白のみの台本が渡された場合に返されます。
	ErrEmptyScript = errors.New("台本が空です")
	// ErrNoCharacters はキャラクターを 1 人も抽出できなかった場合に返されます。
	ErrNoCharacters = errors.New("キャラクターを抽出できませんでした")
	// ErrBusy は解析と参照画像生成など、排他的な工程が実行中の場合に返されます。
	ErrBusy = errors.New("別の処理が実行中です")
)

// ManagerArgs は Manager の構築に必要な依存関係です。
type ManagerArgs struct {
	Config  config.Config
	Gateway adapters.ModelGateway
	Writer  publisher.OutputWriter

	// 以下は省略可能です。
	ImagePrompt prompts.ImagePrompt
	Observer    generator.Observer
}

// phase は Manager で排他的に実行される工程です。
type phase int

const (
	phaseIdle phase = iota
	phaseAnalyzing
	phaseDesigning
	phaseStarting
)

func (p phase) String() string {
	switch p {
	case phaseAnalyzing:
		return "analyzing"
	case phaseDesigning:
		return "designing"
	case phaseStarting:
		return "starting"
	default:
		return "idle"
	}
}
