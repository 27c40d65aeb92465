package generator

import (
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

const (
	// DefaultChunkSize は同時に発行するシーン描画呼び出しの上限です。
	DefaultChunkSize = config.DefaultChunkSize
)

// Options は Storyboard の動作を制御する設定項目です。
type Options struct {
	ChunkSize    int
	RateInterval time.Duration
	Observer     Observer
}

// ReferenceFailure は参照画像の生成に失敗したキャラクターの情報です。
type ReferenceFailure struct {
	Index int
	Name  string
	Err   error
}

// ReferenceReport は GenerateAll の結果です。
type ReferenceReport struct {
	Generated []int
	Failed    []ReferenceFailure
}

// Result はバッチ終了時の集計です。
type Result struct {
	Items     []domain.StoryboardItem
	Completed int
	Failed    int
	Skipped   int
	Stopped   bool
}
