package generator

import (
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// Batch は 1 回のストーリーボード生成のハンドルです。バッチごとに新しく作られます。
type Batch struct {
	stop     atomic.Bool
	progress atomic.Int32
	board    atomic.Pointer[board]
	done     chan struct{}

	result Result
	err    error
}

func newBatch() *Batch {
	return &Batch{done: make(chan struct{})}
}

// Stop は以降の描画呼び出しの開始を止めます。何度呼んでも安全です。
// 発行済みの呼び出しは中断されず、その結果はアイテムに書き込まれます。
func (b *Batch) Stop() {
	if b.stop.CompareAndSwap(false, true) {
		slog.Info("ストーリーボード生成の停止が要求されました")
	}
}

// Stopped は停止が要求されたかどうかを返します。
func (b *Batch) Stopped() bool {
	return b.stop.Load()
}

// Progress は着手済みまたはスキップ済みのシーンの割合（0〜100）を返します。
func (b *Batch) Progress() int {
	return int(b.progress.Load())
}

// Items は現在のアイテム一覧のスナップショットを返します。シーン分割前は nil です。
func (b *Batch) Items() []domain.StoryboardItem {
	bd := b.board.Load()
	if bd == nil {
		return nil
	}
	return bd.snapshot()
}

// Done はバッチ終了時に閉じられるチャネルを返します。
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Running はバッチが実行中かどうかを返します。
func (b *Batch) Running() bool {
	select {
	case <-b.done:
		return false
	default:
		return true
	}
}

// Wait はバッチの終了を待ち、集計結果を返します。
// シーン分割に失敗した場合のみエラーを返し、個々のシーンの失敗は Result に含まれます。
func (b *Batch) Wait() (Result, error) {
	<-b.done
	return b.result, b.err
}

func (b *Batch) setProgress(processed, total int) {
	if total <= 0 {
		return
	}
	pct := math.Round(float64(min(processed, total)) / float64(total) * 100)
	b.progress.Store(int32(pct))
}

func summarize(items []domain.StoryboardItem, stopped bool) Result {
	r := Result{Items: items, Stopped: stopped}
	for _, it := range items {
		switch it.Status {
		case domain.StatusCompleted:
			r.Completed++
		case domain.StatusFailed:
			r.Failed++
		case domain.StatusPending:
			r.Skipped++
		}
	}
	return r
}
