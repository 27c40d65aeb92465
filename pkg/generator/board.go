package generator

import (
	"fmt"
	"slices"
	"sync"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// board はバッチのアイテム一覧を保持します。
// 更新は常にインデックス単位のコピーオンライトで行い、完了順に関係なく一覧の並びはシーン順のままです。
type board struct {
	mu    sync.RWMutex
	items []domain.StoryboardItem

	notifyMu sync.Mutex
	observer Observer
}

func newBoard(items []domain.StoryboardItem, observer Observer) *board {
	return &board{items: items, observer: observer}
}

func (b *board) snapshot() []domain.StoryboardItem {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.items)
}

// publish は現在の一覧を Observer に通知します。
func (b *board) publish() {
	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()
	if b.observer != nil {
		b.observer(b.snapshot())
	}
}

// transition はインデックス i のアイテムの状態を遷移させ、Observer に通知します。
func (b *board) transition(i int, to domain.ItemStatus, img *domain.Image) (domain.StoryboardItem, error) {
	return b.update(i, func(it domain.StoryboardItem) (domain.StoryboardItem, error) {
		return it.Transition(to, img)
	})
}

// beginRegeneration は再生成のためにアイテムを Generating にします。
// 生成中のアイテムと、実行中バッチがまだ着手していない Pending のアイテムは対象外です。
func (b *board) beginRegeneration(i int, batchRunning bool) (domain.StoryboardItem, error) {
	return b.update(i, func(it domain.StoryboardItem) (domain.StoryboardItem, error) {
		switch {
		case it.Status == domain.StatusGenerating:
			return it, fmt.Errorf("%w: scene %d", ErrItemBusy, i+1)
		case it.Status == domain.StatusPending && batchRunning:
			return it, fmt.Errorf("%w: scene %d", ErrItemBusy, i+1)
		}
		return it.Transition(domain.StatusGenerating, nil)
	})
}

func (b *board) update(i int, fn func(domain.StoryboardItem) (domain.StoryboardItem, error)) (domain.StoryboardItem, error) {
	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()

	b.mu.Lock()
	if i < 0 || i >= len(b.items) {
		n := len(b.items)
		b.mu.Unlock()
		return domain.StoryboardItem{}, fmt.Errorf("%w: index %d (len=%d)", ErrItemNotFound, i, n)
	}
	current := b.items[i]
	updated, err := fn(current)
	if err != nil {
		b.mu.Unlock()
		return current, err
	}
	next := slices.Clone(b.items)
	next[i] = updated
	b.items = next
	b.mu.Unlock()

	if b.observer != nil {
		b.observer(b.snapshot())
	}
	return updated, nil
}
