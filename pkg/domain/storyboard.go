package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ItemStatus はストーリーボードアイテムの生成状態です。
type ItemStatus int

const (
	StatusPending ItemStatus = iota
	StatusGenerating
	StatusCompleted
	StatusFailed
)

func (s ItemStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusGenerating:
		return "generating"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// CanTransition は from から to への遷移が許可されているかを返します。
// Completed と Failed は明示的な再生成によってのみ Generating に戻ります。
func CanTransition(from, to ItemStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusGenerating
	case StatusGenerating:
		return to == StatusCompleted || to == StatusFailed
	case StatusCompleted, StatusFailed:
		return to == StatusGenerating
	}
	return false
}

// StoryboardItem は 1 シーン分の生成単位です。
type StoryboardItem struct {
	ID                  string
	Prompt              string
	OriginalDescription string
	Image               *Image
	Status              ItemStatus
}

// NewStoryboardItems はシーン記述の順序を保ったまま Pending のアイテム一覧を生成します。
func NewStoryboardItems(scenes []string) []StoryboardItem {
	items := make([]StoryboardItem, len(scenes))
	for i, desc := range scenes {
		items[i] = StoryboardItem{
			ID:                  fmt.Sprintf("item-%d-%s", i, uuid.NewString()),
			Prompt:              desc,
			OriginalDescription: desc,
			Status:              StatusPending,
		}
	}
	return items
}

// Transition は遷移規則を検証したうえで新しい状態のアイテムを返します。
// 画像は Completed の場合のみ保持され、それ以外の遷移では破棄されます。
func (it StoryboardItem) Transition(to ItemStatus, img *Image) (StoryboardItem, error) {
	if !CanTransition(it.Status, to) {
		return it, fmt.Errorf("%w: %s -> %s (id: %s)", ErrInvalidTransition, it.Status, to, it.ID)
	}
	it.Status = to
	it.Image = nil
	if to == StatusCompleted {
		if img == nil || len(img.Data) == 0 {
			return it, fmt.Errorf("%w: completed without image (id: %s)", ErrInvalidTransition, it.ID)
		}
		it.Image = img
	}
	return it, nil
}

// CompletedItems は Completed のアイテムを 1 始まりのシーン位置とともに返します。
func CompletedItems(items []StoryboardItem) []PositionedItem {
	var out []PositionedItem
	for i, it := range items {
		if it.Status == StatusCompleted && it.Image != nil {
			out = append(out, PositionedItem{Position: i + 1, Item: it})
		}
	}
	return out
}

// PositionedItem はシーン位置付きのアイテムです。
type PositionedItem struct {
	Position int
	Item     StoryboardItem
}
